// Package domain contains core business entities and types for clinic visit
// management: consultation items, report sections, follow-up dates, and the
// normalized error taxonomy shared by every network-backed operation.
package domain

// Category identifies one clinical category of consultation entries. The set of
// categories is closed; section identifiers are drawn from it and never invented
// at runtime.
type Category string

const (
	CategoryComplaints     Category = "complaints"
	CategoryDiagnoses      Category = "diagnoses"
	CategoryExaminations   Category = "examinations"
	CategoryInvestigations Category = "investigations"
	CategoryProcedures     Category = "procedures"
	CategoryPrescriptions  Category = "prescriptions"
	CategoryInstructions   Category = "instructions"
	CategoryNotes          Category = "notes"
)

// categoryOrder is the canonical ordering of report categories. Section output
// and default section settings follow this order.
var categoryOrder = []Category{
	CategoryComplaints,
	CategoryDiagnoses,
	CategoryExaminations,
	CategoryInvestigations,
	CategoryProcedures,
	CategoryPrescriptions,
	CategoryInstructions,
	CategoryNotes,
}

var categoryTitles = map[Category]string{
	CategoryComplaints:     "Complaints",
	CategoryDiagnoses:      "Diagnoses",
	CategoryExaminations:   "Examinations",
	CategoryInvestigations: "Investigations",
	CategoryProcedures:     "Procedures",
	CategoryPrescriptions:  "Prescriptions",
	CategoryInstructions:   "Instructions",
	CategoryNotes:          "Notes",
}

// Categories returns the closed category enumeration in canonical order.
// Callers receive a copy and may reorder it freely.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// IsValid reports whether the category belongs to the closed enumeration.
func (c Category) IsValid() bool {
	_, ok := categoryTitles[c]
	return ok
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Title returns the human-readable section heading for the category.
func (c Category) Title() string {
	if title, ok := categoryTitles[c]; ok {
		return title
	}
	return string(c)
}

// CanonicalIndex returns the position of the category in the canonical order.
// Unknown categories sort after all known ones.
func (c Category) CanonicalIndex() int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return len(categoryOrder)
}
