package domain

import "sort"

// ReportSection is a named, identified block of the generated report derived
// from one clinical category. A section with zero items is still constructible;
// visibility filtering happens in the assembler, never here.
type ReportSection struct {
	ID    Category `json:"id"`
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// IsEmpty reports whether the section carries no item texts.
func (s ReportSection) IsEmpty() bool {
	return len(s.Items) == 0
}

// SectionSetting controls visibility and position of one report section.
type SectionSetting struct {
	Enabled bool `json:"enabled"`
	Order   int  `json:"order"`
}

// SectionConfig maps every section identifier to its visibility and position.
// The key set is always exactly the closed category enumeration: toggling flips
// the boolean or moves the position, it never adds or removes keys.
type SectionConfig map[Category]SectionSetting

// DefaultSectionConfig returns a config with every section enabled in canonical
// order.
func DefaultSectionConfig() SectionConfig {
	cfg := make(SectionConfig, len(categoryOrder))
	for i, cat := range categoryOrder {
		cfg[cat] = SectionSetting{Enabled: true, Order: i}
	}
	return cfg
}

// Normalize repairs a config loaded from an external store: unknown keys are
// dropped and missing keys are added enabled at their canonical position, so the
// key-set invariant holds no matter what was persisted.
func (sc SectionConfig) Normalize() SectionConfig {
	out := make(SectionConfig, len(categoryOrder))
	for i, cat := range categoryOrder {
		if s, ok := sc[cat]; ok {
			out[cat] = s
		} else {
			out[cat] = SectionSetting{Enabled: true, Order: i}
		}
	}
	return out
}

// Toggle flips the enabled flag for a section. Categories outside the closed
// enumeration are ignored.
func (sc SectionConfig) Toggle(cat Category, enabled bool) {
	if s, ok := sc[cat]; ok {
		s.Enabled = enabled
		sc[cat] = s
	}
}

// OrderedCategories returns all category keys sorted by their configured order,
// with the canonical order as tie-breaker. It does not filter by visibility.
func (sc SectionConfig) OrderedCategories() []Category {
	cats := Categories()
	sort.SliceStable(cats, func(i, j int) bool {
		si, iOK := sc[cats[i]]
		sj, jOK := sc[cats[j]]
		oi, oj := cats[i].CanonicalIndex(), cats[j].CanonicalIndex()
		if iOK {
			oi = si.Order
		}
		if jOK {
			oj = sj.Order
		}
		return oi < oj
	})
	return cats
}

// Excluded reports whether the section is explicitly disabled. Sections with no
// entry default to included: the filter fails open, not closed.
func (sc SectionConfig) Excluded(cat Category) bool {
	s, ok := sc[cat]
	return ok && !s.Enabled
}
