// Package service implements the consultation report pipeline: section
// building, report assembly, and the follow-up workflow state machine.
package service

import "github.com/clinic-visit-server/internal/domain"

// BuildSections turns the raw per-category consultation entries into the full
// ordered section list. The output always contains one section per category of
// the closed enumeration, in canonical order, with an empty item list for
// categories that received no entries. Filtering for emptiness or visibility is
// the assembler's job, not the builder's, so this stays a pure total mapping.
func BuildSections(items domain.ItemsByCategory) []domain.ReportSection {
	sections := make([]domain.ReportSection, 0, len(domain.Categories()))
	for _, cat := range domain.Categories() {
		entries := items[cat]
		texts := make([]string, 0, len(entries))
		for _, item := range entries {
			texts = append(texts, item.Text)
		}
		sections = append(sections, domain.ReportSection{
			ID:    cat,
			Title: cat.Title(),
			Items: texts,
		})
	}
	return sections
}
