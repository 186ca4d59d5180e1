package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-visit-server/internal/domain"
)

func TestBuildSectionsTotality(t *testing.T) {
	items := domain.ItemsByCategory{
		domain.CategoryPrescriptions: {
			{ID: "p1", Text: "Amoxicillin 500mg TDS x5d"},
			{ID: "p2", Text: "Paracetamol 500mg PRN"},
		},
		domain.CategoryNotes: {
			{ID: "n1", Text: "Review in one week if fever persists"},
		},
	}

	sections := BuildSections(items)

	require.Len(t, sections, len(domain.Categories()), "one section per enumerated category")

	for i, cat := range domain.Categories() {
		assert.Equal(t, cat, sections[i].ID, "canonical order position %d", i)
		assert.Equal(t, cat.Title(), sections[i].Title)
	}

	byID := make(map[domain.Category]domain.ReportSection)
	for _, s := range sections {
		byID[s.ID] = s
	}
	assert.Equal(t, []string{"Amoxicillin 500mg TDS x5d", "Paracetamol 500mg PRN"}, byID[domain.CategoryPrescriptions].Items)
	assert.Equal(t, []string{"Review in one week if fever persists"}, byID[domain.CategoryNotes].Items)

	// Categories with no entries are present and empty, not missing.
	assert.True(t, byID[domain.CategoryComplaints].IsEmpty())
	assert.True(t, byID[domain.CategoryDiagnoses].IsEmpty())
}

func TestBuildSectionsEmptyInput(t *testing.T) {
	for _, items := range []domain.ItemsByCategory{nil, {}} {
		sections := BuildSections(items)
		require.Len(t, sections, len(domain.Categories()))
		for _, s := range sections {
			assert.True(t, s.IsEmpty())
		}
	}
}
