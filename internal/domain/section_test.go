package domain

import "testing"

func TestCategories(t *testing.T) {
	cats := Categories()

	if len(cats) != 8 {
		t.Fatalf("Expected 8 categories, got %d", len(cats))
	}
	if cats[0] != CategoryComplaints {
		t.Errorf("Expected complaints first, got %s", cats[0])
	}
	if cats[7] != CategoryNotes {
		t.Errorf("Expected notes last, got %s", cats[7])
	}

	// Mutating the returned slice must not affect the canonical order.
	cats[0] = CategoryNotes
	if Categories()[0] != CategoryComplaints {
		t.Error("Categories() must return a copy")
	}
}

func TestCategoryIsValid(t *testing.T) {
	for _, cat := range Categories() {
		if !cat.IsValid() {
			t.Errorf("Expected %s to be valid", cat)
		}
	}

	if Category("allergies").IsValid() {
		t.Error("Unknown category must not be valid")
	}
}

func TestDefaultSectionConfig(t *testing.T) {
	cfg := DefaultSectionConfig()

	if len(cfg) != len(Categories()) {
		t.Fatalf("Expected one entry per category, got %d", len(cfg))
	}
	for i, cat := range Categories() {
		s, ok := cfg[cat]
		if !ok {
			t.Fatalf("Missing entry for %s", cat)
		}
		if !s.Enabled {
			t.Errorf("Expected %s enabled by default", cat)
		}
		if s.Order != i {
			t.Errorf("Expected %s at canonical position %d, got %d", cat, i, s.Order)
		}
	}
}

func TestSectionConfigNormalize(t *testing.T) {
	loaded := SectionConfig{
		CategoryNotes:        {Enabled: false, Order: 0},
		Category("invented"): {Enabled: true, Order: 1},
	}

	cfg := loaded.Normalize()

	if len(cfg) != len(Categories()) {
		t.Fatalf("Expected full key set after normalize, got %d entries", len(cfg))
	}
	if _, ok := cfg[Category("invented")]; ok {
		t.Error("Unknown keys must be dropped")
	}
	if cfg[CategoryNotes].Enabled {
		t.Error("Persisted disabled flag must survive normalize")
	}
	if !cfg[CategoryComplaints].Enabled {
		t.Error("Missing keys must default to enabled")
	}
}

func TestSectionConfigToggleKeepsKeySet(t *testing.T) {
	cfg := DefaultSectionConfig()

	cfg.Toggle(CategoryProcedures, false)
	cfg.Toggle(Category("invented"), true)

	if len(cfg) != len(Categories()) {
		t.Errorf("Toggle must never add or remove keys, got %d entries", len(cfg))
	}
	if cfg[CategoryProcedures].Enabled {
		t.Error("Expected procedures disabled after toggle")
	}
}

func TestSectionConfigOrderedCategories(t *testing.T) {
	cfg := DefaultSectionConfig()
	cfg[CategoryNotes] = SectionSetting{Enabled: true, Order: -1}

	ordered := cfg.OrderedCategories()
	if ordered[0] != CategoryNotes {
		t.Errorf("Expected notes first after reorder, got %s", ordered[0])
	}
	if len(ordered) != len(Categories()) {
		t.Errorf("Ordering must not filter, got %d entries", len(ordered))
	}
}

func TestSectionConfigExcludedFailsOpen(t *testing.T) {
	cfg := SectionConfig{
		CategoryNotes: {Enabled: false, Order: 7},
	}

	if !cfg.Excluded(CategoryNotes) {
		t.Error("Explicitly disabled section must be excluded")
	}
	if cfg.Excluded(CategoryComplaints) {
		t.Error("Sections with no entry must be included (fail open)")
	}
}
