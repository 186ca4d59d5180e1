package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for clinic data integrity.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidCategory = errors.New("invalid consultation category")
	ErrInvalidState    = errors.New("invalid workflow state")
)

// ConsultationItem is one free-text entry inside a clinical category. Items are
// immutable once added and owned by the consultation session; the ID is unique
// within its category only.
type ConsultationItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Validate ensures the item carries the data the report pipeline expects.
func (ci *ConsultationItem) Validate() error {
	if ci.ID == "" {
		return fmt.Errorf("consultation item validation: %w", errors.New("ID is required"))
	}
	if ci.Text == "" {
		return fmt.Errorf("consultation item validation: %w", errors.New("text is required"))
	}
	return nil
}

// ItemsByCategory holds the consultation entries grouped by category. Categories
// are disjoint sets and are never merged.
type ItemsByCategory map[Category][]ConsultationItem

// Add appends an item under the given category, rejecting categories outside the
// closed enumeration.
func (ib ItemsByCategory) Add(cat Category, item ConsultationItem) error {
	if !cat.IsValid() {
		return fmt.Errorf("adding item to category %q: %w", cat, ErrInvalidCategory)
	}
	if err := item.Validate(); err != nil {
		return err
	}
	ib[cat] = append(ib[cat], item)
	return nil
}

// Count returns the total number of items across all categories.
func (ib ItemsByCategory) Count() int {
	n := 0
	for _, items := range ib {
		n += len(items)
	}
	return n
}
