package domain

import "time"

// FollowUpLayout is the presentation format for follow-up dates on reports.
const FollowUpLayout = "02 Jan 2006"

type followUpKind int

const (
	followUpOmitted followUpKind = iota
	followUpNone
	followUpSet
)

// FollowUpDate is a three-state next-visit date: omitted (the caller did not
// decide, reuse the session's stored date), explicitly absent (cleared by skip),
// or set to a calendar day. Modeling the omitted/absent distinction in the type
// keeps the reuse-vs-clear behavior unambiguous.
type FollowUpDate struct {
	kind followUpKind
	date time.Time
}

// FollowUpOmitted returns the zero decision: the stored session date applies.
func FollowUpOmitted() FollowUpDate {
	return FollowUpDate{kind: followUpOmitted}
}

// NoFollowUp returns the explicit absence of a follow-up date.
func NoFollowUp() FollowUpDate {
	return FollowUpDate{kind: followUpNone}
}

// FollowUpOn returns a follow-up date set to the calendar day of t. The time
// component is discarded.
func FollowUpOn(t time.Time) FollowUpDate {
	y, m, d := t.Date()
	return FollowUpDate{kind: followUpSet, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// IsOmitted reports whether no decision was supplied.
func (f FollowUpDate) IsOmitted() bool {
	return f.kind == followUpOmitted
}

// IsSet reports whether a concrete date is present.
func (f FollowUpDate) IsSet() bool {
	return f.kind == followUpSet
}

// Date returns the calendar day and whether one is present.
func (f FollowUpDate) Date() (time.Time, bool) {
	return f.date, f.kind == followUpSet
}

// Format returns the presentation form of the date, or the empty string when no
// date is present.
func (f FollowUpDate) Format() string {
	if f.kind != followUpSet {
		return ""
	}
	return f.date.Format(FollowUpLayout)
}

// Or resolves an omitted decision against a stored fallback. Explicit decisions
// (absent or set) pass through unchanged.
func (f FollowUpDate) Or(stored FollowUpDate) FollowUpDate {
	if f.kind == followUpOmitted {
		return stored
	}
	return f
}
