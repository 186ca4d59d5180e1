package domain

import "time"

// RenderOptions is the cosmetic configuration bundle for report rendering. The
// core treats it as opaque; only the renderer interprets it.
type RenderOptions struct {
	PaperSize      string `json:"paper_size,omitempty"`
	ShowLetterhead bool   `json:"show_letterhead"`
	ShowSignature  bool   `json:"show_signature"`
	ShowFooter     bool   `json:"show_footer"`
	FontScale      int    `json:"font_scale,omitempty"`
}

// DefaultRenderOptions returns the options used when the doctor has never saved
// a preference.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		PaperSize:      "A4",
		ShowLetterhead: true,
		ShowSignature:  true,
		ShowFooter:     true,
		FontScale:      100,
	}
}

// ReportPayload is the assembled, renderer-ready visit report. It is built fresh
// for every preview and never mutated after construction; a new user action
// produces a new payload.
type ReportPayload struct {
	Patient     *Patient        `json:"patient"`
	Doctor      *Doctor         `json:"doctor"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sections    []ReportSection `json:"sections"`
	FollowUp    string          `json:"follow_up,omitempty"`
	Options     RenderOptions   `json:"options"`
}
