// Package render turns assembled report payloads into printable HTML markup.
// Two renderers exist: a local template renderer for standalone deployments and
// a remote client delegating to an external rendering service.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/clinic-visit-server/internal/domain"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Consultation Report</title>
<style>
body { font-family: serif; font-size: {{ .Options.FontScale }}%; margin: 2em; }
.letterhead { border-bottom: 2px solid #333; margin-bottom: 1.5em; padding-bottom: 0.5em; }
.section { margin-bottom: 1em; }
.section h3 { margin-bottom: 0.25em; }
.signature { margin-top: 3em; }
.footer { margin-top: 2em; font-size: 80%; color: #666; }
@page { size: {{ .Options.PaperSize }}; }
</style>
</head>
<body>
{{- if .Options.ShowLetterhead }}
<div class="letterhead">
<h1>{{ .Doctor.ClinicName }}</h1>
<p>{{ .Doctor.Name }}{{ if .Doctor.Specialty }}, {{ .Doctor.Specialty }}{{ end }}</p>
{{- if .Doctor.RegistrationNo }}
<p>Reg. No: {{ .Doctor.RegistrationNo }}</p>
{{- end }}
</div>
{{- end }}
<div class="patient">
<p><strong>{{ .Patient.Name }}</strong> ({{ .Patient.MRN }})</p>
<p>{{ .GeneratedAt.Format "02 Jan 2006 15:04" }}</p>
</div>
{{- range .Sections }}
{{- if .Items }}
<div class="section">
<h3>{{ .Title }}</h3>
<ul>
{{- range .Items }}
<li>{{ . }}</li>
{{- end }}
</ul>
</div>
{{- end }}
{{- end }}
{{- if .FollowUp }}
<div class="section">
<h3>Follow Up</h3>
<p>{{ .FollowUp }}</p>
</div>
{{- end }}
{{- if .Options.ShowSignature }}
<div class="signature">
<p>_______________________</p>
<p>{{ .Doctor.Name }}</p>
</div>
{{- end }}
{{- if .Options.ShowFooter }}
<div class="footer">
<p>Generated on {{ .GeneratedAt.Format "02 Jan 2006" }}. This report is part of the patient's medical record.</p>
</div>
{{- end }}
</body>
</html>
`

// TemplateRenderer renders reports locally from the built-in HTML template. It
// implements domain.Renderer.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer creates a local HTML renderer.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

// Render executes the report template against the payload.
func (r *TemplateRenderer) Render(ctx context.Context, payload *domain.ReportPayload) (string, error) {
	if payload == nil {
		return "", domain.NewNormalizedError(domain.KindValidation, "render payload is required")
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("executing report template: %w", err)
	}
	return buf.String(), nil
}
