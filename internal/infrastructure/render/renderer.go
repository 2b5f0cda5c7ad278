package render

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

//go:embed templates/digest.html templates/digest.txt
var templateFS embed.FS

// Renderer produces the digest payload. Output is deterministic: the
// same article sequence and label always yield byte-identical bodies.
type Renderer struct {
	subjectPrefix string
	html          *htmltemplate.Template
	text          *texttemplate.Template
}

var _ ports.DigestRenderer = (*Renderer)(nil)

type templateData struct {
	Label    string
	Articles []domain.Article
}

// NewRenderer parses the embedded templates once.
func NewRenderer(subjectPrefix string) (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/digest.html")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	text, err := texttemplate.ParseFS(templateFS, "templates/digest.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}

	return &Renderer{subjectPrefix: subjectPrefix, html: html, text: text}, nil
}

// Render builds subject, HTML body, and plain-text fallback for the
// given articles and date label. An empty article list is a caller bug
// and yields a RenderError.
func (r *Renderer) Render(articles []domain.Article, label string) (domain.Digest, error) {
	if len(articles) == 0 {
		return domain.Digest{}, &domain.RenderError{Reason: "empty article list"}
	}

	data := templateData{Label: label, Articles: articles}

	var htmlBody strings.Builder
	if err := r.html.Execute(&htmlBody, data); err != nil {
		return domain.Digest{}, &domain.RenderError{Reason: "execute html template", Err: err}
	}

	var textBody strings.Builder
	if err := r.text.Execute(&textBody, data); err != nil {
		return domain.Digest{}, &domain.RenderError{Reason: "execute text template", Err: err}
	}

	return domain.Digest{
		Subject:  fmt.Sprintf("%s - %s", r.subjectPrefix, label),
		Articles: articles,
		HTMLBody: htmlBody.String(),
		TextBody: textBody.String(),
	}, nil
}
