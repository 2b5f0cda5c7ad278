package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"DigestMailer/internal/config"
	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

// Parser normalizes a syndication document into articles. Entry order
// follows the document; no sorting happens here.
type Parser struct {
	idField        string
	pdfNamespace   string
	pdfElement     string
	pdfQueryParam  string
	pdfURLTemplate string
}

var _ ports.FeedParser = (*Parser)(nil)

// NewParser wires identifier and PDF-link derivation from feed config.
func NewParser(cfg config.FeedConfig) *Parser {
	p := &Parser{
		idField:        strings.ToLower(strings.TrimSpace(cfg.IDField)),
		pdfQueryParam:  cfg.PDFQueryParam,
		pdfURLTemplate: cfg.PDFURLTemplate,
	}
	if ns, elem, ok := strings.Cut(cfg.PDFExtension, ":"); ok {
		p.pdfNamespace = ns
		p.pdfElement = elem
	}
	return p
}

// Parse converts the raw document into articles. Every entry must carry
// a title and a canonical link; optional fields (summary, PDF link) are
// left empty when absent.
func (p *Parser) Parse(raw []byte) ([]domain.Article, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, &domain.ParseError{Reason: "malformed document", Err: err}
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		if strings.TrimSpace(item.Title) == "" {
			return nil, &domain.ParseError{Reason: fmt.Sprintf("entry %d has no title", i)}
		}
		if strings.TrimSpace(item.Link) == "" {
			return nil, &domain.ParseError{Reason: fmt.Sprintf("entry %d has no link", i)}
		}

		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}

		articles = append(articles, domain.Article{
			ID:          p.articleID(item),
			Title:       strings.TrimSpace(item.Title),
			Summary:     flattenHTML(item.Description),
			WebLink:     strings.TrimSpace(item.Link),
			PDFLink:     p.pdfLink(item),
			PublishedAt: publishedAt,
		})
	}

	return articles, nil
}

// articleID derives the stable identifier. Default is the entry GUID
// with the canonical link as fallback; "link" keys on the link alone.
func (p *Parser) articleID(item *gofeed.Item) string {
	if p.idField == "link" {
		return strings.TrimSpace(item.Link)
	}
	if guid := strings.TrimSpace(item.GUID); guid != "" {
		return guid
	}
	return strings.TrimSpace(item.Link)
}

// pdfLink reads the configured extension element, falling back to
// deriving the link from a query parameter of the entry URL.
func (p *Parser) pdfLink(item *gofeed.Item) string {
	if p.pdfNamespace != "" {
		if elems, ok := item.Extensions[p.pdfNamespace]; ok {
			if values := elems[p.pdfElement]; len(values) > 0 {
				if v := strings.TrimSpace(values[0].Value); v != "" {
					return v
				}
			}
		}
	}

	if p.pdfQueryParam == "" || p.pdfURLTemplate == "" {
		return ""
	}

	parsed, err := url.Parse(item.Link)
	if err != nil {
		return ""
	}
	value := parsed.Query().Get(p.pdfQueryParam)
	if value == "" {
		return ""
	}

	return fmt.Sprintf(p.pdfURLTemplate, value)
}

// flattenHTML strips markup from a summary and collapses whitespace.
func flattenHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
