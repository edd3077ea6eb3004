package document

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/budziq/link-checker/internal/links"
)

// Document is an immutable handle over one parsed HTML resource. Instances
// are owned by the Cache once inserted; callers only read from them.
type Document struct {
	doc *goquery.Document
}

// Parse reads and parses a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// BaseHref returns the href of the document's first <base> element, or ""
// when the document declares none.
func (d *Document) BaseHref() string {
	return d.doc.Find("base[href]").First().AttrOr("href", "")
}

// RawLinks returns every candidate reference in document order: href on
// anchor and link elements, then src on image and script elements.
// Elements lacking the relevant attribute are skipped.
func (d *Document) RawLinks() []string {
	var out []string
	d.doc.Find("a[href], link[href]").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.AttrOr("href", "")))
	})
	d.doc.Find("img[src], script[src]").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.AttrOr("src", "")))
	})
	return out
}

// Targets rebases every candidate reference against the document's own
// identity and its declared base href. The result is de-duplicated but
// keeps first-seen document order, so failure reports follow the page.
func (d *Document) Targets(referrer string) []links.Target {
	baseHref := d.BaseHref()
	seen := make(map[string]struct{})
	var out []links.Target
	for _, raw := range d.RawLinks() {
		if raw == "" {
			continue
		}
		t := links.Rebase(raw, baseHref, referrer)
		key := t.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// HasAnchor reports whether any element carries an id or a legacy name
// attribute equal to name.
func (d *Document) HasAnchor(name string) bool {
	if name == "" {
		return false
	}
	found := false
	d.doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.AttrOr("id", "") == name || s.AttrOr("name", "") == name {
			found = true
			return false
		}
		return true
	})
	return found
}
