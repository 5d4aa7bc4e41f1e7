// Package htmlsanitize wraps bluemonday policies for the two kinds of text
// the application stores: rich bulletin bodies and plain identity fields.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// richPolicy allows the formatting operators use when composing
	// bulletins: basic text formatting, lists, headings, tables, and links.
	richPolicy = newRichPolicy()

	// plainPolicy strips all markup. Used for names, job titles, and
	// organization names, where HTML is never legitimate.
	plainPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "td", "th")
	p.AllowTables()
	return p
}

// Sanitize cleans rich text, removing scripts, event handlers, and unsafe
// URLs while preserving the formatting the rich policy allows.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return richPolicy.Sanitize(html)
}

// Plain strips all HTML from a string and trims the result. Use for fields
// that must be plain text (personal names, job titles, organization names).
func Plain(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}
