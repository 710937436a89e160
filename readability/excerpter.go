// Package readability derives article excerpts with go-readability.
package readability

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/glimpse"
	"github.com/go-shiori/go-readability"
)

// DefaultMaxLength bounds excerpts taken from article text.
const DefaultMaxLength = 300

// Ensure Excerpter implements glimpse.Excerpter at compile time.
var _ glimpse.Excerpter = (*Excerpter)(nil)

// Excerpter wraps go-readability to summarize a page's main content.
type Excerpter struct {
	// MaxLength bounds excerpts in runes; zero means DefaultMaxLength.
	MaxLength int
}

// NewExcerpter creates a new Excerpter.
func NewExcerpter() *Excerpter {
	return &Excerpter{}
}

// Excerpt returns readability's excerpt, or the start of the article text
// when there is none, cut to the maximum length.
func (e *Excerpter) Excerpt(rawHTML string, pageURL string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", glimpse.Errorf(glimpse.EINVALID, "empty HTML input")
	}

	u, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return "", err
	}

	excerpt := collapse(article.Excerpt)
	if excerpt == "" {
		excerpt = collapse(article.TextContent)
	}
	return truncate(excerpt, e.maxLength()), nil
}

func (e *Excerpter) maxLength() int {
	if e.MaxLength > 0 {
		return e.MaxLength
	}
	return DefaultMaxLength
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes on a word boundary.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
