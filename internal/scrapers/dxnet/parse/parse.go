// Package parse turns maimai DX NET pages into typed records.
//
// Parsing is defensive: a field that cannot be read becomes nil, a row that
// cannot be identified is skipped and kept as a *ParseError for diagnostics.
package parse

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseError describes a single row that was skipped.
type ParseError struct {
	Page string
	// Row is the zero based position of the row on the page.
	Row int
	// Raw is the whitespace collapsed text of the row.
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s row %d: %s", e.Page, e.Row, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of parsing a page of rows.
type Result[T any] struct {
	Records []T
	Skipped []*ParseError
}

func newDocument(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// collapsedText returns the text of a selection with all whitespace runs
// (including nbsp and ideographic spaces) collapsed into a single space. Line
// breaks and block boundaries count as whitespace.
func collapsedText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		writeText(node, &buffer)
	}
	text := strings.NewReplacer("\u00a0", " ", "\u3000", " ").Replace(buffer.String())
	text = innerWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func writeText(node *html.Node, buffer *bytes.Buffer) {
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch node.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Br, atom.Div, atom.P:
			buffer.WriteByte(' ')
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, buffer)
	}
}

// parsePercent reads "99.8012%" into 99.8012.
func parsePercent(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "%") {
		return 0, false
	}
	number := strings.NewReplacer("%", "", " ", "", "\n", "", "\t", "").Replace(trimmed)
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func digitsOnly(text string) string {
	var out strings.Builder
	for _, c := range text {
		if c >= '0' && c <= '9' {
			out.WriteRune(c)
		}
	}
	return out.String()
}

// parseFraction reads "2,345 / 2,451" into (2345, 2451).
func parseFraction(text string) (int64, int64, bool) {
	left, right, found := strings.Cut(text, "/")
	if !found {
		return 0, 0, false
	}
	leftDigits := digitsOnly(left)
	rightDigits := digitsOnly(right)
	if leftDigits == "" || rightDigits == "" {
		return 0, 0, false
	}
	cur, err := strconv.ParseInt(leftDigits, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	max, err := strconv.ParseInt(rightDigits, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return cur, max, true
}

// numberAfter finds the first run of digits after needle, "1,234" style digit
// grouping is allowed.
func numberAfter(haystack, needle string) (int64, bool) {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return 0, false
	}
	after := haystack[idx+len(needle):]

	var digits strings.Builder
	started := false
	for _, c := range after {
		isDigit := c >= '0' && c <= '9'
		if !started {
			if isDigit {
				started = true
				digits.WriteRune(c)
			}
			continue
		}
		if isDigit {
			digits.WriteRune(c)
			continue
		}
		if c == ',' {
			continue
		}
		break
	}
	if digits.Len() == 0 {
		return 0, false
	}
	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// iconStem returns the file name of an image src without query string or
// extension: ".../playlog/sssplus.png?ver=1.50" becomes "sssplus".
func iconStem(src string) (string, bool) {
	file := path.Base(src)
	file, _, _ = strings.Cut(file, "?")
	stem, found := strings.CutSuffix(file, ".png")
	if !found || stem == "" {
		return "", false
	}
	return stem, true
}

func ptr[T any](value T) *T {
	return &value
}
