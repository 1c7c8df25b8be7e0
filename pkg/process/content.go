package process

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Tags whose subtrees carry no page content and are removed before traversal
const strippedSelector = "script, style, nav, header, footer"

// minContentLength is the suppression threshold: converted text at or below
// this many characters is treated as having no meaningful content.
const minContentLength = 100

// BlockKind tags a TextBlock with its structural origin.
type BlockKind int

const (
	KindHeading BlockKind = iota
	KindParagraph
	KindBold
	KindItalic
	KindBulletList
	KindNumberedList
	KindQuote
	KindInlineCode
	KindCodeBlock
)

// TextBlock is one ordered fragment of converted output text. Text holds the
// rendered markdown-like fragment; Level is the heading level (headings only).
type TextBlock struct {
	Kind  BlockKind
	Level int
	Text  string
}

// tagRule maps one allow-listed tag to its block kind and rendering function.
type tagRule struct {
	kind   BlockKind
	render func(s *goquery.Selection) string
}

// tagRules is the exhaustive allow-list. A tag absent from this table is never
// rendered; a nested allow-listed tag is rendered once, flattened into its
// outermost allow-listed ancestor.
var tagRules = map[string]tagRule{
	"h1":         {KindHeading, headingRule(1)},
	"h2":         {KindHeading, headingRule(2)},
	"h3":         {KindHeading, headingRule(3)},
	"h4":         {KindHeading, headingRule(4)},
	"h5":         {KindHeading, headingRule(5)},
	"h6":         {KindHeading, headingRule(6)},
	"p":          {KindParagraph, func(s *goquery.Selection) string { return "\n" + flatText(s) + "\n" }},
	"strong":     {KindBold, func(s *goquery.Selection) string { return "**" + flatText(s) + "**" }},
	"b":          {KindBold, func(s *goquery.Selection) string { return "**" + flatText(s) + "**" }},
	"em":         {KindItalic, func(s *goquery.Selection) string { return "*" + flatText(s) + "*" }},
	"i":          {KindItalic, func(s *goquery.Selection) string { return "*" + flatText(s) + "*" }},
	"ul":         {KindBulletList, renderBulletList},
	"ol":         {KindNumberedList, renderNumberedList},
	"blockquote": {KindQuote, func(s *goquery.Selection) string { return "\n> " + flatText(s) + "\n" }},
	"code":       {KindInlineCode, func(s *goquery.Selection) string { return "`" + flatText(s) + "`" }},
	"pre":        {KindCodeBlock, func(s *goquery.Selection) string { return "\n```\n" + strings.TrimSpace(s.Text()) + "\n```\n" }},
}

// allowListSelector must stay in sync with tagRules (checked by tests)
const allowListSelector = "h1, h2, h3, h4, h5, h6, p, strong, b, em, i, ul, ol, blockquote, code, pre"

var whitespaceRuns = regexp.MustCompile(`\s+`)
var excessNewlines = regexp.MustCompile(`\n{3,}`)

// flatText flattens a node's descendants to plain text: inner markup is
// stripped and whitespace runs collapse to single spaces.
func flatText(s *goquery.Selection) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s.Text(), " "))
}

func headingRule(level int) func(s *goquery.Selection) string {
	prefix := strings.Repeat("#", level)
	return func(s *goquery.Selection) string {
		return "\n" + prefix + " " + flatText(s) + "\n"
	}
}

func renderBulletList(s *goquery.Selection) string {
	var lines []string
	s.Find("li").Each(func(_ int, li *goquery.Selection) {
		lines = append(lines, "- "+flatText(li))
	})
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func renderNumberedList(s *goquery.Selection) string {
	var lines []string
	s.Find("li").Each(func(i int, li *goquery.Selection) {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, flatText(li)))
	})
	return "\n" + strings.Join(lines, "\n") + "\n"
}

// Converter maps a parsed document into ordered markdown-like text.
type Converter struct {
	log *logrus.Logger
}

// NewConverter creates a Converter
func NewConverter(log *logrus.Logger) *Converter {
	return &Converter{log: log}
}

// Blocks collects the document's TextBlocks: non-content subtrees are removed,
// then every allow-listed tag is visited in document order and rendered via
// its table rule. Tags nested inside another allow-listed tag are skipped,
// since the outer node's flattened text already covers them.
// The input document is not modified; traversal runs on a clone.
func (c *Converter) Blocks(doc *goquery.Document) []TextBlock {
	work := goquery.CloneDocument(doc)
	work.Find(strippedSelector).Remove()

	var blocks []TextBlock
	work.Find(allowListSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(allowListSelector).Length() > 0 {
			return // represented by the outer allow-listed node
		}
		name := goquery.NodeName(s)
		rule, ok := tagRules[name]
		if !ok {
			return
		}
		block := TextBlock{Kind: rule.kind, Text: rule.render(s)}
		if block.Kind == KindHeading {
			block.Level = int(name[1] - '0')
		}
		blocks = append(blocks, block)
	})
	return blocks
}

// Convert renders the document to its final text: blocks joined by newlines,
// runs of 3+ newlines collapsed to exactly 2, surrounding whitespace trimmed.
// Documents whose converted text is minContentLength characters or shorter
// yield an empty string; the caller must skip persistence then.
func (c *Converter) Convert(doc *goquery.Document) string {
	blocks := c.Blocks(doc)

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}

	text := strings.Join(parts, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) <= minContentLength {
		return ""
	}
	return text
}

// Title extracts the page title for metadata purposes.
func Title(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "Untitled Page"
	}
	return title
}
