package ingestion

import (
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

const (
	codeBlockPlaceholder = "[CODE BLOCK OMITTED]"
	imagePlaceholder     = "[IMAGE OMITTED]"
)

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)
	codeBlockRe   = regexp.MustCompile("(?s)```.*?```")
	importRe      = regexp.MustCompile(`(?m)^import\s+.*?from\s+["'][^"']*["'];?[ \t]*$`)
	exportRe      = regexp.MustCompile(`(?m)^export\s+[^\n]*$`)
	jsxTagRe      = regexp.MustCompile(`<[^>\n]+>`)
	imageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	inlineCodeRe  = regexp.MustCompile("`([^`]+)`")
	starEmphRe    = regexp.MustCompile(`\*{1,2}([^*\n]+?)\*{1,2}`)
	underEmphRe   = regexp.MustCompile(`\b_{1,2}([^_\n]+?)_{1,2}\b`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t#]*$`)
	h1Re          = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t#]*$`)
	headingMarkRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	bulletRe      = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedRe    = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

type frontmatter struct {
	Title string `yaml:"title"`
}

// ParseMarkdown extracts plain text, a chapter title and the section headings
// from a Markdown or MDX chapter.
func ParseMarkdown(content, path string) (*Document, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var meta frontmatter
	if m := frontmatterRe.FindStringSubmatch(content); m != nil {
		// Malformed frontmatter only loses the title.
		_ = yaml.Unmarshal([]byte(m[1]), &meta)
		content = content[len(m[0]):]
	}

	body := codeBlockRe.ReplaceAllString(content, codeBlockPlaceholder)

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		if m := h1Re.FindStringSubmatch(body); m != nil {
			title = cleanInline(m[1])
		}
	}
	if title == "" {
		title = TitleFromFilename(path)
	}

	var headings []string
	for _, m := range headingRe.FindAllStringSubmatch(body, -1) {
		if heading := cleanInline(m[1]); heading != "" {
			headings = append(headings, heading)
		}
	}

	text := importRe.ReplaceAllString(body, "")
	text = exportRe.ReplaceAllString(text, "")
	text = jsxTagRe.ReplaceAllString(text, "")
	text = headingMarkRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = numberedRe.ReplaceAllString(text, "")
	text = cleanInline(text)
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return &Document{
		Title:    title,
		Text:     strings.TrimSpace(text),
		Headings: headings,
	}, nil
}

func cleanInline(s string) string {
	s = imageRe.ReplaceAllString(s, imagePlaceholder)
	s = linkRe.ReplaceAllString(s, "$1")
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = starEmphRe.ReplaceAllString(s, "$1")
	s = underEmphRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// SectionHeading returns the last heading that appears in text before offset.
func SectionHeading(text string, offset int, headings []string) string {
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]

	for i := len(headings) - 1; i >= 0; i-- {
		if strings.Contains(before, headings[i]) {
			return headings[i]
		}
	}
	return ""
}
