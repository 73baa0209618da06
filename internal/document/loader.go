package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

// MarkupSet names the annotation set that receives title/description
// annotations extracted from HTML.
const MarkupSet = "Original markups"

// LoadFile reads a document from disk. Files ending in .html or .htm are
// parsed as HTML; anything else is read as plain text.
func LoadFile(path string) (*annotation.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, stemerrors.New(stemerrors.ErrCodeFileRead, fmt.Sprintf("failed to open %s", path), err).
			WithDetail("path", path)
	}
	defer f.Close()

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return LoadHTML(name, f)
	default:
		return LoadText(name, f)
	}
}

func LoadText(name string, r io.Reader) (*annotation.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, stemerrors.New(stemerrors.ErrCodeFileRead, fmt.Sprintf("failed to read %s", name), err)
	}
	return annotation.NewDocument(name, string(data)), nil
}

// LoadHTML extracts the readable content of an HTML page. The document
// content is the title, description and body text separated by blank lines;
// the title and description spans are recorded in MarkupSet.
func LoadHTML(name string, r io.Reader) (*annotation.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, stemerrors.New(stemerrors.ErrCodeFileRead, fmt.Sprintf("failed to parse HTML %s", name), err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	description := extractDescription(doc)
	content := extractContent(doc)

	var sb strings.Builder
	type span struct {
		kind       string
		start, end int
	}
	var spans []span

	appendPart := func(kind, text string) {
		if text == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		start := sb.Len()
		sb.WriteString(text)
		if kind != "" {
			spans = append(spans, span{kind: kind, start: start, end: sb.Len()})
		}
	}
	appendPart("title", title)
	appendPart("description", description)
	appendPart("", content)

	out := annotation.NewDocument(name, sb.String())
	if len(spans) > 0 {
		markups := out.NamedAnnotations(MarkupSet)
		for _, s := range spans {
			markups.Add(s.kind, s.start, s.end, nil)
		}
	}
	return out, nil
}

func extractDescription(doc *goquery.Document) string {
	metaSelectors := []string{
		"meta[name='description']",
		"meta[property='og:description']",
		"meta[name='twitter:description']",
	}

	for _, selector := range metaSelectors {
		if content, exists := doc.Find(selector).Attr("content"); exists && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
	}

	return ""
}

func extractContent(doc *goquery.Document) string {
	contentDoc := doc.Clone()

	// Remove non-content elements
	contentDoc.Find("script, style, nav, header, footer, aside, iframe, noscript, form, button").Remove()

	var content string
	if article := contentDoc.Find("article").First(); article.Length() > 0 {
		content = article.Text()
	} else if mainEl := contentDoc.Find("main").First(); mainEl.Length() > 0 {
		content = mainEl.Text()
	} else {
		content = contentDoc.Find("body").Text()
	}

	return strings.Join(strings.Fields(content), " ")
}

// Expand resolves file paths and doublestar glob patterns ("docs/**/*.txt")
// into a sorted, de-duplicated list of regular files.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, stemerrors.New(stemerrors.ErrCodeFileRead, fmt.Sprintf("no such file: %s", pattern), err).
					WithDetail("path", pattern)
			}
			if !info.IsDir() {
				add(pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, stemerrors.ConfigError(fmt.Sprintf("invalid pattern %q", pattern), err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
