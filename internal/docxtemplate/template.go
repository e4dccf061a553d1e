// Package docxtemplate fills {name} placeholders in Word documents.
package docxtemplate

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidTemplate is returned for payloads that are not a readable docx.
var ErrInvalidTemplate = errors.New("invalid docx template")

const (
	documentPart = "word/document.xml"
	textClose    = "</w:t>"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_.\-]+)\}`)

// textRun is one <w:t> element; start and end bound the element including
// its closing tag.
type textRun struct {
	open       string
	start, end int
	text       string
}

// Populate substitutes every {name} token whose name is a key of data.
// Tokens without a matching entry are left untouched. Parts that contain no
// replacement are copied raw.
func Populate(template []byte, data map[string]string) ([]byte, error) {
	reader, err := openTemplate(template)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)

	for _, file := range reader.File {
		if !isTextPart(file.Name) || len(data) == 0 {
			if err := writer.Copy(file); err != nil {
				return nil, fmt.Errorf("copy %s: %w", file.Name, err)
			}
			continue
		}

		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidTemplate, file.Name, err)
		}
		updated, changed := substitute(string(content), data)
		if !changed {
			if err := writer.Copy(file); err != nil {
				return nil, fmt.Errorf("copy %s: %w", file.Name, err)
			}
			continue
		}
		if err := writeZipFile(writer, file, []byte(updated)); err != nil {
			return nil, fmt.Errorf("write %s: %w", file.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

// Placeholders lists the distinct placeholder names found in the template,
// sorted.
func Placeholders(template []byte) ([]string, error) {
	reader, err := openTemplate(template)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, file := range reader.File {
		if !isTextPart(file.Name) {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidTemplate, file.Name, err)
		}
		for _, runs := range paragraphRuns(string(content)) {
			for _, m := range placeholderPattern.FindAllStringSubmatch(joinText(runs), -1) {
				seen[m[1]] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func openTemplate(template []byte) (*zip.Reader, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidTemplate)
	}
	reader, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	for _, f := range reader.File {
		if normalizeZipName(f.Name) == documentPart {
			return reader, nil
		}
	}
	return nil, fmt.Errorf("%w: %s not found", ErrInvalidTemplate, documentPart)
}

func isTextPart(name string) bool {
	name = normalizeZipName(name)
	if name == documentPart || name == "word/footnotes.xml" || name == "word/endnotes.xml" {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return !strings.Contains(base, "/") &&
		(strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer"))
}

// substitute rewrites the text runs of each paragraph of an XML part and
// reports whether anything was replaced.
func substitute(xmlText string, data map[string]string) (string, bool) {
	type edit struct {
		start, end int
		markup     string
	}
	var edits []edit
	for _, runs := range paragraphRuns(xmlText) {
		texts, ok := substituteRuns(runs, data)
		if !ok {
			continue
		}
		for i, run := range runs {
			edits = append(edits, edit{
				start:  run.start,
				end:    run.end,
				markup: preserveSpace(run.open) + escapeText(texts[i]) + textClose,
			})
		}
	}
	if len(edits) == 0 {
		return xmlText, false
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(xmlText[last:e.start])
		b.WriteString(e.markup)
		last = e.end
	}
	b.WriteString(xmlText[last:])
	return b.String(), true
}

// substituteRuns replaces tokens run by run first, so formatting is kept
// when a token sits inside one run. Tokens split across runs are resolved on
// the joined text, which is then placed in the first run.
func substituteRuns(runs []textRun, data map[string]string) ([]string, bool) {
	if len(runs) == 0 {
		return nil, false
	}
	texts := make([]string, len(runs))
	for i, run := range runs {
		texts[i] = replaceTokens(run.text, data)
	}

	original := joinText(runs)
	merged := replaceTokens(original, data)
	if merged == original {
		return nil, false
	}
	if strings.Join(texts, "") != merged {
		texts[0] = merged
		for i := 1; i < len(texts); i++ {
			texts[i] = ""
		}
	}
	return texts, true
}

func replaceTokens(text string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		if value, ok := data[token[1:len(token)-1]]; ok {
			return value
		}
		return token
	})
}

func joinText(runs []textRun) string {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.text)
	}
	return b.String()
}

// paragraphRuns walks the tags of an XML part and groups the <w:t> runs by
// their innermost enclosing <w:p>. Paragraphs nested in text boxes get their
// own group. Self-closing <w:t/> elements carry no text and are skipped.
func paragraphRuns(xmlText string) [][]textRun {
	var (
		paragraphs [][]textRun
		open       []int
	)
	for i := 0; i < len(xmlText); {
		lt := strings.IndexByte(xmlText[i:], '<')
		if lt < 0 {
			break
		}
		start := i + lt
		if strings.HasPrefix(xmlText[start:], "<!--") {
			end := strings.Index(xmlText[start:], "-->")
			if end < 0 {
				break
			}
			i = start + end + len("-->")
			continue
		}
		gt := strings.IndexByte(xmlText[start:], '>')
		if gt < 0 {
			break
		}
		end := start + gt + 1
		name, closing, selfClosing := parseTag(xmlText[start:end])
		i = end

		switch {
		case name == "w:p" && closing:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		case name == "w:p" && !selfClosing:
			paragraphs = append(paragraphs, nil)
			open = append(open, len(paragraphs)-1)
		case name == "w:t" && !closing && !selfClosing:
			closeAt := strings.Index(xmlText[end:], textClose)
			if closeAt < 0 {
				return paragraphs
			}
			run := textRun{
				open:  xmlText[start:end],
				start: start,
				end:   end + closeAt + len(textClose),
				text:  html.UnescapeString(xmlText[end : end+closeAt]),
			}
			if len(open) > 0 {
				top := open[len(open)-1]
				paragraphs[top] = append(paragraphs[top], run)
			}
			i = run.end
		}
	}
	return paragraphs
}

// parseTag splits a tag such as <w:t xml:space="preserve"/> into its name and
// closing or self-closing flags.
func parseTag(tag string) (name string, closing, selfClosing bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(tag, "<"), ">")
	if strings.HasPrefix(body, "/") {
		closing = true
		body = body[1:]
	}
	if strings.HasSuffix(body, "/") {
		selfClosing = true
		body = body[:len(body)-1]
	}
	name = body
	if cut := strings.IndexAny(body, " \t\r\n"); cut >= 0 {
		name = body[:cut]
	}
	return name, closing, selfClosing
}

// preserveSpace keeps leading and trailing blanks of substituted values.
func preserveSpace(openTag string) string {
	if strings.Contains(openTag, "xml:space") {
		return openTag
	}
	return strings.TrimSuffix(openTag, ">") + ` xml:space="preserve">`
}

func escapeText(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writeZipFile(writer *zip.Writer, source *zip.File, content []byte) error {
	header := source.FileHeader
	header.Name = normalizeZipName(source.Name)

	dst, err := writer.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
