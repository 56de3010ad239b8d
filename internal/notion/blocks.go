package notion

import (
	"strings"

	"golang.org/x/net/html"
)

// maxTextLength is the API limit for a single rich text run
const maxTextLength = 2000

// ParagraphBlocks converts plain text into paragraph blocks. Blank lines separate
// paragraphs and long paragraphs are split into runs the API accepts.
func ParagraphBlocks(content string) []map[string]any {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var blocks []map[string]any
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.Trim(para, "\n")
		if strings.TrimSpace(para) == "" {
			continue
		}
		for _, chunk := range chunkRunes(para, maxTextLength) {
			blocks = append(blocks, map[string]any{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]any{
					"rich_text": []map[string]any{{
						"type": "text",
						"text": map[string]string{"content": chunk},
					}},
				},
			})
		}
	}
	return blocks
}

func chunkRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// LooksLikeHTML reports whether content is most likely an HTML fragment
func LooksLikeHTML(content string) bool {
	t := strings.TrimSpace(content)
	return strings.HasPrefix(t, "<") && strings.Contains(t, "</")
}

// HTMLToText flattens an HTML fragment into plain text paragraphs
func HTMLToText(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	pendingSpace := false
	atBoundary := func() bool {
		out := b.String()
		return out == "" || strings.HasSuffix(out, "\n") || strings.HasSuffix(out, " ")
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text := strings.Join(strings.Fields(n.Data), " ")
			if text == "" {
				pendingSpace = pendingSpace || n.Data != ""
				return
			}
			if (pendingSpace || startsWithSpace(n.Data)) && !atBoundary() {
				b.WriteByte(' ')
			}
			b.WriteString(text)
			pendingSpace = endsWithSpace(n.Data)
			return
		case html.ElementNode:
			switch strings.ToLower(n.Data) {
			case "head", "style", "script", "title", "meta", "link":
				return
			case "br":
				b.WriteByte('\n')
				return
			case "li":
				b.WriteString("\n- ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "p", "div", "section", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "blockquote", "pre", "tr", "table":
				b.WriteString("\n\n")
			}
		}
	}
	visit(doc)

	return collapseBlankLines(b.String()), nil
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\n\r") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\n\r") != s
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// PlainText returns content unchanged unless it is HTML, in which case it is flattened
func PlainText(content string) string {
	if !LooksLikeHTML(content) {
		return content
	}
	text, err := HTMLToText(content)
	if err != nil {
		return content
	}
	return text
}
