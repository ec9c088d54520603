package fileingest

import (
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

var ignoredHTMLTags = map[string]bool{
	"script": true, "style": true, "head": true, "noscript": true, "template": true,
}

// looksLikeHTML decides whether a ticket body should be reduced to text.
func looksLikeHTML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// htmlToText returns the visible text of an HTML document, one block per line.
func htmlToText(body string) (string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && ignoredHTMLTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
		if isBlockElement(n) && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}
	traverse(doc)
	return strings.TrimSpace(b.String()), nil
}

func isBlockElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "address", "article", "aside", "blockquote", "dd", "div", "dl", "dt", "fieldset", "figcaption", "figure",
		"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6", "header", "hr", "li", "main", "nav", "ol", "p",
		"pre", "section", "table", "tr", "ul":
		return true
	default:
		return false
	}
}
