package htmlutil

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText returns the selection's text with non-printable characters
// removed and surrounding whitespace trimmed.
func CleanText(sel *goquery.Selection) string {
	text := removeNonPrintable(sel.Text())
	return strings.Trim(text, " \t\n")
}

// FirstAttr returns the first non-empty value of attr among the
// selection's nodes.
func FirstAttr(sel *goquery.Selection, attr string) string {
	value := ""
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attr)
		if ok && v != "" {
			value = v
			return false
		}
		return true
	})
	return value
}
