package qrcatalog

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Code used on a label when the product page has no table cell to read it from.
const DefaultFallbackCode = "ITAU-CODIGO"

// ScrapedPage holds the two fields a label needs from a product page.
type ScrapedPage struct {
	// Text of the first cell of the first table row that has one
	Code string
	// Markup of the first <svg> element, empty if the page has none
	SVG string
}

// ScrapePage reads the code and QR markup from a product page. Missing fields
// degrade to fallbackCode and an empty SVG, it never fails.
func ScrapePage(r io.Reader, fallbackCode string) ScrapedPage {
	page := ScrapedPage{Code: fallbackCode}

	doc, err := html.Parse(r)
	if err != nil {
		return page
	}

	if code := findFirstRowCell(doc); code != "" {
		page.Code = code
	}

	if svg := findElement(doc, "svg"); svg != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, svg); err == nil {
			page.SVG = buf.String()
		}
	}

	return page
}

// findFirstRowCell walks the rows in document order and returns the text of
// the first one whose leading cell is a non-empty <td>.
func findFirstRowCell(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "tr" {
		if td := firstElementChild(n); td != nil && td.Data == "td" {
			if text := getTextContent(td); text != "" {
				return text
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := findFirstRowCell(c); text != "" {
			return text
		}
	}
	return ""
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func findElement(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findElement(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

// getTextContent extracts all text content from a node and its descendants.
func getTextContent(n *html.Node) string {
	var result strings.Builder
	getTextContentRecursive(n, &result)
	return strings.TrimSpace(result.String())
}

func getTextContentRecursive(n *html.Node, result *strings.Builder) {
	if n.Type == html.TextNode {
		result.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		getTextContentRecursive(c, result)
	}
}
