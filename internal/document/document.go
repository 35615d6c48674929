// Package document wraps a parsed HTML page and exposes the structural
// queries the rule engine needs.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Anchor is an <a> element.
type Anchor struct {
	Text    string
	Classes []string
	Role    string
	Href    string
}

// HeadLink is a <link> element.
type HeadLink struct {
	Rel  string
	Href string
	HTML string
}

// Image is an <img> element. HasAlt is false when the attribute is absent.
type Image struct {
	Alt    string
	HasAlt bool
}

// Script is a <script> element with its src attribute and inline body.
type Script struct {
	Src  string
	Text string
}

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse reads and parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses HTML held in a string.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// NormalizeText collapses whitespace runs to a single space and trims the ends.
// Every length or content comparison on page text goes through it.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title returns the normalized text of the first <title> element, or "".
func (d *Document) Title() string {
	return NormalizeText(d.doc.Find("title").First().Text())
}

// Meta returns the content attribute of the first <meta> whose name matches.
// found is false when no such tag exists.
func (d *Document) Meta(name string) (content string, found bool) {
	d.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(n), name) {
			return true
		}
		content, _ = s.Attr("content")
		found = true
		return false
	})
	return content, found
}

// HeadLinks returns every <link> element in document order.
func (d *Document) HeadLinks() []HeadLink {
	var links []HeadLink
	d.doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		html, _ := goquery.OuterHtml(s)
		links = append(links, HeadLink{Rel: rel, Href: href, HTML: html})
	})
	return links
}

// Headings returns the normalized text of every heading at the given level (1-6).
func (d *Document) Headings(level int) []string {
	var out []string
	d.doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, s *goquery.Selection) {
		out = append(out, NormalizeText(s.Text()))
	})
	return out
}

// Anchors returns every <a> element.
func (d *Document) Anchors() []Anchor {
	var out []Anchor
	d.doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		role, _ := s.Attr("role")
		href, _ := s.Attr("href")
		out = append(out, Anchor{
			Text:    s.Text(),
			Classes: strings.Fields(class),
			Role:    role,
			Href:    href,
		})
	})
	return out
}

// Images returns every <img> element.
func (d *Document) Images() []Image {
	var out []Image
	d.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt, ok := s.Attr("alt")
		out = append(out, Image{Alt: alt, HasAlt: ok})
	})
	return out
}

// Forms counts <form> elements.
func (d *Document) Forms() int {
	return d.doc.Find("form").Length()
}

// FormControls counts input, textarea and select elements.
func (d *Document) FormControls() int {
	return d.doc.Find("input, textarea, select").Length()
}

// Labels counts <label> elements.
func (d *Document) Labels() int {
	return d.doc.Find("label").Length()
}

// Scripts returns every <script> element.
func (d *Document) Scripts() []Script {
	var out []Script
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		out = append(out, Script{Src: src, Text: s.Text()})
	})
	return out
}

// BodyHTML returns the serialized <body> element including its own tags.
// When the page has no body the whole document is serialized.
func (d *Document) BodyHTML() string {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		html, _ := d.doc.Html()
		return html
	}
	html, err := goquery.OuterHtml(body)
	if err != nil {
		return ""
	}
	return html
}
