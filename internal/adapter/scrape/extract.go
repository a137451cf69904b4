package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// minTableRows is the number of usable table rows below which the
// first-column fallback selectors are also consulted.
const minTableRows = 5

// fallbackSelectors locate bare topic titles when the trends table is
// virtualized or restructured.
var fallbackSelectors = []string{
	"tr[role='row'] td:first-child",
	"[role='row'] td:first-child",
	"table td:first-child",
	"a[href*='/trends/explore']",
}

// ExtractRows pulls topic rows out of the rendered trending page. Each table
// row after the header yields the first text line of its first three cells.
func ExtractRows(page string) ([]domain.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var rows []domain.Row
	doc.Find("[role='row']").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		var cols []string
		row.Find("td").EachWithBreak(func(j int, cell *goquery.Selection) bool {
			cols = append(cols, firstLine(cell))
			return j < 2
		})
		if len(cols) > 0 {
			rows = append(rows, domain.ColumnRow(cols...))
		}
	})

	if len(domain.Normalize(rows)) >= minTableRows {
		return rows, nil
	}
	for _, sel := range fallbackSelectors {
		doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			rows = append(rows, domain.Row{Title: firstLine(s)})
			return i < 2*domain.MaxTopics-1
		})
		if len(domain.Normalize(rows)) >= domain.MaxTopics {
			break
		}
	}
	return rows, nil
}

// firstLine returns the first non-blank text node under s. Trending table
// cells stack the title above secondary labels in sibling elements, so the
// first text node is the visible first line.
func firstLine(s *goquery.Selection) string {
	for _, n := range s.Nodes {
		if t := firstText(n); t != "" {
			return t
		}
	}
	return ""
}

func firstText(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		line, _, _ := strings.Cut(strings.TrimSpace(n.Data), "\n")
		return strings.TrimSpace(line)
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return ""
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c); t != "" {
			return t
		}
	}
	return ""
}
