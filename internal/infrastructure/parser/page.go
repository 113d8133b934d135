package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"regintel/internal/domain"
	"regintel/internal/ports"
)

const (
	minTitleLen    = 8
	enoughBlocks   = 20
	maxDescription = 300
)

// blockSelectors are tried in order until enough candidate blocks are found.
// Arbitrary agency HTML has no common structure, so extraction is heuristic:
// missed items are acceptable, junk is bounded by the denylist and
// minimum-length filters.
var blockSelectors = []string{
	"article",
	"div.news-item, div.news-article, div.post, div.press-release, div.media-item, div.views-row, div.article-teaser",
	"li.news-item, li.article-item, li.post, li.views-row, ul.news-list > li, ol.news-list > li",
	"table tr",
}

var denyTitles = map[string]struct{}{
	"home": {}, "about": {}, "about us": {}, "contact": {}, "contact us": {},
	"menu": {}, "login": {}, "log in": {}, "sign in": {}, "sign up": {},
	"search": {}, "subscribe": {}, "privacy policy": {}, "terms of use": {},
	"sitemap": {}, "skip to content": {}, "read more": {}, "learn more": {},
	"news": {}, "events": {}, "careers": {}, "faq": {}, "back": {},
	"next": {}, "previous": {},
}

var (
	labeledDateExpr = regexp.MustCompile(`(?i)(?:posted|published|date)[:\s]+([A-Za-z]+\.? \d{1,2},? \d{4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`)
	bareDateExpr    = regexp.MustCompile(`[A-Z][a-z]+\.? \d{1,2}, \d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}`)
)

// Page scrapes candidate article blocks out of arbitrary agency HTML.
type Page struct {
	logger *slog.Logger
}

var _ ports.PageParser = (*Page)(nil)

// NewPage builds the heuristic HTML scraper.
func NewPage(log *slog.Logger) *Page {
	return &Page{logger: log}
}

// ParsePage extracts items from html, deduplicated by resolved link within
// this call. Malformed HTML yields fewer items, never an error.
func (p *Page) ParsePage(content, baseURL string) []domain.RawItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		if p.logger != nil {
			p.logger.Debug("page parse failed", "base", baseURL, "error", err)
		}
		return nil
	}

	var items []domain.RawItem
	seen := map[string]struct{}{}
	blocks := 0

	for _, selector := range blockSelectors {
		doc.Find(selector).Each(func(_ int, block *goquery.Selection) {
			blocks++
			item, ok := extractBlock(block, baseURL)
			if !ok {
				return
			}
			if _, dup := seen[item.Link]; dup {
				return
			}
			seen[item.Link] = struct{}{}
			items = append(items, item)
		})

		if blocks >= enoughBlocks {
			break
		}
	}

	return items
}

func extractBlock(block *goquery.Selection, baseURL string) (domain.RawItem, bool) {
	anchor := block.Find("a[href]").First()
	href, exists := anchor.Attr("href")
	if !exists {
		return domain.RawItem{}, false
	}

	link := resolveLink(baseURL, href)
	if link == "" || strings.HasPrefix(link, "javascript:") || strings.HasPrefix(link, "#") {
		return domain.RawItem{}, false
	}

	title := cleanText(anchor.Text())
	if len(title) < 5 {
		title = cleanText(block.Find("h1, h2, h3, h4").First().Text())
	}
	if !acceptableTitle(title) {
		return domain.RawItem{}, false
	}

	return domain.RawItem{
		Title:        title,
		Link:         link,
		Description:  blockDescription(block, title),
		PublishedRaw: blockDate(block),
	}, true
}

func acceptableTitle(title string) bool {
	if len(title) < minTitleLen {
		return false
	}
	_, denied := denyTitles[strings.ToLower(strings.TrimSpace(title))]
	return !denied
}

func blockDescription(block *goquery.Selection, title string) string {
	text := cleanText(block.Text())
	text = strings.TrimSpace(strings.TrimPrefix(text, title))
	if len(text) > maxDescription {
		text = text[:maxDescription]
	}
	return text
}

// blockDate extracts a best-effort publish date: explicit <time datetime>
// attributes first, then labeled "posted/published/date" text, then any
// bare date-like substring.
func blockDate(block *goquery.Selection) string {
	if dt, ok := block.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}

	text := block.Text()
	if m := labeledDateExpr.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	if m := bareDateExpr.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}

	return ""
}
