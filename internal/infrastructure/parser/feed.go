package parser

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"regintel/internal/domain"
	"regintel/internal/ports"
)

var tagExpr = regexp.MustCompile(`<[^>]+>`)

// Feed parses RSS and Atom documents into raw items. Parsing is
// best-effort: malformed input yields fewer or zero items, never an error.
type Feed struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.FeedParser = (*Feed)(nil)

// NewFeed builds a parser handling both RSS and Atom.
func NewFeed(log *slog.Logger) *Feed {
	return &Feed{parser: gofeed.NewParser(), logger: log}
}

// ParseFeed extracts items in document order. Relative links are resolved
// against baseURL.
func (p *Feed) ParseFeed(content, baseURL string) []domain.RawItem {
	feed, err := p.parser.ParseString(content)
	if err != nil {
		if p.logger != nil {
			p.logger.Debug("feed parse failed", "base", baseURL, "error", err)
		}
		return nil
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}

		title := cleanText(entry.Title)
		link := resolveLink(baseURL, entry.Link)
		if title == "" || link == "" {
			continue
		}

		description := cleanText(entry.Description)
		if description == "" {
			description = cleanText(entry.Content)
		}

		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		items = append(items, domain.RawItem{
			Title:        title,
			Link:         link,
			Description:  description,
			PublishedRaw: published,
			GUID:         strings.TrimSpace(entry.GUID),
		})
	}

	return items
}

// cleanText strips markup and collapses whitespace.
func cleanText(s string) string {
	s = tagExpr.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveLink resolves ref against base; absolute refs pass through.
func resolveLink(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		return refURL.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}

	return baseURL.ResolveReference(refURL).String()
}
