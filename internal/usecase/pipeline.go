package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"regintel/internal/domain"
	"regintel/internal/ports"
	"regintel/internal/registry"
	"regintel/internal/rules"
)

const (
	maxErrorsReported = 10
	maxRecentItems    = 20
	defaultItemCap    = 15
)

// PipelineDeps wires all driven adapters into one poller pipeline.
type PipelineDeps struct {
	Rules      rules.RuleSet
	Registry   *registry.Registry
	Fetcher    ports.Fetcher
	FeedParser ports.FeedParser
	PageParser ports.PageParser
	Classifier ports.Classifier
	Records    ports.RecordStore
	RunLogs    ports.RunLogStore
	Progress   ports.ProgressStore
	Logger     *slog.Logger

	MaxItemsPerSource int
	ClassifyInterval  time.Duration
}

// Pipeline is the parameterized ingestion pipeline. One instance per poller
// domain; each Run is a sequential, non-resumable pass over the domain's
// registry entries.
type Pipeline struct {
	rules      rules.RuleSet
	registry   *registry.Registry
	fetcher    ports.Fetcher
	feedParser ports.FeedParser
	pageParser ports.PageParser
	classifier ports.Classifier
	records    ports.RecordStore
	runLogs    ports.RunLogStore
	progress   ports.ProgressStore
	logger     *slog.Logger

	itemCap int
	limiter *rate.Limiter
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	itemCap := deps.MaxItemsPerSource
	if itemCap <= 0 {
		itemCap = defaultItemCap
	}

	var limiter *rate.Limiter
	if deps.ClassifyInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(deps.ClassifyInterval), 1)
	}

	return &Pipeline{
		rules:      deps.Rules,
		registry:   deps.Registry,
		fetcher:    deps.Fetcher,
		feedParser: deps.FeedParser,
		pageParser: deps.PageParser,
		classifier: deps.Classifier,
		records:    deps.Records,
		runLogs:    deps.RunLogs,
		progress:   deps.Progress,
		logger:     deps.Logger,
		itemCap:    itemCap,
		limiter:    limiter,
	}
}

// Domain names the poller domain this pipeline serves.
func (p *Pipeline) Domain() string {
	return p.rules.Domain
}

// RunRequest narrows and tunes one invocation.
type RunRequest struct {
	StateCode  string
	FullScan   bool
	SessionID  string
	SourceName string
}

// runState accumulates counters across one invocation.
type runState struct {
	processed int
	newItems  int
	states    int
	errors    []string
	recent    []domain.RecentItem

	jurisdictions map[string]string
	seen          map[string]struct{}
	runLinks      map[string]struct{}
}

func (st *runState) addError(msg string) {
	st.errors = append(st.errors, msg)
}

func (st *runState) addRecent(item domain.RecentItem) {
	if len(st.recent) < maxRecentItems {
		st.recent = append(st.recent, item)
	}
}

// Run executes one poller invocation: per source fetch, parse, then per
// item classify and write. Individual failures are collected, never raised;
// the returned error is reserved for runs that could not start at all.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (domain.RunSummary, error) {
	startedAt := time.Now().UTC()
	entries := p.registry.Sources(p.rules.Domain, req.StateCode)

	jurisdictions, err := p.records.JurisdictionIDs(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("load jurisdictions: %w", err)
	}

	seen, err := p.records.SeenExternalIDs(ctx, p.rules.SourceTag)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("load seen ids: %w", err)
	}

	st := &runState{
		jurisdictions: jurisdictions,
		seen:          seen,
		runLinks:      map[string]struct{}{},
	}

	p.info("run started",
		"domain", p.rules.Domain,
		"sources", len(entries),
		"state", req.StateCode,
		"fullScan", req.FullScan,
		"knownIds", len(seen))

	for i, entry := range entries {
		p.processEntry(ctx, entry, req, st)
		st.states++
		p.reportProgress(ctx, req, st, i+1, len(entries))
	}

	status := runStatus(st)
	p.logRun(ctx, st, status, startedAt)

	p.info("run finished",
		"domain", p.rules.Domain,
		"status", status,
		"processed", st.processed,
		"new", st.newItems,
		"errors", len(st.errors))

	return domain.RunSummary{
		Success:          status != domain.RunStatusError,
		Status:           status,
		RecordsProcessed: st.processed,
		NewItemsFound:    st.newItems,
		Errors:           capStrings(st.errors, maxErrorsReported),
		RecentItems:      st.recent,
	}, nil
}

func (p *Pipeline) processEntry(ctx context.Context, entry registry.SourceEntry, req RunRequest, st *runState) {
	for _, feedURL := range entry.Feeds {
		body, err := p.fetcher.Fetch(ctx, feedURL)
		if err != nil {
			st.addError(fmt.Sprintf("%s %s: %v", entry.Jurisdiction, feedURL, err))
			continue
		}

		items := capItems(p.feedParser.ParseFeed(body, feedURL), p.itemCap)
		for _, item := range items {
			p.processItem(ctx, entry, item, domain.SourceTypeRSS, feedURL, req, st)
		}
	}

	for _, pageURL := range entry.Pages {
		body, err := p.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			st.addError(fmt.Sprintf("%s %s: %v", entry.Jurisdiction, pageURL, err))
			continue
		}

		items := capItems(p.pageParser.ParsePage(body, pageURL), p.itemCap)
		for _, item := range items {
			p.processItem(ctx, entry, item, domain.SourceTypePage, pageURL, req, st)
		}
	}
}

func (p *Pipeline) processItem(ctx context.Context, entry registry.SourceEntry, item domain.RawItem,
	sourceType domain.SourceType, sourceURL string, req RunRequest, st *runState) {

	st.processed++

	jurisdictionID, ok := st.jurisdictions[entry.Jurisdiction]
	if !ok {
		// Never write a record with a dangling jurisdiction reference.
		p.debug("skipping unmapped jurisdiction", "code", entry.Jurisdiction, "link", item.Link)
		return
	}

	// The same article may surface in both a feed and a news page within
	// one run; only the first occurrence is written.
	if _, dup := st.runLinks[item.Link]; dup {
		return
	}

	externalID := domain.ExternalID(entry.Jurisdiction, sourceType, item.Key())
	_, known := st.seen[externalID]
	isNew := !known

	if known && !req.FullScan {
		st.runLinks[item.Link] = struct{}{}
		return
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			st.addError(fmt.Sprintf("%s %s: %v", entry.Jurisdiction, item.Link, err))
			return
		}
	}

	cls := p.classifier.Classify(ctx, ports.ClassifyInput{
		Title:        item.Title,
		Description:  item.Description,
		AgencyName:   entry.Agency,
		Jurisdiction: entry.Jurisdiction,
	})

	rec := domain.ContentRecord{
		ExternalID:     externalID,
		Title:          item.Title,
		Description:    item.Description,
		EffectiveDate:  parseDate(item.PublishedRaw),
		JurisdictionID: jurisdictionID,
		Source:         p.rules.SourceTag,
		URL:            item.Link,
		Category:       cls.Category,
		SubCategory:    cls.SubCategory,
		Metadata: domain.RecordMetadata{
			Classification: cls,
			AgencyName:     entry.Agency,
			SourceType:     sourceType,
			SourceURL:      sourceURL,
			AnalyzedAt:     time.Now().UTC(),
		},
	}

	if err := p.records.UpsertRecord(ctx, rec); err != nil {
		st.addError(fmt.Sprintf("%s %s: %v", entry.Jurisdiction, item.Link, err))
		return
	}

	st.runLinks[item.Link] = struct{}{}
	if isNew {
		st.newItems++
		st.seen[externalID] = struct{}{}
	}

	st.addRecent(domain.RecentItem{
		State:   entry.Jurisdiction,
		Title:   item.Title,
		Type:    string(cls.DocumentType),
		Urgency: string(cls.Urgency),
		IsNew:   isNew,
		Link:    item.Link,
	})
}

func (p *Pipeline) reportProgress(ctx context.Context, req RunRequest, st *runState, done, total int) {
	if p.progress == nil || req.SessionID == "" || req.SourceName == "" {
		return
	}

	err := p.progress.UpsertProgress(ctx, domain.Progress{
		SessionID:   req.SessionID,
		SourceName:  req.SourceName,
		StatesDone:  done,
		StatesTotal: total,
		ItemsFound:  st.newItems,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		p.debug("progress report failed", "error", err)
	}
}

func (p *Pipeline) logRun(ctx context.Context, st *runState, status domain.RunStatus, startedAt time.Time) {
	if p.runLogs == nil {
		return
	}

	err := p.runLogs.InsertRunLog(ctx, domain.RunLog{
		ID:             uuid.NewString(),
		Source:         p.rules.SourceTag,
		Status:         status,
		RecordsFetched: st.processed,
		NewItemsFound:  st.newItems,
		StatesDone:     st.states,
		Errors:         capStrings(st.errors, maxErrorsReported),
		RecentItems:    st.recent,
		StartedAt:      startedAt,
		FinishedAt:     time.Now().UTC(),
	})
	if err != nil {
		p.debug("run log insert failed", "error", err)
	}
}

func runStatus(st *runState) domain.RunStatus {
	switch {
	case len(st.errors) == 0:
		return domain.RunStatusSuccess
	case st.processed > 0:
		return domain.RunStatusPartial
	default:
		return domain.RunStatusError
	}
}

func capItems(items []domain.RawItem, limit int) []domain.RawItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func capStrings(values []string, limit int) []string {
	if values == nil {
		return []string{}
	}
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"1/2/2006",
	"01/02/2006",
}

// parseDate tries the date formats agencies actually publish; unparseable
// input yields the zero time, persisted as NULL.
func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
