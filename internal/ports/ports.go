package ports

import (
	"context"
	"time"

	"regintel/internal/domain"
)

// Fetcher retrieves raw content from a source URL with internal retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FeedParser extracts candidate items from RSS/Atom XML.
type FeedParser interface {
	ParseFeed(content, baseURL string) []domain.RawItem
}

// PageParser extracts candidate items from arbitrary agency HTML.
type PageParser interface {
	ParsePage(content, baseURL string) []domain.RawItem
}

// ClassifyInput carries everything the classifier needs about one item.
type ClassifyInput struct {
	Title        string
	Description  string
	AgencyName   string
	Jurisdiction string
}

// Classifier assigns a Classification to an item. Implementations must be
// total: they always return a valid Classification, never an error.
type Classifier interface {
	Classify(ctx context.Context, in ClassifyInput) domain.Classification
}

// RecordStore persists content records and answers dedup queries.
type RecordStore interface {
	JurisdictionIDs(ctx context.Context) (map[string]string, error)
	SeenExternalIDs(ctx context.Context, sourceTag string) (map[string]struct{}, error)
	UpsertRecord(ctx context.Context, rec domain.ContentRecord) error
}

// RunLogStore appends one ingestion-run summary per invocation.
type RunLogStore interface {
	InsertRunLog(ctx context.Context, log domain.RunLog) error
}

// ProgressStore upserts live progress rows for long population jobs.
type ProgressStore interface {
	UpsertProgress(ctx context.Context, p domain.Progress) error
}

// Scheduler drives recurring pipeline runs.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
