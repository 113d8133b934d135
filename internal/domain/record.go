package domain

import (
	"encoding/base64"
	"fmt"
	"time"
)

// SourceType tags where a raw item came from within one source entry.
type SourceType string

const (
	SourceTypeRSS  SourceType = "rss"
	SourceTypePage SourceType = "news_page"
)

// RawItem is a candidate article extracted from a feed or a news page.
// It lives only for the duration of one poller run.
type RawItem struct {
	Title        string
	Link         string
	Description  string
	PublishedRaw string
	GUID         string
}

// Key returns the stable identity of the item: the guid when the
// source provides one, the link otherwise.
func (r RawItem) Key() string {
	if r.GUID != "" {
		return r.GUID
	}
	return r.Link
}

const externalIDMaxLen = 100

// ExternalID derives the dedup key for an item. The same logical article
// maps to the same id across runs, so upserts keyed on it are idempotent.
func ExternalID(jurisdiction string, sourceType SourceType, guidOrLink string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(guidOrLink))
	id := fmt.Sprintf("%s-%s-%s", jurisdiction, sourceType, encoded)
	if len(id) > externalIDMaxLen {
		id = id[:externalIDMaxLen]
	}
	return id
}

// ContentRecord is the persisted normalized unit of regulatory content,
// one row in the shared instrument table.
type ContentRecord struct {
	ExternalID     string
	Title          string
	Description    string
	EffectiveDate  time.Time
	JurisdictionID string
	Source         string
	URL            string
	Category       string
	SubCategory    string
	Metadata       RecordMetadata
}

// RecordMetadata is the provenance blob stored alongside each record.
type RecordMetadata struct {
	Classification Classification `json:"classification"`
	AgencyName     string         `json:"agencyName"`
	SourceType     SourceType     `json:"sourceType"`
	SourceURL      string         `json:"sourceUrl"`
	AnalyzedAt     time.Time      `json:"analyzedAt"`
}

// RunStatus summarizes how a poller invocation went.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusError   RunStatus = "error"
)

// RunLog is the append-only record of one poller invocation.
type RunLog struct {
	ID             string
	Source         string
	Status         RunStatus
	RecordsFetched int
	NewItemsFound  int
	StatesDone     int
	Errors         []string
	RecentItems    []RecentItem
	StartedAt      time.Time
	FinishedAt     time.Time
}

// RecentItem is a sample entry surfaced in run logs and trigger responses.
type RecentItem struct {
	State   string `json:"state"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Urgency string `json:"urgency"`
	IsNew   bool   `json:"isNew"`
	Link    string `json:"link"`
}

// RunSummary is the structured result returned to the trigger caller.
type RunSummary struct {
	Success          bool         `json:"success"`
	Status           RunStatus    `json:"status"`
	RecordsProcessed int          `json:"recordsProcessed"`
	NewItemsFound    int          `json:"newItemsFound"`
	Errors           []string     `json:"errors"`
	RecentItems      []RecentItem `json:"recentItems"`
}

// Progress reports incremental state of a long population job.
type Progress struct {
	SessionID   string
	SourceName  string
	StatesDone  int
	StatesTotal int
	ItemsFound  int
	UpdatedAt   time.Time
}
