package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"regintel/internal/domain"
)

func sampleRecord() domain.ContentRecord {
	return domain.ContentRecord{
		ExternalID:     "VT-rss-abc123",
		Title:          "Emergency Rule Adopted",
		Description:    "Potency testing rule.",
		EffectiveDate:  time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		JurisdictionID: "jur-vt",
		Source:         "cannabis_hemp_poller",
		URL:            "https://ccb.vermont.gov/news/emergency-rule",
		Category:       "cannabis",
		SubCategory:    "adult_use",
		Metadata: domain.RecordMetadata{
			AgencyName: "Cannabis Control Board",
			SourceType: domain.SourceTypeRSS,
			SourceURL:  "https://ccb.vermont.gov/rss.xml",
			AnalyzedAt: time.Date(2026, time.August, 3, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestUpsertRecordQuery(t *testing.T) {
	t.Parallel()

	query, args, err := upsertRecordQuery(sampleRecord())
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	if !strings.Contains(query, "INSERT INTO instrument") {
		t.Fatalf("unexpected query: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (external_id) DO UPDATE") {
		t.Fatalf("upsert suffix missing: %s", query)
	}
	if !strings.Contains(query, "$10") {
		t.Fatalf("expected dollar placeholders: %s", query)
	}
	if len(args) != 10 {
		t.Fatalf("expected 10 args, got %d", len(args))
	}
	if args[0] != "VT-rss-abc123" {
		t.Fatalf("external id not first arg: %v", args[0])
	}
}

func TestUpsertRecordQueryMetadataJSON(t *testing.T) {
	t.Parallel()

	_, args, err := upsertRecordQuery(sampleRecord())
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	raw, ok := args[len(args)-1].([]byte)
	if !ok {
		t.Fatalf("metadata arg is %T, want []byte", args[len(args)-1])
	}

	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["agencyName"] != "Cannabis Control Board" {
		t.Fatalf("agency missing from metadata: %v", meta)
	}
	if meta["sourceType"] != "rss" {
		t.Fatalf("source type missing from metadata: %v", meta)
	}
	if _, ok := meta["analyzedAt"]; !ok {
		t.Fatalf("analyzedAt missing from metadata: %v", meta)
	}
}

func TestUpsertRecordQueryNullEffectiveDate(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	rec.EffectiveDate = time.Time{}

	_, args, err := upsertRecordQuery(rec)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	// effective_date is the fourth column.
	if args[3] != nil {
		t.Fatalf("zero date should bind NULL, got %v", args[3])
	}
}
