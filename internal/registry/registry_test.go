package registry

import "testing"

const sampleRegistry = `
domains:
  cannabis_hemp:
    - jurisdiction: VT
      agency: "Cannabis Control Board"
      feeds:
        - "https://ccb.vermont.gov/rss.xml"
      pages:
        - "https://ccb.vermont.gov/news"
    - jurisdiction: CA
      agency: "Department of Cannabis Control"
      pages:
        - "https://cannabis.ca.gov/resources/news/"
  kratom:
    - jurisdiction: FL
      agency: "Department of Agriculture and Consumer Services"
      pages:
        - "https://www.fdacs.gov/News-Events/Press-Releases"
`

func TestParseRegistry(t *testing.T) {
	t.Parallel()

	reg, err := Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	entries := reg.Sources("cannabis_hemp", "")
	if len(entries) != 2 {
		t.Fatalf("expected 2 cannabis_hemp entries, got %d", len(entries))
	}
	if entries[0].Jurisdiction != "VT" || entries[0].Agency != "Cannabis Control Board" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if len(entries[0].Feeds) != 1 || len(entries[0].Pages) != 1 {
		t.Fatalf("unexpected VT endpoints: %+v", entries[0])
	}
}

func TestSourcesFiltersByState(t *testing.T) {
	t.Parallel()

	reg, err := Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	entries := reg.Sources("cannabis_hemp", "ca")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry for CA, got %d", len(entries))
	}
	if entries[0].Jurisdiction != "CA" {
		t.Fatalf("unexpected jurisdiction: %s", entries[0].Jurisdiction)
	}

	if got := reg.Sources("cannabis_hemp", "ZZ"); len(got) != 0 {
		t.Fatalf("expected no entries for unknown state, got %d", len(got))
	}
	if got := reg.Sources("nonexistent", ""); len(got) != 0 {
		t.Fatalf("expected no entries for unknown domain, got %d", len(got))
	}
}

func TestParseRejectsEmptyRegistry(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("domains: {}")); err == nil {
		t.Fatal("expected error for empty registry")
	}
	if _, err := Parse([]byte("{{not yaml")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadEmbeddedRegistry(t *testing.T) {
	t.Parallel()

	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	for _, name := range []string{"cannabis_hemp", "kratom", "kava", "caselaw"} {
		if len(reg.Sources(name, "")) == 0 {
			t.Fatalf("embedded registry has no %s sources", name)
		}
	}
}
