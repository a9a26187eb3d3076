package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func archivedAt(ts string) ArchivedLog {
	created, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return ArchivedLog{Action: "login", Resource: "auth", CreatedAt: created}
}

func TestArchiveDateRange(t *testing.T) {
	tests := []struct {
		name      string
		rows      []ArchivedLog
		wantStart string
		wantEnd   string
	}{
		{
			name:      "single row",
			rows:      []ArchivedLog{archivedAt("2026-03-01T10:00:00Z")},
			wantStart: "2026-03-01T10:00:00Z",
			wantEnd:   "2026-03-01T10:00:00Z",
		},
		{
			name: "already chronological",
			rows: []ArchivedLog{
				archivedAt("2026-03-01T10:00:00Z"),
				archivedAt("2026-03-02T10:00:00Z"),
				archivedAt("2026-03-03T10:00:00Z"),
			},
			wantStart: "2026-03-01T10:00:00Z",
			wantEnd:   "2026-03-03T10:00:00Z",
		},
		{
			name: "unordered rows",
			rows: []ArchivedLog{
				archivedAt("2026-03-02T10:00:00Z"),
				archivedAt("2026-03-05T10:00:00Z"),
				archivedAt("2026-03-01T10:00:00Z"),
			},
			wantStart: "2026-03-01T10:00:00Z",
			wantEnd:   "2026-03-05T10:00:00Z",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			start, end := archiveDateRange(tc.rows)
			if start.Format(time.RFC3339) != tc.wantStart {
				t.Fatalf("start = %s, want %s", start.Format(time.RFC3339), tc.wantStart)
			}
			if end.Format(time.RFC3339) != tc.wantEnd {
				t.Fatalf("end = %s, want %s", end.Format(time.RFC3339), tc.wantEnd)
			}
		})
	}
}

func TestBuildArchiveZipMetadata(t *testing.T) {
	// The metadata date range must cover min to max even when the rows
	// arrive out of order.
	rows := []ArchivedLog{
		archivedAt("2026-04-10T08:00:00Z"),
		archivedAt("2026-04-01T08:00:00Z"),
		archivedAt("2026-04-20T08:00:00Z"),
	}

	buf, err := buildArchiveZip(rows, "activity_logs_2026-04-30.zip")
	if err != nil {
		t.Fatalf("buildArchiveZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}

	var members []string
	var meta struct {
		RecordCount int `json:"record_count"`
		DateRange   struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"date_range"`
	}
	for _, f := range zr.File {
		members = append(members, f.Name)
		if f.Name != "metadata.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening metadata.json: %v", err)
		}
		if err := json.NewDecoder(rc).Decode(&meta); err != nil {
			t.Fatalf("decoding metadata.json: %v", err)
		}
		rc.Close()
	}

	if len(members) != 3 {
		t.Fatalf("expected 3 archive members, got %v", members)
	}
	if meta.RecordCount != 3 {
		t.Fatalf("record_count = %d, want 3", meta.RecordCount)
	}
	if got := meta.DateRange.Start.UTC().Format(time.RFC3339); got != "2026-04-01T08:00:00Z" {
		t.Fatalf("date_range.start = %s, want 2026-04-01T08:00:00Z", got)
	}
	if got := meta.DateRange.End.UTC().Format(time.RFC3339); got != "2026-04-20T08:00:00Z" {
		t.Fatalf("date_range.end = %s, want 2026-04-20T08:00:00Z", got)
	}
}
