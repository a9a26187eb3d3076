package controllers

import (
	"strings"
	"testing"
)

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"9:00", "09:00"},
		{"09:00", "09:00"},
		{" 9:30 ", "09:30"},
		{"13:45", "13:45"},
		{"", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			if got := normalizeClock(tc.input); got != tc.expected {
				t.Fatalf("normalizeClock(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeWeekday(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"monday", "Monday"},
		{"MONDAY", "Monday"},
		{"Tuesday", "Tuesday"},
		{" friday ", "Friday"},
		{"", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			if got := normalizeWeekday(tc.input); got != tc.expected {
				t.Fatalf("normalizeWeekday(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestBuildTimetableColumnIndex(t *testing.T) {
	header := []string{"Batch_Code", "Day", "Start_Time", "End_Time", "Subject_Code", "Teacher_Email", "Room_Number"}
	col := buildTimetableColumnIndex(header)

	for key, want := range map[string]int{
		"batch":      0,
		"weekday":    1,
		"start time": 2,
		"end time":   3,
		"subject":    4,
		"teacher":    5,
		"room":       6,
	} {
		got, ok := col[key]
		if !ok {
			t.Fatalf("canonical key %q not mapped", key)
		}
		if got != want {
			t.Fatalf("key %q mapped to column %d, want %d", key, got, want)
		}
	}
}

func TestParseTimetableRow(t *testing.T) {
	header := []string{"batch", "weekday", "start time", "end time", "subject", "teacher", "room"}
	col := buildTimetableColumnIndex(header)

	tests := []struct {
		name    string
		row     []string
		wantErr string
	}{
		{
			name: "valid row",
			row:  []string{"CSE-2024", "monday", "9:00", "10:00", "CS201", "zoya@college.test", "101"},
		},
		{
			name:    "missing batch",
			row:     []string{"", "monday", "09:00", "10:00", "CS201", "", ""},
			wantErr: "missing batch",
		},
		{
			name:    "sunday rejected",
			row:     []string{"CSE-2024", "sunday", "09:00", "10:00", "CS201", "", ""},
			wantErr: "invalid weekday",
		},
		{
			name:    "end before start",
			row:     []string{"CSE-2024", "monday", "10:00", "09:00", "CS201", "", ""},
			wantErr: "time range",
		},
		{
			name:    "missing subject",
			row:     []string{"CSE-2024", "monday", "09:00", "10:00", "", "", ""},
			wantErr: "missing subject",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseTimetableRow(tc.row, col, 2)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.Weekday != "Monday" || parsed.StartTime != "09:00" {
				t.Fatalf("row not normalized: %+v", parsed)
			}
		})
	}
}

func TestIsBreakSubject(t *testing.T) {
	for _, code := range []string{"BREAK", "break", "Lunch", " recess "} {
		if !isBreakSubject(code) {
			t.Fatalf("expected %q to be a break marker", code)
		}
	}
	for _, code := range []string{"CS201", "", "BREAKFAST"} {
		if isBreakSubject(code) {
			t.Fatalf("expected %q to be a real subject code", code)
		}
	}
}

func TestIsRowEmpty(t *testing.T) {
	if !isRowEmpty([]string{"", "  ", "\t"}) {
		t.Fatalf("whitespace-only row should be empty")
	}
	if isRowEmpty([]string{"", "CSE-2024"}) {
		t.Fatalf("row with data should not be empty")
	}
	if !isRowEmpty(nil) {
		t.Fatalf("nil row should be empty")
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := sanitizeFilename(`..\evil/timetable.xlsx`)
	if strings.Contains(got, "/") || strings.Contains(got, "\\") || strings.Contains(got, "..") {
		t.Fatalf("filename not sanitized: %q", got)
	}
}

func TestAppendUnique(t *testing.T) {
	out := appendUnique(nil, "CSE-2024")
	out = appendUnique(out, "cse-2024")
	out = appendUnique(out, "ECE-2024")
	out = appendUnique(out, "")
	if len(out) != 2 {
		t.Fatalf("expected 2 unique entries, got %v", out)
	}
}
