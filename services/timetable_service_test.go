package services

import (
	"errors"
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   string
		aEnd     string
		bStart   string
		bEnd     string
		expected bool
	}{
		{
			name:   "back to back slots do not overlap",
			aStart: "09:00", aEnd: "10:00",
			bStart: "10:00", bEnd: "11:00",
			expected: false,
		},
		{
			name:   "partial overlap",
			aStart: "09:00", aEnd: "10:30",
			bStart: "10:00", bEnd: "11:00",
			expected: true,
		},
		{
			name:   "identical windows",
			aStart: "09:00", aEnd: "10:00",
			bStart: "09:00", bEnd: "10:00",
			expected: true,
		},
		{
			name:   "containment",
			aStart: "09:00", aEnd: "12:00",
			bStart: "10:00", bEnd: "11:00",
			expected: true,
		},
		{
			name:   "disjoint windows",
			aStart: "08:00", aEnd: "09:00",
			bStart: "13:00", bEnd: "14:00",
			expected: false,
		},
		{
			name:   "shared start",
			aStart: "09:00", aEnd: "09:30",
			bStart: "09:00", bEnd: "11:00",
			expected: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			if got != tc.expected {
				t.Fatalf("Overlaps(%s-%s, %s-%s) = %v, want %v",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.expected)
			}
			// Overlap is commutative.
			if swapped := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); swapped != got {
				t.Fatalf("Overlaps is not symmetric: %v vs %v", got, swapped)
			}
		})
	}
}

func TestIsValidTimeOfDay(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"09:60", false},
		{"09:30:00", false},
		{"nine thirty", false},
		{"", false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			if got := IsValidTimeOfDay(tc.input); got != tc.expected {
				t.Fatalf("IsValidTimeOfDay(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestValidateTimeRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{name: "valid range", start: "09:00", end: "10:00", wantErr: false},
		{name: "end before start", start: "10:00", end: "09:00", wantErr: true},
		{name: "zero length", start: "09:00", end: "09:00", wantErr: true},
		{name: "bad start format", start: "9am", end: "10:00", wantErr: true},
		{name: "bad end format", start: "09:00", end: "25:00", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimeRange(tc.start, tc.end)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s-%s", tc.start, tc.end)
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestIsValidWeekday(t *testing.T) {
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"} {
		if !IsValidWeekday(day) {
			t.Fatalf("expected %s to be a valid teaching day", day)
		}
	}
	for _, day := range []string{"Sunday", "monday", "Mon", ""} {
		if IsValidWeekday(day) {
			t.Fatalf("expected %q to be rejected", day)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.March || d.Day() != 14 {
		t.Fatalf("parsed wrong date: %v", d)
	}

	for _, bad := range []string{"14-03-2026", "2026/03/14", "2026-03-14T00:00:00Z", "not a date"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", bad, err)
		}
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2026-08-29 is a Saturday.
	d, err := ParseDate("2026-08-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := WeekdayOf(d); got != "Saturday" {
		t.Fatalf("WeekdayOf = %q, want Saturday", got)
	}
}

func TestValidateSlots(t *testing.T) {
	subjectID := uint(1)
	teacherID := uint(2)

	tests := []struct {
		name    string
		slots   []SlotInput
		wantErr bool
	}{
		{
			name: "valid day",
			slots: []SlotInput{
				{StartTime: "09:00", EndTime: "10:00", SubjectID: &subjectID, TeacherID: &teacherID},
				{StartTime: "10:00", EndTime: "10:15", IsBreak: true},
				{StartTime: "10:15", EndTime: "11:15", SubjectID: &subjectID},
			},
			wantErr: false,
		},
		{
			name: "class slot without subject",
			slots: []SlotInput{
				{StartTime: "09:00", EndTime: "10:00", TeacherID: &teacherID},
			},
			wantErr: true,
		},
		{
			name: "break slot carrying a subject",
			slots: []SlotInput{
				{StartTime: "10:00", EndTime: "10:15", IsBreak: true, SubjectID: &subjectID},
			},
			wantErr: true,
		},
		{
			name: "overlapping class slots",
			slots: []SlotInput{
				{StartTime: "09:00", EndTime: "10:30", SubjectID: &subjectID},
				{StartTime: "10:00", EndTime: "11:00", SubjectID: &subjectID},
			},
			wantErr: true,
		},
		{
			name: "break overlapping a class is tolerated",
			slots: []SlotInput{
				{StartTime: "09:00", EndTime: "10:30", SubjectID: &subjectID},
				{StartTime: "10:00", EndTime: "10:15", IsBreak: true},
			},
			wantErr: false,
		},
		{
			name: "malformed time",
			slots: []SlotInput{
				{StartTime: "9:00", EndTime: "10:00", SubjectID: &subjectID},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := validateSlots(tc.slots)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
