package services

import (
	"errors"
	"testing"
	"time"

	"classtrack_go/models"

	mysqldriver "github.com/go-sql-driver/mysql"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{name: "pending to approved", from: models.SubstitutionPending, to: models.SubstitutionApproved, allowed: true},
		{name: "pending to cancelled", from: models.SubstitutionPending, to: models.SubstitutionCancelled, allowed: true},
		{name: "pending straight to completed", from: models.SubstitutionPending, to: models.SubstitutionCompleted, allowed: false},
		{name: "approved to completed", from: models.SubstitutionApproved, to: models.SubstitutionCompleted, allowed: true},
		{name: "approved to cancelled", from: models.SubstitutionApproved, to: models.SubstitutionCancelled, allowed: true},
		{name: "approved back to pending", from: models.SubstitutionApproved, to: models.SubstitutionPending, allowed: false},
		{name: "completed is terminal", from: models.SubstitutionCompleted, to: models.SubstitutionCancelled, allowed: false},
		{name: "cancelled is terminal", from: models.SubstitutionCancelled, to: models.SubstitutionApproved, allowed: false},
		{name: "self transition", from: models.SubstitutionPending, to: models.SubstitutionPending, allowed: false},
		{name: "unknown source", from: "limbo", to: models.SubstitutionApproved, allowed: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := canTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("canTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestActiveKey(t *testing.T) {
	date := time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC)
	key := activeKey(7, 3, date, "09:00", "10:00")
	if key != "7:3:2026-09-03:09:00-10:00" {
		t.Fatalf("unexpected active key %q", key)
	}

	// The key pins the slot identity: any differing component yields a
	// different key.
	variants := []string{
		activeKey(8, 3, date, "09:00", "10:00"),
		activeKey(7, 4, date, "09:00", "10:00"),
		activeKey(7, 3, date.AddDate(0, 0, 1), "09:00", "10:00"),
		activeKey(7, 3, date, "10:00", "11:00"),
	}
	for _, v := range variants {
		if v == key {
			t.Fatalf("distinct slots produced identical key %q", v)
		}
	}
}

func TestSubstitutionIsTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		models.SubstitutionPending:   false,
		models.SubstitutionApproved:  false,
		models.SubstitutionCompleted: true,
		models.SubstitutionCancelled: true,
	} {
		r := models.SubstitutionRequest{Status: status}
		if r.IsTerminal() != terminal {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, r.IsTerminal(), terminal)
		}
	}
}

func slotFor(teacherID uint, start, end string) models.TimeSlot {
	return models.TimeSlot{StartTime: start, EndTime: end, TeacherID: &teacherID}
}

func TestSlotsConflict(t *testing.T) {
	teacherA, teacherB := uint(1), uint(2)

	slots := []models.TimeSlot{
		slotFor(teacherA, "09:00", "10:00"),
		slotFor(teacherB, "10:00", "11:00"),
		{StartTime: "11:00", EndTime: "11:15", IsBreak: true, TeacherID: &teacherA},
		{StartTime: "11:15", EndTime: "12:15"}, // unassigned slot
	}

	tests := []struct {
		name      string
		teacherID uint
		start     string
		end       string
		expected  bool
	}{
		{name: "overlapping own class", teacherID: teacherA, start: "09:30", end: "10:30", expected: true},
		{name: "adjacent to own class", teacherID: teacherA, start: "10:00", end: "11:00", expected: false},
		{name: "other teacher's class", teacherID: teacherA, start: "10:15", end: "10:45", expected: false},
		{name: "break slots never conflict", teacherID: teacherA, start: "11:00", end: "11:15", expected: false},
		{name: "unassigned slots never conflict", teacherID: teacherA, start: "11:30", end: "12:00", expected: false},
		{name: "second teacher's window", teacherID: teacherB, start: "10:30", end: "11:30", expected: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := slotsConflict(slots, tc.teacherID, tc.start, tc.end); got != tc.expected {
				t.Fatalf("slotsConflict(teacher %d, %s-%s) = %v, want %v",
					tc.teacherID, tc.start, tc.end, got, tc.expected)
			}
		})
	}
}

func TestScanSchedules(t *testing.T) {
	teacherA := uint(1)
	schedules := []models.DaySchedule{
		{Weekday: "Monday", Slots: []models.TimeSlot{slotFor(teacherA, "09:00", "10:00")}},
		{Weekday: "Monday", Slots: []models.TimeSlot{slotFor(teacherA, "14:00", "15:00")}},
	}

	if !scanSchedules(schedules, teacherA, "14:30", "15:30") {
		t.Fatalf("expected conflict in the second schedule to be found")
	}
	if scanSchedules(schedules, teacherA, "11:00", "12:00") {
		t.Fatalf("expected the free window to scan clean")
	}
	if scanSchedules(nil, teacherA, "09:00", "10:00") {
		t.Fatalf("empty schedule set cannot conflict")
	}
}

func TestFilterConflictFree(t *testing.T) {
	mathsSubject := models.Subject{Name: "Discrete Maths"}
	candidates := []models.Teacher{
		{BaseModel: models.BaseModel{ID: 1}, Name: "Zoya Khan", Email: "zoya@college.test"},
		{BaseModel: models.BaseModel{ID: 2}, Name: "Arjun Pillai", Email: "arjun@college.test", Subjects: []models.Subject{mathsSubject}},
		{BaseModel: models.BaseModel{ID: 3}, Name: "Meera Das", Email: "meera@college.test"},
		{BaseModel: models.BaseModel{ID: 4}, Name: "Requesting Teacher"},
	}
	busy := uint(3)
	schedules := []models.DaySchedule{
		{Weekday: "Tuesday", Slots: []models.TimeSlot{slotFor(busy, "09:00", "10:00")}},
	}

	eligible := filterConflictFree(candidates, schedules, 4, "09:00", "10:00")

	// Teacher 3 is committed, teacher 4 is the requester; the rest come
	// back sorted by name.
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible candidates, got %d: %+v", len(eligible), eligible)
	}
	if eligible[0].TeacherID != 2 || eligible[1].TeacherID != 1 {
		t.Fatalf("candidates not in name order: %+v", eligible)
	}
	if len(eligible[0].Subjects) != 1 || eligible[0].Subjects[0] != "Discrete Maths" {
		t.Fatalf("subject names not carried through: %+v", eligible[0])
	}
}

func TestFilterConflictFreeEmptyResult(t *testing.T) {
	teacherA := uint(1)
	candidates := []models.Teacher{{BaseModel: models.BaseModel{ID: teacherA}, Name: "Zoya Khan"}}
	schedules := []models.DaySchedule{
		{Slots: []models.TimeSlot{slotFor(teacherA, "09:00", "10:00")}},
	}

	eligible := filterConflictFree(candidates, schedules, 99, "09:30", "10:30")
	if len(eligible) != 0 {
		t.Fatalf("expected no eligible candidates, got %+v", eligible)
	}
}

func TestSubstitutionActorAuthorization(t *testing.T) {
	request := &models.SubstitutionRequest{
		OriginalTeacherID:   1,
		SubstituteTeacherID: 2,
		Status:              models.SubstitutionPending,
	}

	tests := []struct {
		name      string
		check     func() error
		forbidden bool
	}{
		{name: "original teacher cancels own request", check: func() error { return originalMayCancel(request, 1) }},
		{name: "substitute teacher cannot cancel", check: func() error { return originalMayCancel(request, 2) }, forbidden: true},
		{name: "unrelated teacher cannot cancel", check: func() error { return originalMayCancel(request, 9) }, forbidden: true},
		{name: "substitute teacher updates status", check: func() error { return substituteMayAct(request, 2) }},
		{name: "original teacher cannot update status", check: func() error { return substituteMayAct(request, 1) }, forbidden: true},
		{name: "unrelated teacher cannot update status", check: func() error { return substituteMayAct(request, 9) }, forbidden: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.check()
			if tc.forbidden {
				if !errors.Is(err, ErrForbidden) {
					t.Fatalf("expected ErrForbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDuplicateActiveSlotConflict(t *testing.T) {
	// Two requests for the same teacher, batch, date and window collide
	// on the unique active key.
	date := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	first := activeKey(7, 3, date, "09:00", "10:00")
	second := activeKey(7, 3, date, "09:00", "10:00")
	if first != second {
		t.Fatalf("same slot produced different active keys: %q vs %q", first, second)
	}

	if err := errDuplicateActiveSlot(); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "mysql duplicate entry", err: &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: true},
		{name: "other mysql error", err: &mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found"}, want: false},
		{name: "unrelated error", err: errors.New("connection reset"), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := isDuplicateKey(tc.err); got != tc.want {
				t.Fatalf("isDuplicateKey(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
