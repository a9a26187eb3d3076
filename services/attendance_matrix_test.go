package services

import (
	"fmt"
	"reflect"
	"testing"

	"classtrack_go/models"
)

func matrixStudent(id uint, name, roll string) models.Student {
	return models.Student{
		BaseModel:    models.BaseModel{ID: id},
		Name:         name,
		RollNumber:   roll,
		DepartmentID: 1,
		BatchID:      1,
	}
}

func matrixSession(subject string, records ...models.AttendanceRecord) models.AttendanceSession {
	return models.AttendanceSession{
		Subject: subject,
		BatchID: 1,
		Records: records,
	}
}

func mark(ref string, status string) models.AttendanceRecord {
	return models.AttendanceRecord{StudentRef: models.JSON(ref), Status: status}
}

func TestRoundPercent(t *testing.T) {
	tests := []struct {
		part     int
		whole    int
		expected int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{1, 8, 13},
		{3, 4, 75},
		{7, 7, 100},
		{0, 5, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(fmt.Sprintf("%d_of_%d", tc.part, tc.whole), func(t *testing.T) {
			if got := roundPercent(tc.part, tc.whole); got != tc.expected {
				t.Fatalf("roundPercent(%d, %d) = %d, want %d", tc.part, tc.whole, got, tc.expected)
			}
		})
	}
}

func TestBuildAttendanceMatrix(t *testing.T) {
	students := []models.Student{
		matrixStudent(1, "Anita Rao", "CSE-001"),
		matrixStudent(2, "Bhavesh Iyer", "CSE-002"),
	}
	sessions := []models.AttendanceSession{
		matrixSession("Data Structures",
			mark(`"1"`, models.AttendancePresent),
			mark(`"2"`, models.AttendanceAbsent),
		),
		matrixSession("Data Structures",
			mark(`{"_id": "1"}`, models.AttendancePresent),
			mark(`"2"`, models.AttendancePresent),
		),
		matrixSession("Operating Systems",
			mark(`"ObjectId('1')"`, models.AttendanceAbsent),
			mark(`"2"`, models.AttendancePresent),
		),
	}

	rows, subjects := BuildAttendanceMatrix(students, sessions)

	if !reflect.DeepEqual(subjects, []string{"Data Structures", "Operating Systems"}) {
		t.Fatalf("unexpected subject columns: %v", subjects)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	anita := rows[0]
	if anita.StudentID != 1 || anita.RollNumber != "CSE-001" {
		t.Fatalf("rows are not in student order: %+v", anita)
	}
	// Mixed reference encodings of student 1 must land in the same cell.
	ds := anita.PerSubject["Data Structures"]
	if ds.TotalClasses != 2 || ds.PresentClasses != 2 || ds.Percentage != 100 {
		t.Fatalf("unexpected Data Structures tally for student 1: %+v", ds)
	}
	os := anita.PerSubject["Operating Systems"]
	if os.TotalClasses != 1 || os.PresentClasses != 0 || os.Percentage != 0 {
		t.Fatalf("unexpected Operating Systems tally for student 1: %+v", os)
	}
	if anita.TotalClasses != 3 || anita.TotalPresent != 2 {
		t.Fatalf("unexpected totals for student 1: %+v", anita)
	}
	if anita.OverallPercentage != 67 {
		t.Fatalf("overall percentage = %d, want 67", anita.OverallPercentage)
	}

	bhavesh := rows[1]
	if bhavesh.TotalClasses != 3 || bhavesh.TotalPresent != 2 || bhavesh.OverallPercentage != 67 {
		t.Fatalf("unexpected totals for student 2: %+v", bhavesh)
	}
}

func TestBuildAttendanceMatrixConservation(t *testing.T) {
	students := []models.Student{
		matrixStudent(1, "Anita Rao", "CSE-001"),
		matrixStudent(2, "Bhavesh Iyer", "CSE-002"),
		matrixStudent(3, "Chitra Menon", "CSE-003"),
	}
	sessions := []models.AttendanceSession{
		matrixSession("Data Structures",
			mark(`"1"`, models.AttendancePresent),
			mark(`"2"`, models.AttendancePresent),
			mark(`"3"`, models.AttendanceAbsent),
		),
		matrixSession("Discrete Maths",
			mark(`"1"`, models.AttendanceAbsent),
			mark(`"3"`, models.AttendancePresent),
		),
	}

	rows, subjects := BuildAttendanceMatrix(students, sessions)

	// Row totals are the sum of the per-subject cells, never tracked
	// independently.
	for _, row := range rows {
		total, present := 0, 0
		for _, subject := range subjects {
			cell := row.PerSubject[subject]
			total += cell.TotalClasses
			present += cell.PresentClasses
		}
		if total != row.TotalClasses || present != row.TotalPresent {
			t.Fatalf("row %d totals diverge from cells: %+v", row.StudentID, row)
		}
		if row.OverallPercentage != roundPercent(present, total) {
			t.Fatalf("row %d overall percentage is not class-weighted", row.StudentID)
		}
	}
}

func TestBuildAttendanceMatrixIdempotent(t *testing.T) {
	students := []models.Student{
		matrixStudent(1, "Anita Rao", "CSE-001"),
		matrixStudent(2, "Bhavesh Iyer", "CSE-002"),
	}
	sessions := []models.AttendanceSession{
		matrixSession("Data Structures",
			mark(`"1"`, models.AttendancePresent),
			mark(`{"_id": "2"}`, models.AttendanceAbsent),
		),
		matrixSession("Operating Systems",
			mark(`"2"`, models.AttendancePresent),
		),
	}

	first, firstSubjects := BuildAttendanceMatrix(students, sessions)
	second, secondSubjects := BuildAttendanceMatrix(students, sessions)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("matrix differs between identical calls:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(firstSubjects, secondSubjects) {
		t.Fatalf("subject columns differ between identical calls")
	}
}

func TestBuildAttendanceMatrixUnresolvableRefs(t *testing.T) {
	students := []models.Student{matrixStudent(1, "Anita Rao", "CSE-001")}
	sessions := []models.AttendanceSession{
		matrixSession("Data Structures",
			mark(`"1"`, models.AttendancePresent),
			mark(`null`, models.AttendancePresent),
			mark(`{"name": "stray"}`, models.AttendanceAbsent),
		),
	}

	rows, _ := BuildAttendanceMatrix(students, sessions)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	cell := rows[0].PerSubject["Data Structures"]
	if cell.TotalClasses != 1 || cell.PresentClasses != 1 {
		t.Fatalf("unresolvable records leaked into the tally: %+v", cell)
	}
}

func TestBuildAttendanceMatrixNoSessions(t *testing.T) {
	students := []models.Student{matrixStudent(1, "Anita Rao", "CSE-001")}

	rows, subjects := BuildAttendanceMatrix(students, nil)
	if len(subjects) != 0 {
		t.Fatalf("expected no subject columns, got %v", subjects)
	}
	if len(rows) != 1 {
		t.Fatalf("students must appear even with no sessions, got %d rows", len(rows))
	}
	if rows[0].TotalClasses != 0 || rows[0].OverallPercentage != 0 {
		t.Fatalf("empty matrix row is not zeroed: %+v", rows[0])
	}
}

func TestBuildSubjectSummaries(t *testing.T) {
	sessions := []models.AttendanceSession{
		matrixSession("Operating Systems",
			mark(`"1"`, models.AttendancePresent),
			mark(`"2"`, models.AttendanceAbsent),
		),
		matrixSession("Data Structures",
			mark(`"1"`, models.AttendancePresent),
			// An unattributable record still counts in the summary.
			mark(`null`, models.AttendancePresent),
		),
		matrixSession("Data Structures",
			mark(`"1"`, models.AttendanceAbsent),
		),
	}

	summaries := BuildSubjectSummaries(sessions)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Subject != "Data Structures" || summaries[1].Subject != "Operating Systems" {
		t.Fatalf("summaries are not sorted by subject: %+v", summaries)
	}

	ds := summaries[0]
	if ds.SessionsHeld != 2 || ds.RecordsMarked != 3 || ds.PresentMarked != 2 {
		t.Fatalf("unexpected Data Structures summary: %+v", ds)
	}
	if ds.AttendanceRate != 67 {
		t.Fatalf("attendance rate = %d, want 67", ds.AttendanceRate)
	}
}
