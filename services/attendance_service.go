package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"classtrack_go/database"
	"classtrack_go/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is the MySQL error number for a unique-key
// violation. Uniqueness of attendance slots and active substitutions is
// enforced by the storage layer, so this is the authoritative Conflict
// signal rather than a read-before-write check.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// RecordInput is one student's mark within a session being created.
type RecordInput struct {
	StudentRef json.RawMessage `json:"student_ref"`
	RollNumber string          `json:"roll_number"`
	Status     string          `json:"status"`
}

// SessionInput is a class attendance submission.
type SessionInput struct {
	Date      string        `json:"date"`
	Subject   string        `json:"subject"`
	BatchID   uint          `json:"batch_id"`
	ClassTime string        `json:"class_time"`
	Duration  int           `json:"duration"`
	Records   []RecordInput `json:"records"`
}

// MarkAttendance creates an attendance session for one class slot. A slot
// is unique per (date, subject, batch, class time); a second submission
// for the same slot fails with ErrConflict off the unique index. The
// subject name is the reporting grain but must correspond to a known
// subject of the batch's department, and both name and id are stored.
func MarkAttendance(in SessionInput, takenByTeacherID uint) (*models.AttendanceSession, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if !IsValidTimeOfDay(in.ClassTime) {
		return nil, fmt.Errorf("%w: class time must be in HH:MM 24-hour format", ErrInvalidInput)
	}
	if len(in.Records) == 0 {
		return nil, fmt.Errorf("%w: session needs at least one record", ErrInvalidInput)
	}
	for i, record := range in.Records {
		if record.Status != models.AttendancePresent && record.Status != models.AttendanceAbsent {
			return nil, fmt.Errorf("%w: record %d: status must be present or absent", ErrInvalidInput, i+1)
		}
	}

	var batch models.Batch
	if err := database.DB.First(&batch, in.BatchID).Error; err != nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, in.BatchID)
	}

	var subject models.Subject
	if err := database.DB.Where("name = ? AND department_id = ?", in.Subject, batch.DepartmentID).
		First(&subject).Error; err != nil {
		return nil, fmt.Errorf("%w: subject %q is not in the batch's department catalog", ErrNotFound, in.Subject)
	}

	session := models.AttendanceSession{
		ReferenceCode: uuid.NewString(),
		Date:          date,
		Subject:       subject.Name,
		SubjectID:     subject.ID,
		BatchID:       in.BatchID,
		ClassTime:     in.ClassTime,
		Duration:      in.Duration,
		TakenByID:     takenByTeacherID,
	}
	for _, record := range in.Records {
		session.Records = append(session.Records, models.AttendanceRecord{
			StudentRef: models.JSON(record.StudentRef),
			RollNumber: record.RollNumber,
			Status:     record.Status,
		})
	}

	if err := database.DB.Create(&session).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: attendance already marked for this class", ErrConflict)
		}
		return nil, err
	}
	return &session, nil
}

// ListSessions returns attendance sessions filtered by batch and an
// inclusive date range, newest first.
func ListSessions(batchID uint, from, to *time.Time) ([]models.AttendanceSession, error) {
	query := database.DB.Preload("Records").Preload("TakenBy").Order("date DESC, class_time DESC")
	if batchID != 0 {
		query = query.Where("batch_id = ?", batchID)
	}
	if from != nil {
		query = query.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		query = query.Where("date <= ?", to.Format("2006-01-02"))
	}

	var sessions []models.AttendanceSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// SubjectTally is one cell of the attendance matrix.
type SubjectTally struct {
	TotalClasses   int `json:"total_classes"`
	PresentClasses int `json:"present_classes"`
	Percentage     int `json:"percentage"`
}

// StudentMatrixRow is the per-student aggregate across all subjects seen
// in the session set. OverallPercentage is class-weighted: it comes from
// the summed totals, not from averaging per-subject percentages.
type StudentMatrixRow struct {
	StudentID         uint                    `json:"student_id"`
	Name              string                  `json:"name"`
	RollNumber        string                  `json:"roll_number"`
	DepartmentID      uint                    `json:"department_id"`
	BatchID           uint                    `json:"batch_id"`
	PerSubject        map[string]SubjectTally `json:"per_subject"`
	TotalClasses      int                     `json:"total_classes"`
	TotalPresent      int                     `json:"total_present"`
	OverallPercentage int                     `json:"overall_percentage"`
}

// roundPercent computes round-half-away-from-zero(100 * part / whole),
// or 0 when whole is 0. The same rounding is used for every percentage
// in the matrix.
func roundPercent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// BuildAttendanceMatrix folds attendance sessions into a per-student ×
// per-subject matrix. Columns are the distinct subject names observed in
// the session set, sorted lexicographically; a subject with no session in
// range never appears, and a renamed subject appears under its own name.
//
// Sessions are pre-indexed by resolved canonical student id, so the cost
// is O(students + sessions × records) instead of the naive triple scan;
// the output is identical. Records whose reference cannot be attributed
// to any student are silently omitted. Pure function of its inputs.
func BuildAttendanceMatrix(students []models.Student, sessions []models.AttendanceSession) ([]StudentMatrixRow, []string) {
	subjectSet := make(map[string]struct{})
	for _, session := range sessions {
		subjectSet[session.Subject] = struct{}{}
	}
	subjects := make([]string, 0, len(subjectSet))
	for name := range subjectSet {
		subjects = append(subjects, name)
	}
	sort.Strings(subjects)

	type tallyKey struct {
		student CanonicalID
		subject string
	}
	type tally struct {
		total   int
		present int
	}
	tallies := make(map[tallyKey]*tally)

	for _, session := range sessions {
		for _, record := range session.Records {
			id, ok := ResolveStudentRef(record.StudentRef)
			if !ok {
				continue
			}
			key := tallyKey{student: id, subject: session.Subject}
			cell := tallies[key]
			if cell == nil {
				cell = &tally{}
				tallies[key] = cell
			}
			cell.total++
			if record.Status == models.AttendancePresent {
				cell.present++
			}
		}
	}

	rows := make([]StudentMatrixRow, 0, len(students))
	for _, student := range students {
		row := StudentMatrixRow{
			StudentID:    student.ID,
			Name:         student.Name,
			RollNumber:   student.RollNumber,
			DepartmentID: student.DepartmentID,
			BatchID:      student.BatchID,
			PerSubject:   make(map[string]SubjectTally, len(subjects)),
		}
		studentID := CanonicalID(fmt.Sprintf("%d", student.ID))

		for _, subject := range subjects {
			cell := tallies[tallyKey{student: studentID, subject: subject}]
			entry := SubjectTally{}
			if cell != nil {
				entry.TotalClasses = cell.total
				entry.PresentClasses = cell.present
				entry.Percentage = roundPercent(cell.present, cell.total)
			}
			row.PerSubject[subject] = entry
			row.TotalClasses += entry.TotalClasses
			row.TotalPresent += entry.PresentClasses
		}
		row.OverallPercentage = roundPercent(row.TotalPresent, row.TotalClasses)
		rows = append(rows, row)
	}

	return rows, subjects
}

// SubjectSummary is a per-subject aggregate across all students in range.
type SubjectSummary struct {
	Subject        string `json:"subject"`
	SessionsHeld   int    `json:"sessions_held"`
	RecordsMarked  int    `json:"records_marked"`
	PresentMarked  int    `json:"present_marked"`
	AttendanceRate int    `json:"attendance_rate"`
}

// BuildSubjectSummaries aggregates sessions per subject name. Records
// with unattributable references still count here: the summary reports
// what was marked, not the student join.
func BuildSubjectSummaries(sessions []models.AttendanceSession) []SubjectSummary {
	index := make(map[string]*SubjectSummary)
	for _, session := range sessions {
		summary := index[session.Subject]
		if summary == nil {
			summary = &SubjectSummary{Subject: session.Subject}
			index[session.Subject] = summary
		}
		summary.SessionsHeld++
		for _, record := range session.Records {
			summary.RecordsMarked++
			if record.Status == models.AttendancePresent {
				summary.PresentMarked++
			}
		}
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SubjectSummary, 0, len(names))
	for _, name := range names {
		summary := index[name]
		summary.AttendanceRate = roundPercent(summary.PresentMarked, summary.RecordsMarked)
		out = append(out, *summary)
	}
	return out
}

// AttendanceMatrixReport loads students (filtered by department/batch)
// and sessions in the date range, and builds the matrix plus per-subject
// summaries.
func AttendanceMatrixReport(departmentID, batchID uint, from, to *time.Time) ([]StudentMatrixRow, []string, []SubjectSummary, error) {
	query := database.DB.Order("roll_number ASC")
	if departmentID != 0 {
		query = query.Where("department_id = ?", departmentID)
	}
	if batchID != 0 {
		query = query.Where("batch_id = ?", batchID)
	}
	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, nil, nil, err
	}

	sessions, err := ListSessions(batchID, from, to)
	if err != nil {
		return nil, nil, nil, err
	}

	rows, subjects := BuildAttendanceMatrix(students, sessions)
	return rows, subjects, BuildSubjectSummaries(sessions), nil
}
