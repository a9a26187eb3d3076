package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"classtrack_go/database"
	"classtrack_go/middleware"
	"classtrack_go/models"
	"classtrack_go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// TimetableImportController handles importing timetables from CSV/XLSX
// exports. Each row describes one slot: batch code, weekday, start time,
// end time, subject code (or BREAK), teacher email, room.
type TimetableImportController struct{}

type timetableImportRow struct {
	RowNumber    int
	BatchCode    string
	Weekday      string
	StartTime    string
	EndTime      string
	SubjectCode  string
	TeacherEmail string
	Room         string
}

type timetableImportStats struct {
	TotalRows       int      `json:"total_rows"`
	SchedulesSaved  int      `json:"schedules_saved"`
	SlotsImported   int      `json:"slots_imported"`
	MissingBatches  []string `json:"missing_batches,omitempty"`
	MissingSubjects []string `json:"missing_subjects,omitempty"`
	MissingTeachers []string `json:"missing_teachers,omitempty"`
}

// Import parses the upload and replaces the timetable of every
// (batch, weekday) pair the file mentions
func (tic *TimetableImportController) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
	}
	defer file.Close()

	filename := strings.ToLower(fileHeader.Filename)
	var rows [][]string
	var parseErr error

	switch {
	case strings.HasSuffix(filename, ".csv"):
		rows, parseErr = readCSV(file)
	case strings.HasSuffix(filename, ".xlsx"), strings.HasSuffix(filename, ".xls"):
		tmpDir, _ := os.MkdirTemp("", "cttimetable-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		rows, parseErr = readXLSX(tmp)
		_ = os.Remove(tmp)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv, xlsx)"})
	}
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": parseErr.Error()})
	}

	if len(rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}

	colIndex := buildTimetableColumnIndex(rows[0])
	required := []string{"batch", "weekday", "start time", "end time", "subject"}
	for _, key := range required {
		if _, ok := colIndex[key]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("missing column: %s", key)})
		}
	}

	parsedRows := make([]timetableImportRow, 0, len(rows)-1)
	var parseErrors []string
	for i := 1; i < len(rows); i++ {
		raw := rows[i]
		if isRowEmpty(raw) {
			continue
		}
		r, err := parseTimetableRow(raw, colIndex, i+1)
		if err != nil {
			parseErrors = append(parseErrors, err.Error())
			continue
		}
		parsedRows = append(parsedRows, r)
	}

	if len(parsedRows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no valid data rows found", "parse_errors": parseErrors})
	}

	stats := &timetableImportStats{TotalRows: len(parsedRows)}
	if err := importTimetableRows(parsedRows, stats); err != nil {
		return serviceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "timetable_import", 0, fiber.Map{
		"file_name":       fileHeader.Filename,
		"total_rows":      stats.TotalRows,
		"schedules_saved": stats.SchedulesSaved,
	})

	response := fiber.Map{
		"success":   true,
		"file_name": fileHeader.Filename,
		"stats":     stats,
	}
	if len(parseErrors) > 0 {
		response["parse_errors"] = parseErrors
	}
	return c.JSON(response)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sht := f.GetSheetName(0)
	if sht == "" {
		sht = "Sheet1"
	}
	return f.GetRows(sht)
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}

func isRowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func buildTimetableColumnIndex(header []string) map[string]int {
	col := map[string]int{}
	for idx, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		col[key] = idx
		// allow alternate spellings
		switch key {
		case "batch_code", "batch code":
			col["batch"] = idx
		case "day":
			col["weekday"] = idx
		case "start_time", "start":
			col["start time"] = idx
		case "end_time", "end":
			col["end time"] = idx
		case "subject_code", "subject code":
			col["subject"] = idx
		case "teacher_email", "teacher email", "teacher":
			col["teacher"] = idx
		case "room_number", "room no":
			col["room"] = idx
		}
	}
	return col
}

func cellValue(row []string, col map[string]int, key string) string {
	if idx, ok := col[key]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseTimetableRow(row []string, col map[string]int, rowNum int) (timetableImportRow, error) {
	r := timetableImportRow{
		RowNumber:    rowNum,
		BatchCode:    cellValue(row, col, "batch"),
		Weekday:      normalizeWeekday(cellValue(row, col, "weekday")),
		StartTime:    normalizeClock(cellValue(row, col, "start time")),
		EndTime:      normalizeClock(cellValue(row, col, "end time")),
		SubjectCode:  cellValue(row, col, "subject"),
		TeacherEmail: cellValue(row, col, "teacher"),
		Room:         cellValue(row, col, "room"),
	}

	if r.BatchCode == "" {
		return r, fmt.Errorf("row %d: missing batch", rowNum)
	}
	if !services.IsValidWeekday(r.Weekday) {
		return r, fmt.Errorf("row %d: invalid weekday %q", rowNum, r.Weekday)
	}
	if err := services.ValidateTimeRange(r.StartTime, r.EndTime); err != nil {
		return r, fmt.Errorf("row %d: %v", rowNum, err)
	}
	if r.SubjectCode == "" {
		return r, fmt.Errorf("row %d: missing subject", rowNum)
	}
	return r, nil
}

func normalizeWeekday(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
}

// normalizeClock pads "9:00" style cells to "09:00"
func normalizeClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) == 4 && raw[1] == ':' {
		return "0" + raw
	}
	return raw
}

func isBreakSubject(code string) bool {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "BREAK", "LUNCH", "RECESS":
		return true
	}
	return false
}

func importTimetableRows(rows []timetableImportRow, stats *timetableImportStats) error {
	type dayKey struct {
		BatchCode string
		Weekday   string
	}

	grouped := map[dayKey][]timetableImportRow{}
	for _, r := range rows {
		k := dayKey{BatchCode: r.BatchCode, Weekday: r.Weekday}
		grouped[k] = append(grouped[k], r)
	}

	keys := make([]dayKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].BatchCode != keys[j].BatchCode {
			return keys[i].BatchCode < keys[j].BatchCode
		}
		return keys[i].Weekday < keys[j].Weekday
	})

	subjectCache := map[string]*models.Subject{}
	teacherCache := map[string]*models.Teacher{}

	for _, k := range keys {
		var batch models.Batch
		if err := database.DB.Where("code = ?", k.BatchCode).First(&batch).Error; err != nil {
			stats.MissingBatches = appendUnique(stats.MissingBatches, k.BatchCode)
			continue
		}

		dayRows := grouped[k]
		slots := make([]services.SlotInput, 0, len(dayRows))
		skipDay := false
		for _, r := range dayRows {
			slot := services.SlotInput{
				StartTime:  r.StartTime,
				EndTime:    r.EndTime,
				RoomNumber: r.Room,
			}

			if isBreakSubject(r.SubjectCode) {
				slot.IsBreak = true
				slots = append(slots, slot)
				continue
			}

			subject, ok := subjectCache[r.SubjectCode]
			if !ok {
				var s models.Subject
				if err := database.DB.Where("code = ?", r.SubjectCode).First(&s).Error; err != nil {
					stats.MissingSubjects = appendUnique(stats.MissingSubjects, r.SubjectCode)
					skipDay = true
					break
				}
				subject = &s
				subjectCache[r.SubjectCode] = subject
			}
			slot.SubjectID = &subject.ID

			if r.TeacherEmail != "" {
				teacher, ok := teacherCache[r.TeacherEmail]
				if !ok {
					var t models.Teacher
					if err := database.DB.Where("email = ?", r.TeacherEmail).First(&t).Error; err != nil {
						stats.MissingTeachers = appendUnique(stats.MissingTeachers, r.TeacherEmail)
						skipDay = true
						break
					}
					teacher = &t
					teacherCache[r.TeacherEmail] = teacher
				}
				slot.TeacherID = &teacher.ID
			}

			slots = append(slots, slot)
		}
		if skipDay {
			continue
		}

		if _, err := services.UpsertDaySchedule(batch.ID, k.Weekday, slots); err != nil {
			return fmt.Errorf("batch %s %s: %w", k.BatchCode, k.Weekday, err)
		}
		stats.SchedulesSaved++
		stats.SlotsImported += len(slots)
	}

	return nil
}

func appendUnique(slice []string, value string) []string {
	if value == "" {
		return slice
	}
	for _, v := range slice {
		if strings.EqualFold(v, value) {
			return slice
		}
	}
	return append(slice, value)
}
