package services

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"classtrack_go/database"
	"classtrack_go/models"

	"gorm.io/gorm"
)

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValidTimeOfDay reports whether s is a well-formed 24-hour "HH:MM"
// wall-clock string.
func IsValidTimeOfDay(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

// ValidateTimeRange checks that both ends are well-formed "HH:MM" strings
// and that the range is non-empty.
func ValidateTimeRange(start, end string) error {
	if !IsValidTimeOfDay(start) || !IsValidTimeOfDay(end) {
		return fmt.Errorf("%w: time must be in HH:MM 24-hour format", ErrInvalidInput)
	}
	if end <= start {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	return nil
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Times are validated "HH:MM" strings, so
// lexicographic comparison is chronological. Touching boundaries do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// WeekdayOf returns the locale-independent weekday name for a date.
func WeekdayOf(date time.Time) string {
	return date.Weekday().String()
}

// ParseDate parses a calendar date in "YYYY-MM-DD" form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	return d, nil
}

// GetDaySchedule loads the timetable of one batch for one weekday,
// including slots in display order.
func GetDaySchedule(batchID uint, weekday string) (*models.DaySchedule, error) {
	var schedule models.DaySchedule
	err := database.DB.
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, start_time ASC")
		}).
		Preload("Slots.Subject").
		Preload("Slots.Teacher").
		Where("batch_id = ? AND weekday = ?", batchID, weekday).
		First(&schedule).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: no timetable for batch %d on %s", ErrNotFound, batchID, weekday)
		}
		return nil, err
	}
	return &schedule, nil
}

// ListDaySchedules loads every batch's timetable for a weekday, optionally
// excluding one batch.
func ListDaySchedules(weekday string, excludeBatchID uint) ([]models.DaySchedule, error) {
	var schedules []models.DaySchedule
	query := database.DB.Preload("Slots").Where("weekday = ?", weekday)
	if excludeBatchID != 0 {
		query = query.Where("batch_id <> ?", excludeBatchID)
	}
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// SlotInput is one timetable entry supplied by the upsert or import path.
type SlotInput struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	IsBreak    bool   `json:"is_break"`
	SubjectID  *uint  `json:"subject_id"`
	TeacherID  *uint  `json:"teacher_id"`
	RoomNumber string `json:"room_number"`
}

// validateSlots checks every slot for well-formed times and rejects
// timetables whose non-break slots overlap each other. Historical data
// that predates this check is still tolerated by the conflict scanner.
func validateSlots(slots []SlotInput) error {
	for i, slot := range slots {
		if err := ValidateTimeRange(slot.StartTime, slot.EndTime); err != nil {
			return fmt.Errorf("slot %d: %w", i+1, err)
		}
		if slot.IsBreak && (slot.SubjectID != nil || slot.TeacherID != nil) {
			return fmt.Errorf("%w: slot %d: break slots cannot carry a subject or teacher", ErrInvalidInput, i+1)
		}
		if !slot.IsBreak && slot.SubjectID == nil {
			return fmt.Errorf("%w: slot %d: class slots require a subject", ErrInvalidInput, i+1)
		}
	}
	for i := range slots {
		if slots[i].IsBreak {
			continue
		}
		for j := i + 1; j < len(slots); j++ {
			if slots[j].IsBreak {
				continue
			}
			if Overlaps(slots[i].StartTime, slots[i].EndTime, slots[j].StartTime, slots[j].EndTime) {
				return fmt.Errorf("%w: slots %d and %d overlap", ErrInvalidInput, i+1, j+1)
			}
		}
	}
	return nil
}

// UpsertDaySchedule replaces the timetable for (batchID, weekday). The
// (batch, weekday) pair owns at most one DaySchedule; replacing is done
// in a transaction so readers never observe a half-written day.
func UpsertDaySchedule(batchID uint, weekday string, slots []SlotInput) (*models.DaySchedule, error) {
	if !IsValidWeekday(weekday) {
		return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, weekday)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: timetable needs at least one slot", ErrInvalidInput)
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	var batch models.Batch
	if err := database.DB.First(&batch, batchID).Error; err != nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}

	sorted := make([]SlotInput, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	var schedule models.DaySchedule
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("batch_id = ? AND weekday = ?", batchID, weekday).First(&schedule).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			schedule = models.DaySchedule{BatchID: batchID, Weekday: weekday}
			if err := tx.Create(&schedule).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Where("day_schedule_id = ?", schedule.ID).Delete(&models.TimeSlot{}).Error; err != nil {
				return err
			}
		}

		for i, slot := range sorted {
			record := models.TimeSlot{
				DayScheduleID: schedule.ID,
				StartTime:     slot.StartTime,
				EndTime:       slot.EndTime,
				IsBreak:       slot.IsBreak,
				SubjectID:     slot.SubjectID,
				TeacherID:     slot.TeacherID,
				RoomNumber:    slot.RoomNumber,
				SortOrder:     i + 1,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetDaySchedule(batchID, weekday)
}

// IsValidWeekday reports whether name is a schedulable weekday. Sunday
// has no timetable by institutional convention.
func IsValidWeekday(name string) bool {
	switch name {
	case "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday":
		return true
	}
	return false
}
