package services

import (
	"fmt"
	"sort"
	"time"

	"classtrack_go/database"
	"classtrack_go/models"
	"classtrack_go/services/notifications"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// slotsConflict reports whether any committed (non-break) slot assigned
// to teacherID overlaps the requested [start, end) window.
func slotsConflict(slots []models.TimeSlot, teacherID uint, start, end string) bool {
	for _, slot := range slots {
		if slot.IsBreak || slot.TeacherID == nil || *slot.TeacherID != teacherID {
			continue
		}
		if Overlaps(start, end, slot.StartTime, slot.EndTime) {
			return true
		}
	}
	return false
}

// scanSchedules checks a teacher's commitments across a set of day
// schedules. Overlap is commutative and the scan exhaustive, so order
// does not change the answer; the first hit short-circuits.
func scanSchedules(schedules []models.DaySchedule, teacherID uint, start, end string) bool {
	for _, schedule := range schedules {
		if slotsConflict(schedule.Slots, teacherID, start, end) {
			return true
		}
	}
	return false
}

// TeacherHasConflict determines whether a teacher has any committed class
// overlapping [start, end) on the given date, across the whole
// institution. The target batch's own schedule is checked first; its
// absence means the substitution lookup cannot proceed at all and is
// reported as ErrNotFound.
func TeacherHasConflict(teacherID, batchID uint, date time.Time, start, end string) (bool, error) {
	weekday := WeekdayOf(date)

	target, err := GetDaySchedule(batchID, weekday)
	if err != nil {
		return false, err
	}
	if slotsConflict(target.Slots, teacherID, start, end) {
		return true, nil
	}

	others, err := ListDaySchedules(weekday, batchID)
	if err != nil {
		return false, err
	}
	return scanSchedules(others, teacherID, start, end), nil
}

// SubstituteCandidate is one conflict-free teacher eligible to take a
// class.
type SubstituteCandidate struct {
	TeacherID uint     `json:"teacher_id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Subjects  []string `json:"subjects"`
}

// filterConflictFree keeps the candidates that are free for the window,
// excluding the requesting teacher, in stable name order. Pure over the
// loaded schedule set.
func filterConflictFree(candidates []models.Teacher, schedules []models.DaySchedule, requestingTeacherID uint, start, end string) []SubstituteCandidate {
	eligible := make([]SubstituteCandidate, 0, len(candidates))
	for _, teacher := range candidates {
		if teacher.ID == requestingTeacherID {
			continue
		}
		if scanSchedules(schedules, teacher.ID, start, end) {
			continue
		}
		candidate := SubstituteCandidate{
			TeacherID: teacher.ID,
			Name:      teacher.Name,
			Email:     teacher.Email,
		}
		for _, subject := range teacher.Subjects {
			candidate.Subjects = append(candidate.Subjects, subject.Name)
		}
		eligible = append(eligible, candidate)
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Name < eligible[j].Name })
	return eligible
}

// FindSubstitutes returns every active teacher of the batch's department,
// excluding the requester, who is free for [start, end) on the date. An
// empty list is a valid result; a missing batch, subject or timetable is
// not.
func FindSubstitutes(dateStr, start, end string, batchID, subjectID, requestingTeacherID uint) ([]SubstituteCandidate, error) {
	if err := ValidateTimeRange(start, end); err != nil {
		return nil, err
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	weekday := WeekdayOf(date)

	var batch models.Batch
	if err := database.DB.First(&batch, batchID).Error; err != nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, batchID)
	}
	if batch.DepartmentID == 0 {
		return nil, fmt.Errorf("%w: batch %d has no department", ErrNotFound, batchID)
	}
	if subjectID != 0 {
		var subject models.Subject
		if err := database.DB.First(&subject, subjectID).Error; err != nil {
			return nil, fmt.Errorf("%w: subject %d", ErrNotFound, subjectID)
		}
	}

	// No timetable for the day means the substitution request itself is
	// meaningless, so surface NotFound rather than an empty result.
	target, err := GetDaySchedule(batchID, weekday)
	if err != nil {
		return nil, err
	}
	others, err := ListDaySchedules(weekday, batchID)
	if err != nil {
		return nil, err
	}
	schedules := append([]models.DaySchedule{*target}, others...)

	var candidates []models.Teacher
	if err := database.DB.Preload("Subjects").
		Where("department_id = ? AND active = ?", batch.DepartmentID, true).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	return filterConflictFree(candidates, schedules, requestingTeacherID, start, end), nil
}

// substitutionTransitions is the explicit ledger transition table. A
// direct pending -> completed is rejected: the substitute must approve
// before completing.
var substitutionTransitions = map[string][]string{
	models.SubstitutionPending:  {models.SubstitutionApproved, models.SubstitutionCancelled},
	models.SubstitutionApproved: {models.SubstitutionCompleted, models.SubstitutionCancelled},
}

// canTransition reports whether the ledger permits moving from one status
// to another.
func canTransition(from, to string) bool {
	for _, allowed := range substitutionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// activeKey is the natural key under which at most one non-terminal
// request may exist. It lives in a unique-indexed column while the
// request is pending/approved.
func activeKey(originalTeacherID, batchID uint, date time.Time, start, end string) string {
	return fmt.Sprintf("%d:%d:%s:%s-%s", originalTeacherID, batchID, date.Format("2006-01-02"), start, end)
}

// errDuplicateActiveSlot is the Conflict surfaced when a slot already
// carries a non-terminal request, whether caught by the pre-check or by
// the active_key unique index.
func errDuplicateActiveSlot() error {
	return fmt.Errorf("%w: an active substitution already exists for this slot", ErrConflict)
}

// substituteMayAct allows only the assigned substitute teacher to move a
// request through approve, complete or cancel on their side.
func substituteMayAct(request *models.SubstitutionRequest, actorTeacherID uint) error {
	if request.SubstituteTeacherID != actorTeacherID {
		return fmt.Errorf("%w: only the substitute teacher may update this request", ErrForbidden)
	}
	return nil
}

// originalMayCancel allows only the requesting teacher to withdraw their
// own request.
func originalMayCancel(request *models.SubstitutionRequest, actorTeacherID uint) error {
	if request.OriginalTeacherID != actorTeacherID {
		return fmt.Errorf("%w: only the requesting teacher may cancel this request", ErrForbidden)
	}
	return nil
}

// SubstitutionInput is a teacher's request to hand one class to a
// colleague.
type SubstitutionInput struct {
	SubstituteTeacherID uint   `json:"substitute_teacher_id"`
	SubjectID           uint   `json:"subject_id"`
	BatchID             uint   `json:"batch_id"`
	Date                string `json:"date"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	RoomNumber          string `json:"room_number"`
	Reason              string `json:"reason"`
}

// CreateSubstitution opens a pending request owned by the original
// teacher. Uniqueness of the active request per (teacher, batch, date,
// window) is enforced by the active_key unique index; the FindActive
// pre-check only exists to produce a friendlier message than the raw
// duplicate-key error.
func CreateSubstitution(in SubstitutionInput, originalTeacherID uint) (*models.SubstitutionRequest, error) {
	if err := ValidateTimeRange(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.SubstituteTeacherID == originalTeacherID {
		return nil, fmt.Errorf("%w: cannot request yourself as substitute", ErrInvalidInput)
	}

	var substitute models.Teacher
	if err := database.DB.Where("id = ? AND active = ?", in.SubstituteTeacherID, true).
		First(&substitute).Error; err != nil {
		return nil, fmt.Errorf("%w: substitute teacher %d", ErrNotFound, in.SubstituteTeacherID)
	}
	var subject models.Subject
	if err := database.DB.First(&subject, in.SubjectID).Error; err != nil {
		return nil, fmt.Errorf("%w: subject %d", ErrNotFound, in.SubjectID)
	}
	var batch models.Batch
	if err := database.DB.First(&batch, in.BatchID).Error; err != nil {
		return nil, fmt.Errorf("%w: batch %d", ErrNotFound, in.BatchID)
	}

	if existing, err := FindActiveSubstitution(originalTeacherID, in.BatchID, date, in.StartTime, in.EndTime); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errDuplicateActiveSlot()
	}

	key := activeKey(originalTeacherID, in.BatchID, date, in.StartTime, in.EndTime)
	request := models.SubstitutionRequest{
		ReferenceCode:       uuid.NewString(),
		OriginalTeacherID:   originalTeacherID,
		SubstituteTeacherID: in.SubstituteTeacherID,
		SubjectID:           in.SubjectID,
		BatchID:             in.BatchID,
		Date:                date,
		StartTime:           in.StartTime,
		EndTime:             in.EndTime,
		RoomNumber:          in.RoomNumber,
		Reason:              in.Reason,
		Status:              models.SubstitutionPending,
		ActiveKey:           &key,
	}
	if err := database.DB.Create(&request).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, errDuplicateActiveSlot()
		}
		return nil, err
	}

	notifySubstitutionEvent(&request, substitute.UserID,
		"Substitution requested",
		fmt.Sprintf("You have been requested to cover %s for %s on %s, %s-%s.",
			subject.Name, batch.Name, date.Format("2006-01-02"), in.StartTime, in.EndTime))

	return &request, nil
}

// FindActiveSubstitution returns the non-terminal request occupying the
// slot, or nil.
func FindActiveSubstitution(originalTeacherID, batchID uint, date time.Time, start, end string) (*models.SubstitutionRequest, error) {
	key := activeKey(originalTeacherID, batchID, date, start, end)
	var request models.SubstitutionRequest
	err := database.DB.Where("active_key = ?", key).First(&request).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetSubstitution resolves a request by id with its relationships.
func GetSubstitution(id uint) (*models.SubstitutionRequest, error) {
	var request models.SubstitutionRequest
	err := database.DB.
		Preload("OriginalTeacher").Preload("SubstituteTeacher").
		Preload("Subject").Preload("Batch").
		First(&request, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: substitution request %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &request, nil
}

// ListSubstitutionsForTeacher returns requests where the teacher is
// either side, newest first.
func ListSubstitutionsForTeacher(teacherID uint) ([]models.SubstitutionRequest, error) {
	var requests []models.SubstitutionRequest
	err := database.DB.
		Preload("OriginalTeacher").Preload("SubstituteTeacher").
		Preload("Subject").Preload("Batch").
		Where("original_teacher_id = ? OR substitute_teacher_id = ?", teacherID, teacherID).
		Order("date DESC, start_time DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateSubstitutionStatus is the substitute teacher's transition: they
// own approve/complete/cancel on their assignment, within the transition
// table. Free-form notes may be attached.
func UpdateSubstitutionStatus(id uint, actorTeacherID uint, newStatus, notes string) (*models.SubstitutionRequest, error) {
	switch newStatus {
	case models.SubstitutionApproved, models.SubstitutionCompleted, models.SubstitutionCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	request, err := GetSubstitution(id)
	if err != nil {
		return nil, err
	}
	if err := substituteMayAct(request, actorTeacherID); err != nil {
		return nil, err
	}
	if request.IsTerminal() {
		return nil, fmt.Errorf("%w: request is already %s", ErrInvalidInput, request.Status)
	}
	if !canTransition(request.Status, newStatus) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidInput, request.Status, newStatus)
	}

	updates := map[string]interface{}{"status": newStatus}
	if notes != "" {
		updates["notes"] = notes
	}
	if newStatus == models.SubstitutionCompleted || newStatus == models.SubstitutionCancelled {
		updates["active_key"] = nil
	}
	if err := database.DB.Model(request).Updates(updates).Error; err != nil {
		return nil, err
	}
	request.Status = newStatus
	if notes != "" {
		request.Notes = notes
	}

	notifySubstitutionEvent(request, request.OriginalTeacher.UserID,
		"Substitution "+newStatus,
		fmt.Sprintf("%s marked your substitution request for %s as %s.",
			request.SubstituteTeacher.Name, request.Date.Format("2006-01-02"), newStatus))

	return request, nil
}

// CancelSubstitution is the original teacher's transition, permitted only
// while the request is pending or approved.
func CancelSubstitution(id uint, actorTeacherID uint) (*models.SubstitutionRequest, error) {
	request, err := GetSubstitution(id)
	if err != nil {
		return nil, err
	}
	if err := originalMayCancel(request, actorTeacherID); err != nil {
		return nil, err
	}
	if request.IsTerminal() {
		return nil, fmt.Errorf("%w: request is already %s", ErrInvalidInput, request.Status)
	}

	updates := map[string]interface{}{"status": models.SubstitutionCancelled, "active_key": nil}
	if err := database.DB.Model(request).Updates(updates).Error; err != nil {
		return nil, err
	}
	request.Status = models.SubstitutionCancelled

	notifySubstitutionEvent(request, request.SubstituteTeacher.UserID,
		"Substitution cancelled",
		fmt.Sprintf("%s cancelled the substitution request for %s, %s-%s.",
			request.OriginalTeacher.Name, request.Date.Format("2006-01-02"), request.StartTime, request.EndTime))

	return request, nil
}

// CloseExpiredSubstitutions marks approved requests whose date has passed
// as completed. Run nightly from the maintenance scheduler so the ledger
// does not accumulate stale approvals.
func CloseExpiredSubstitutions(now time.Time) (int64, error) {
	cutoff := now.Format("2006-01-02")
	result := database.DB.Model(&models.SubstitutionRequest{}).
		Where("status = ? AND date < ?", models.SubstitutionApproved, cutoff).
		Updates(map[string]interface{}{"status": models.SubstitutionCompleted, "active_key": nil})
	return result.RowsAffected, result.Error
}

func notifySubstitutionEvent(request *models.SubstitutionRequest, userID uint, title, message string) {
	if userID == 0 {
		return
	}
	notifications.NewService().Notify(notifications.Payload{
		UserIDs: []uint{userID},
		Title:   title,
		Message: message,
		Type:    "info",
		Data: map[string]interface{}{
			"substitution_id": request.ID,
			"reference_code":  request.ReferenceCode,
			"status":          request.Status,
		},
	})
}
