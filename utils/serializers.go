package utils

import (
	"time"

	"classtrack_go/models"
)

// Compact representations used across APIs
type TeacherShort struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type BatchShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name,omitempty"`
	Code string `json:"code"`
}

type SubjectShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type SubstitutionDTO struct {
	ID                uint         `json:"id"`
	ReferenceCode     string       `json:"reference_code"`
	Date              string       `json:"date"`
	StartTime         string       `json:"start_time"`
	EndTime           string       `json:"end_time"`
	RoomNumber        string       `json:"room_number,omitempty"`
	Reason            string       `json:"reason,omitempty"`
	Status            string       `json:"status"`
	Notes             string       `json:"notes,omitempty"`
	OriginalTeacher   TeacherShort `json:"original_teacher"`
	SubstituteTeacher TeacherShort `json:"substitute_teacher"`
	Subject           SubjectShort `json:"subject"`
	Batch             BatchShort   `json:"batch"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// ToSubstitutionDTO maps a models.SubstitutionRequest to the compact DTO.
// Caller has preloaded OriginalTeacher, SubstituteTeacher, Subject and Batch.
func ToSubstitutionDTO(r models.SubstitutionRequest) SubstitutionDTO {
	return SubstitutionDTO{
		ID:            r.ID,
		ReferenceCode: r.ReferenceCode,
		Date:          r.Date.Format("2006-01-02"),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		RoomNumber:    r.RoomNumber,
		Reason:        r.Reason,
		Status:        r.Status,
		Notes:         r.Notes,
		OriginalTeacher: TeacherShort{
			ID:    r.OriginalTeacher.ID,
			Name:  r.OriginalTeacher.Name,
			Email: r.OriginalTeacher.Email,
		},
		SubstituteTeacher: TeacherShort{
			ID:    r.SubstituteTeacher.ID,
			Name:  r.SubstituteTeacher.Name,
			Email: r.SubstituteTeacher.Email,
		},
		Subject: SubjectShort{
			ID:   r.Subject.ID,
			Name: r.Subject.Name,
			Code: r.Subject.Code,
		},
		Batch: BatchShort{
			ID:   r.Batch.ID,
			Name: r.Batch.Name,
			Code: r.Batch.Code,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ToSubstitutionDTOs maps a slice of requests
func ToSubstitutionDTOs(requests []models.SubstitutionRequest) []SubstitutionDTO {
	out := make([]SubstitutionDTO, 0, len(requests))
	for _, r := range requests {
		out = append(out, ToSubstitutionDTO(r))
	}
	return out
}

type SessionDTO struct {
	ID            uint         `json:"id"`
	ReferenceCode string       `json:"reference_code"`
	Date          string       `json:"date"`
	Subject       string       `json:"subject"`
	ClassTime     string       `json:"class_time"`
	Duration      int          `json:"duration,omitempty"`
	Batch         BatchShort   `json:"batch"`
	TakenBy       TeacherShort `json:"taken_by"`
	RecordCount   int          `json:"record_count"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ToSessionDTO maps a models.AttendanceSession to the compact DTO.
// Caller has preloaded Batch, TakenBy and Records.
func ToSessionDTO(s models.AttendanceSession) SessionDTO {
	return SessionDTO{
		ID:            s.ID,
		ReferenceCode: s.ReferenceCode,
		Date:          s.Date.Format("2006-01-02"),
		Subject:       s.Subject,
		ClassTime:     s.ClassTime,
		Duration:      s.Duration,
		Batch: BatchShort{
			ID:   s.Batch.ID,
			Name: s.Batch.Name,
			Code: s.Batch.Code,
		},
		TakenBy: TeacherShort{
			ID:   s.TakenBy.ID,
			Name: s.TakenBy.Name,
		},
		RecordCount: len(s.Records),
		CreatedAt:   s.CreatedAt,
	}
}

// ToSessionDTOs maps a slice of sessions
func ToSessionDTOs(sessions []models.AttendanceSession) []SessionDTO {
	out := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToSessionDTO(s))
	}
	return out
}

type NotificationDTO struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UserID    uint       `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// ToNotificationDTO maps a models.Notification to the compact DTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
	}
}

// ToNotificationDTOs maps a slice of notifications
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, ToNotificationDTO(n))
	}
	return out
}
