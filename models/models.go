package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Department model
type Department struct {
	BaseModel
	Name   string `json:"name" gorm:"size:255;not null"`
	Code   string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Active bool   `json:"active" gorm:"default:true"`

	// Relationships
	Batches  []Batch   `json:"batches,omitempty" gorm:"foreignKey:DepartmentID"`
	Subjects []Subject `json:"subjects,omitempty" gorm:"foreignKey:DepartmentID"`
	Teachers []Teacher `json:"teachers,omitempty" gorm:"foreignKey:DepartmentID"`
}

// User model
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('admin','teacher','student')"` // admin, teacher, student
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`

	// Relationships
	Student *Student `json:"student,omitempty" gorm:"foreignKey:UserID"`
	Teacher *Teacher `json:"teacher,omitempty" gorm:"foreignKey:UserID"`
}

// Teacher model
type Teacher struct {
	BaseModel
	UserID       uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	Name         string `json:"name" gorm:"size:200;not null"`
	Email        string `json:"email" gorm:"size:255"`
	Phone        string `json:"phone" gorm:"size:20"`
	Designation  string `json:"designation" gorm:"size:100"`
	DepartmentID uint   `json:"department_id" gorm:"not null;index"`
	Active       bool   `json:"active" gorm:"default:true"`

	// Relationships
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Department Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Subjects   []Subject  `json:"subjects,omitempty" gorm:"many2many:teacher_subjects"`
}

// Student model
type Student struct {
	BaseModel
	UserID       *uint  `json:"user_id" gorm:"uniqueIndex"`
	Name         string `json:"name" gorm:"size:200;not null"`
	RollNumber   string `json:"roll_number" gorm:"size:50;not null"`
	Email        string `json:"email" gorm:"size:255"`
	DepartmentID uint   `json:"department_id" gorm:"not null;index"`
	BatchID      uint   `json:"batch_id" gorm:"not null;index"`

	// Relationships
	User       *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Department Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Batch      Batch      `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
}

// Batch model: a cohort of students admitted together, tied to a
// department and an intake year.
type Batch struct {
	BaseModel
	Name         string `json:"name" gorm:"size:100;not null"`
	Code         string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	DepartmentID uint   `json:"department_id" gorm:"not null;index"`
	IntakeYear   int    `json:"intake_year" gorm:"not null"`
	Section      string `json:"section" gorm:"size:10"`
	Active       bool   `json:"active" gorm:"default:true"`

	// Relationships
	Department Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Students   []Student  `json:"students,omitempty" gorm:"foreignKey:BatchID"`
}

// Subject model
type Subject struct {
	BaseModel
	Name         string `json:"name" gorm:"size:255;not null"`
	Code         string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	DepartmentID uint   `json:"department_id" gorm:"not null;index"`
	Semester     int    `json:"semester"`
	Credits      int    `json:"credits"`

	// Relationships
	Department Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Teachers   []Teacher  `json:"teachers,omitempty" gorm:"many2many:teacher_subjects"`
}

// DaySchedule model: the timetable of one batch on one weekday.
// At most one schedule exists per (batch, weekday).
type DaySchedule struct {
	BaseModel
	BatchID uint   `json:"batch_id" gorm:"not null;uniqueIndex:idx_batch_weekday"`
	Weekday string `json:"weekday" gorm:"size:10;not null;uniqueIndex:idx_batch_weekday"` // Monday .. Saturday

	// Relationships
	Batch Batch      `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	Slots []TimeSlot `json:"slots,omitempty" gorm:"foreignKey:DayScheduleID"`
}

// TimeSlot model. Times are wall-clock "HH:MM" strings so lexicographic
// comparison matches chronological order within a day. Break slots carry
// no subject or teacher.
type TimeSlot struct {
	BaseModel
	DayScheduleID uint   `json:"day_schedule_id" gorm:"not null;index"`
	StartTime     string `json:"start_time" gorm:"size:5;not null"`
	EndTime       string `json:"end_time" gorm:"size:5;not null"`
	IsBreak       bool   `json:"is_break" gorm:"default:false"`
	SubjectID     *uint  `json:"subject_id"`
	TeacherID     *uint  `json:"teacher_id"`
	RoomNumber    string `json:"room_number" gorm:"size:50"`
	SortOrder     int    `json:"sort_order" gorm:"default:0"`

	// Relationships
	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Teacher *Teacher `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

// Substitution request lifecycle statuses
const (
	SubstitutionPending   = "pending"
	SubstitutionApproved  = "approved"
	SubstitutionCompleted = "completed"
	SubstitutionCancelled = "cancelled"
)

// SubstitutionRequest model: a temporary reassignment of one class
// session from its normally-assigned teacher to another.
//
// ActiveKey carries the natural key (original teacher, batch, date, time
// window) while the request is pending/approved and is cleared on a
// terminal transition. The unique index makes "at most one active
// request per slot" hold even against concurrent creators.
type SubstitutionRequest struct {
	BaseModel
	ReferenceCode       string    `json:"reference_code" gorm:"size:36;not null;uniqueIndex"`
	OriginalTeacherID   uint      `json:"original_teacher_id" gorm:"not null;index"`
	SubstituteTeacherID uint      `json:"substitute_teacher_id" gorm:"not null;index"`
	SubjectID           uint      `json:"subject_id" gorm:"not null"`
	BatchID             uint      `json:"batch_id" gorm:"not null"`
	Date                time.Time `json:"date" gorm:"type:date;not null"`
	StartTime           string    `json:"start_time" gorm:"size:5;not null"`
	EndTime             string    `json:"end_time" gorm:"size:5;not null"`
	RoomNumber          string    `json:"room_number" gorm:"size:50"`
	Reason              string    `json:"reason" gorm:"type:text"`
	Status              string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','approved','completed','cancelled')"`
	Notes               string    `json:"notes" gorm:"type:text"`
	ActiveKey           *string   `json:"-" gorm:"size:120;uniqueIndex"`

	// Relationships
	OriginalTeacher   Teacher `json:"original_teacher,omitempty" gorm:"foreignKey:OriginalTeacherID"`
	SubstituteTeacher Teacher `json:"substitute_teacher,omitempty" gorm:"foreignKey:SubstituteTeacherID"`
	Subject           Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Batch             Batch   `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
}

// IsTerminal reports whether the request can no longer transition.
func (s *SubstitutionRequest) IsTerminal() bool {
	return s.Status == SubstitutionCompleted || s.Status == SubstitutionCancelled
}

// AttendanceSession model: one marked class. The composite unique index
// over (date, subject, batch, class time) means a class cannot be marked
// twice for the same slot, enforced by the storage layer rather than a
// read-then-write. Sessions are created once and never edited.
//
// Subject is the free-form name used as the reporting grain; SubjectID is
// the catalog id the name was validated against at creation time.
type AttendanceSession struct {
	BaseModel
	ReferenceCode string    `json:"reference_code" gorm:"size:36;not null;uniqueIndex"`
	Date          time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_slot"`
	Subject       string    `json:"subject" gorm:"size:100;not null;uniqueIndex:idx_attendance_slot"`
	SubjectID     uint      `json:"subject_id" gorm:"not null"`
	BatchID       uint      `json:"batch_id" gorm:"not null;uniqueIndex:idx_attendance_slot"`
	ClassTime     string    `json:"class_time" gorm:"size:5;not null;uniqueIndex:idx_attendance_slot"`
	Duration      int       `json:"duration"` // minutes
	TakenByID     uint      `json:"taken_by_id" gorm:"not null"`

	// Relationships
	Batch   Batch              `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
	TakenBy Teacher            `json:"taken_by,omitempty" gorm:"foreignKey:TakenByID"`
	Records []AttendanceRecord `json:"records,omitempty" gorm:"foreignKey:SessionID"`
}

// Attendance record statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// AttendanceRecord model, nested in a session. StudentRef is kept as the
// raw JSON value it arrived as: historical records encode it variously as
// a plain id string, an ObjectId('...') wrapper, a serialized object, or
// a structured object. Resolution to a canonical id happens only through
// services.ResolveStudentRef, never ad hoc at call sites.
type AttendanceRecord struct {
	BaseModel
	SessionID  uint   `json:"session_id" gorm:"not null;index"`
	StudentRef JSON   `json:"student_ref" gorm:"type:json"`
	RollNumber string `json:"roll_number" gorm:"size:50"`
	Status     string `json:"status" gorm:"size:20;not null;type:enum('present','absent')"` // present, absent
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
