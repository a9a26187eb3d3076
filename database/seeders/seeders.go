package seeders

import (
	"classtrack_go/database"
	"classtrack_go/models"
	"classtrack_go/utils"

	"github.com/sirupsen/logrus"
)

// SeedAll populates an empty database with a small demo dataset. Each
// seeder is idempotent and skips when its table already has rows.
func SeedAll() {
	logrus.Info("seeding database")

	SeedDepartments()
	SeedBatches()
	SeedSubjects()
	SeedUsers()
	SeedTimetable()

	logrus.Info("database seeding finished")
}

func alreadySeeded(model interface{}, table string) bool {
	var count int64
	database.DB.Model(model).Count(&count)
	if count > 0 {
		logrus.Debugf("%s already seeded, skipping", table)
		return true
	}
	return false
}

func createAll(table string, rows ...interface{}) {
	for _, row := range rows {
		if err := database.DB.Create(row).Error; err != nil {
			logrus.WithError(err).Warnf("seeding %s row failed", table)
		}
	}
}

func SeedDepartments() {
	if alreadySeeded(&models.Department{}, "departments") {
		return
	}

	createAll("departments",
		&models.Department{BaseModel: models.BaseModel{ID: 1}, Name: "Computer Science & Engineering", Code: "CSE", Active: true},
		&models.Department{BaseModel: models.BaseModel{ID: 2}, Name: "Electronics & Communication", Code: "ECE", Active: true},
	)
}

func SeedBatches() {
	if alreadySeeded(&models.Batch{}, "batches") {
		return
	}

	createAll("batches",
		&models.Batch{BaseModel: models.BaseModel{ID: 1}, Name: "CSE 2023", Code: "CSE-2023-A", DepartmentID: 1, IntakeYear: 2023, Section: "A", Active: true},
		&models.Batch{BaseModel: models.BaseModel{ID: 2}, Name: "CSE 2024", Code: "CSE-2024-A", DepartmentID: 1, IntakeYear: 2024, Section: "A", Active: true},
		&models.Batch{BaseModel: models.BaseModel{ID: 3}, Name: "ECE 2024", Code: "ECE-2024-A", DepartmentID: 2, IntakeYear: 2024, Section: "A", Active: true},
	)
}

func SeedSubjects() {
	if alreadySeeded(&models.Subject{}, "subjects") {
		return
	}

	createAll("subjects",
		&models.Subject{BaseModel: models.BaseModel{ID: 1}, Name: "Computer Networks", Code: "CS301", DepartmentID: 1, Semester: 5, Credits: 4},
		&models.Subject{BaseModel: models.BaseModel{ID: 2}, Name: "Operating Systems", Code: "CS302", DepartmentID: 1, Semester: 5, Credits: 4},
		&models.Subject{BaseModel: models.BaseModel{ID: 3}, Name: "Database Systems", Code: "CS303", DepartmentID: 1, Semester: 5, Credits: 3},
		&models.Subject{BaseModel: models.BaseModel{ID: 4}, Name: "Digital Signal Processing", Code: "EC301", DepartmentID: 2, Semester: 5, Credits: 4},
	)
}

// SeedUsers creates login accounts together with their teacher and
// student profiles, all sharing the demo password.
func SeedUsers() {
	if alreadySeeded(&models.User{}, "users") {
		return
	}

	hashed, _ := utils.HashPassword("password123")

	createAll("users",
		&models.User{BaseModel: models.BaseModel{ID: 1}, Username: "admin", Password: hashed, Email: "admin@classtrack.edu", Role: "admin", Status: "active"},
		&models.User{BaseModel: models.BaseModel{ID: 2}, Username: "asharma", Password: hashed, Email: "a.sharma@classtrack.edu", Role: "teacher", Status: "active"},
		&models.User{BaseModel: models.BaseModel{ID: 3}, Username: "rverma", Password: hashed, Email: "r.verma@classtrack.edu", Role: "teacher", Status: "active"},
		&models.User{BaseModel: models.BaseModel{ID: 4}, Username: "pgupta", Password: hashed, Email: "p.gupta@classtrack.edu", Role: "teacher", Status: "active"},
	)

	createAll("teachers",
		&models.Teacher{BaseModel: models.BaseModel{ID: 1}, UserID: 2, Name: "Anita Sharma", Email: "a.sharma@classtrack.edu", Designation: "Assistant Professor", DepartmentID: 1, Active: true},
		&models.Teacher{BaseModel: models.BaseModel{ID: 2}, UserID: 3, Name: "Rahul Verma", Email: "r.verma@classtrack.edu", Designation: "Assistant Professor", DepartmentID: 1, Active: true},
		&models.Teacher{BaseModel: models.BaseModel{ID: 3}, UserID: 4, Name: "Priya Gupta", Email: "p.gupta@classtrack.edu", Designation: "Professor", DepartmentID: 1, Active: true},
	)

	// Subject assignments drive substitute candidate listings.
	database.DB.Exec("INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES (1,1),(1,2),(2,2),(2,3),(3,1),(3,3)")

	createAll("students",
		&models.Student{BaseModel: models.BaseModel{ID: 1}, Name: "Kiran Rao", RollNumber: "CSE23A001", DepartmentID: 1, BatchID: 1},
		&models.Student{BaseModel: models.BaseModel{ID: 2}, Name: "Meera Nair", RollNumber: "CSE23A002", DepartmentID: 1, BatchID: 1},
		&models.Student{BaseModel: models.BaseModel{ID: 3}, Name: "Vikram Singh", RollNumber: "CSE23A003", DepartmentID: 1, BatchID: 1},
	)
}

// SeedTimetable creates a sample Monday schedule for the first batch.
func SeedTimetable() {
	if alreadySeeded(&models.DaySchedule{}, "timetable") {
		return
	}

	uintp := func(v uint) *uint { return &v }

	schedule := models.DaySchedule{
		BatchID: 1,
		Weekday: "Monday",
		Slots: []models.TimeSlot{
			{StartTime: "09:00", EndTime: "10:00", SubjectID: uintp(1), TeacherID: uintp(1), RoomNumber: "101", SortOrder: 1},
			{StartTime: "10:00", EndTime: "11:00", SubjectID: uintp(2), TeacherID: uintp(2), RoomNumber: "101", SortOrder: 2},
			{StartTime: "11:00", EndTime: "11:30", IsBreak: true, SortOrder: 3},
			{StartTime: "11:30", EndTime: "12:30", SubjectID: uintp(3), TeacherID: uintp(3), RoomNumber: "102", SortOrder: 4},
		},
	}

	if err := database.DB.Create(&schedule).Error; err != nil {
		logrus.WithError(err).Warn("seeding timetable failed")
	}
}
