package controllers

import (
	"classtrack_go/database"
	"classtrack_go/models"

	"github.com/gofiber/fiber/v2"
)

// DirectoryController serves the reference data the timetable and
// attendance surfaces are built from
type DirectoryController struct{}

// GetDepartments lists active departments
func (dc *DirectoryController) GetDepartments(c *fiber.Ctx) error {
	var departments []models.Department
	if err := database.DB.Where("active = ?", true).Order("code").Find(&departments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load departments"})
	}
	return c.JSON(fiber.Map{"departments": departments})
}

// GetBatches lists batches, optionally scoped to a department
func (dc *DirectoryController) GetBatches(c *fiber.Ctx) error {
	query := database.DB.Order("code")
	if departmentID := c.QueryInt("department_id"); departmentID > 0 {
		query = query.Where("department_id = ?", departmentID)
	}

	var batches []models.Batch
	if err := query.Find(&batches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load batches"})
	}
	return c.JSON(fiber.Map{"batches": batches})
}

// GetSubjects lists subjects, optionally scoped to a department
func (dc *DirectoryController) GetSubjects(c *fiber.Ctx) error {
	query := database.DB.Order("code")
	if departmentID := c.QueryInt("department_id"); departmentID > 0 {
		query = query.Where("department_id = ?", departmentID)
	}

	var subjects []models.Subject
	if err := query.Find(&subjects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load subjects"})
	}
	return c.JSON(fiber.Map{"subjects": subjects})
}

// GetTeachers lists active teachers with their subjects, optionally scoped
// to a department
func (dc *DirectoryController) GetTeachers(c *fiber.Ctx) error {
	query := database.DB.Preload("Subjects").Where("active = ?", true).Order("name")
	if departmentID := c.QueryInt("department_id"); departmentID > 0 {
		query = query.Where("department_id = ?", departmentID)
	}

	var teachers []models.Teacher
	if err := query.Find(&teachers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load teachers"})
	}
	return c.JSON(fiber.Map{"teachers": teachers, "count": len(teachers)})
}

// GetStudents lists the students of a batch in roll number order
func (dc *DirectoryController) GetStudents(c *fiber.Ctx) error {
	batchID, err := paramUint(c, "batch_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	var students []models.Student
	if err := database.DB.Where("batch_id = ?", batchID).Order("roll_number").Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load students"})
	}
	return c.JSON(fiber.Map{"students": students, "count": len(students)})
}
