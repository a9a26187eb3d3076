package controllers

import (
	"strconv"

	"classtrack_go/database"
	"classtrack_go/middleware"
	"classtrack_go/models"
	"classtrack_go/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TimetableController struct{}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// currentTeacher resolves the teacher profile of the authenticated user.
// Admins have no teacher profile, so teacher-scoped endpoints reject them.
func currentTeacher(c *fiber.Ctx) (*models.Teacher, error) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return nil, err
	}
	var teacher models.Teacher
	if err := database.DB.Where("user_id = ?", user.ID).First(&teacher).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "No teacher profile for current user")
	}
	return &teacher, nil
}

// GetDaySchedule returns the timetable of a batch for one weekday
func (tc *TimetableController) GetDaySchedule(c *fiber.Ctx) error {
	batchID, err := paramUint(c, "batch_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	weekday := c.Params("weekday")
	if !services.IsValidWeekday(weekday) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid weekday"})
	}

	schedule, err := services.GetDaySchedule(batchID, weekday)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"schedule": schedule})
}

// GetWeekSchedule returns all day schedules of a batch
func (tc *TimetableController) GetWeekSchedule(c *fiber.Ctx) error {
	batchID, err := paramUint(c, "batch_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	var schedules []models.DaySchedule
	if err := database.DB.
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("start_time") }).
		Preload("Slots.Subject").
		Preload("Slots.Teacher").
		Where("batch_id = ?", batchID).
		Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load schedules"})
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}

// UpsertDayScheduleRequest is the timetable update body
type UpsertDayScheduleRequest struct {
	Slots []services.SlotInput `json:"slots"`
}

// UpsertDaySchedule replaces the timetable of a batch for one weekday (admin only)
func (tc *TimetableController) UpsertDaySchedule(c *fiber.Ctx) error {
	batchID, err := paramUint(c, "batch_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	weekday := c.Params("weekday")

	var req UpsertDayScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	schedule, err := services.UpsertDaySchedule(batchID, weekday, req.Slots)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "timetable", schedule.ID, fiber.Map{
		"batch_id": batchID,
		"weekday":  weekday,
		"slots":    len(req.Slots),
	})

	return c.JSON(fiber.Map{
		"message":  "Schedule saved successfully",
		"schedule": schedule,
	})
}
