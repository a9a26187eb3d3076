package controllers

import (
	"time"

	"classtrack_go/middleware"
	"classtrack_go/services"
	"classtrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AttendanceController struct{}

func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := services.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkAttendance records attendance for one class slot. Marking the same
// slot twice returns 409.
func (ac *AttendanceController) MarkAttendance(c *fiber.Ctx) error {
	teacher, err := currentTeacher(c)
	if err != nil {
		return err
	}

	var req services.SessionInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := services.MarkAttendance(req, teacher.ID)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "attendance", session.ID, fiber.Map{
		"reference_code": session.ReferenceCode,
		"subject":        session.Subject,
		"batch_id":       session.BatchID,
		"records":        len(session.Records),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attendance marked successfully",
		"session": utils.ToSessionDTO(*session),
	})
}

// ListSessions lists attendance sessions of a batch, optionally bounded by
// from/to dates
func (ac *AttendanceController) ListSessions(c *fiber.Ctx) error {
	batchID, err := paramUint(c, "batch_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date"})
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date"})
	}

	sessions, err := services.ListSessions(batchID, from, to)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"sessions": utils.ToSessionDTOs(sessions),
		"count":    len(sessions),
	})
}

// GetAttendanceMatrix returns the per-student per-subject attendance matrix
// of a batch, with subject-level summaries
func (ac *AttendanceController) GetAttendanceMatrix(c *fiber.Ctx) error {
	departmentID, err := paramUint(c, "department_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid department id"})
	}
	batchID, err := paramUint(c, "batch_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date"})
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date"})
	}

	rows, subjects, summaries, err := services.AttendanceMatrixReport(departmentID, batchID, from, to)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"subjects":  subjects,
		"students":  rows,
		"summaries": summaries,
		"count":     len(rows),
	})
}
