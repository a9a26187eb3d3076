package controllers

import (
	"classtrack_go/middleware"
	"classtrack_go/services"
	"classtrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type SubstitutionController struct{}

// FindSubstitutes lists teachers of the requesting teacher's department who
// are free for the given slot
func (sc *SubstitutionController) FindSubstitutes(c *fiber.Ctx) error {
	teacher, err := currentTeacher(c)
	if err != nil {
		return err
	}

	date := c.Query("date")
	start := c.Query("start_time")
	end := c.Query("end_time")
	batchID := uint(c.QueryInt("batch_id"))
	subjectID := uint(c.QueryInt("subject_id"))

	candidates, err := services.FindSubstitutes(date, start, end, batchID, subjectID, teacher.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// CreateSubstitution opens a substitution request for one of the requesting
// teacher's classes
func (sc *SubstitutionController) CreateSubstitution(c *fiber.Ctx) error {
	teacher, err := currentTeacher(c)
	if err != nil {
		return err
	}

	var req services.SubstitutionInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := services.CreateSubstitution(req, teacher.ID)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "substitutions", request.ID, fiber.Map{
		"reference_code": request.ReferenceCode,
		"substitute_id":  request.SubstituteTeacherID,
		"date":           req.Date,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Substitution request created",
		"substitution": utils.ToSubstitutionDTO(*request),
	})
}

// GetSubstitution returns one request with its related records
func (sc *SubstitutionController) GetSubstitution(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	request, err := services.GetSubstitution(id)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"substitution": utils.ToSubstitutionDTO(*request)})
}

// ListMySubstitutions lists requests where the current teacher is on either side
func (sc *SubstitutionController) ListMySubstitutions(c *fiber.Ctx) error {
	teacher, err := currentTeacher(c)
	if err != nil {
		return err
	}

	requests, err := services.ListSubstitutionsForTeacher(teacher.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"substitutions": utils.ToSubstitutionDTOs(requests),
		"count":         len(requests),
	})
}

// UpdateStatusRequest is the status transition body
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

// UpdateSubstitutionStatus moves a request through its lifecycle. Only the
// substitute teacher may act on it.
func (sc *SubstitutionController) UpdateSubstitutionStatus(c *fiber.Ctx) error {
	teacher, err := currentTeacher(c)
	if err != nil {
		return err
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := services.UpdateSubstitutionStatus(id, teacher.ID, req.Status, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "substitutions", request.ID, fiber.Map{
		"status": request.Status,
	})

	return c.JSON(fiber.Map{
		"message":      "Substitution updated",
		"substitution": utils.ToSubstitutionDTO(*request),
	})
}

// CancelSubstitution cancels a non-terminal request. Only the original
// teacher may cancel.
func (sc *SubstitutionController) CancelSubstitution(c *fiber.Ctx) error {
	teacher, err := currentTeacher(c)
	if err != nil {
		return err
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	request, err := services.CancelSubstitution(id, teacher.ID)
	if err != nil {
		return serviceError(c, err)
	}

	middleware.LogActivity(c, "UPDATE", "substitutions", request.ID, fiber.Map{
		"status": request.Status,
	})

	return c.JSON(fiber.Map{
		"message":      "Substitution cancelled",
		"substitution": utils.ToSubstitutionDTO(*request),
	})
}
