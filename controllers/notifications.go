package controllers

import (
	"time"

	"classtrack_go/database"
	"classtrack_go/middleware"
	"classtrack_go/models"
	"classtrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct{}

// GetNotifications lists the current user's notifications, newest first
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := database.DB.Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("`read` = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load notifications"})
	}

	return c.JSON(fiber.Map{
		"notifications": utils.ToNotificationDTOs(notifications),
		"count":         len(notifications),
	})
}

// GetUnreadCount returns the number of unread notifications
func (nc *NotificationController) GetUnreadCount(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", user.ID, false).
		Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count notifications"})
	}

	return c.JSON(fiber.Map{"unread": count})
}

// MarkAsRead marks one notification of the current user as read
func (nc *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid id"})
	}

	var notification models.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&notification).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	now := time.Now()
	if err := database.DB.Model(&notification).Updates(map[string]interface{}{
		"read":    true,
		"read_at": &now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllAsRead marks every unread notification of the current user as read
func (nc *NotificationController) MarkAllAsRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", user.ID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"message": "All notifications marked as read",
		"updated": result.RowsAffected,
	})
}
