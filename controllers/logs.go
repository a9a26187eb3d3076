package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"classtrack_go/database"
	"classtrack_go/models"
	"classtrack_go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 100
)

type LogController struct {
	archiveService *services.LogArchiveService
}

func NewLogController() *LogController {
	return &LogController{archiveService: services.NewLogArchiveService()}
}

// LogResponse is an activity log entry with its JSON details decoded and
// the acting user flattened to the fields clients actually render.
type LogResponse struct {
	ID         uint                   `json:"id"`
	UserID     uint                   `json:"user_id"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID uint                   `json:"resource_id"`
	Details    map[string]interface{} `json:"details"`
	IPAddress  string                 `json:"ip_address"`
	UserAgent  string                 `json:"user_agent"`
	CreatedAt  time.Time              `json:"created_at"`
	User       *UserBasicInfo         `json:"user,omitempty"`
}

type UserBasicInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toLogResponse(entry models.ActivityLog) LogResponse {
	resp := LogResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		CreatedAt:  entry.CreatedAt,
	}
	if len(entry.Details) > 0 {
		// Malformed details are left out rather than failing the listing.
		_ = json.Unmarshal(entry.Details, &resp.Details)
	}
	if entry.User.ID > 0 {
		resp.User = &UserBasicInfo{
			ID:       entry.User.ID,
			Username: entry.User.Username,
			Role:     entry.User.Role,
		}
	}
	return resp
}

// applyLogFilters narrows a log query by the supported query parameters.
// Date bounds are inclusive on both ends, so end_date covers the whole day.
func applyLogFilters(c *fiber.Ctx, query *gorm.DB) *gorm.DB {
	for _, col := range []string{"user_id", "action", "resource"} {
		if v := c.Query(col); v != "" {
			query = query.Where(col+" = ?", v)
		}
	}
	if from, err := time.Parse("2006-01-02", c.Query("start_date")); err == nil {
		query = query.Where("created_at >= ?", from)
	}
	if until, err := time.Parse("2006-01-02", c.Query("end_date")); err == nil {
		query = query.Where("created_at <= ?", until.Add(24*time.Hour))
	}
	return query
}

// GetLogs lists activity logs newest first, paginated and filterable by
// user_id, action, resource and a start_date/end_date window.
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultLogPageSize)
	if limit < 1 || limit > maxLogPageSize {
		limit = defaultLogPageSize
	}

	query := applyLogFilters(c, database.DB.Model(&models.ActivityLog{}).Preload("User"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logrus.WithError(err).Error("activity log count failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve logs count",
		})
	}

	var entries []models.ActivityLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		logrus.WithError(err).Error("activity log listing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve logs",
		})
	}

	logs := make([]LogResponse, len(entries))
	for i, entry := range entries {
		logs[i] = toLogResponse(entry)
	}

	return c.JSON(fiber.Map{
		"logs":        logs,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
	})
}

// GetLog returns a single activity log entry by ID.
func (lc *LogController) GetLog(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid log ID"})
	}

	var entry models.ActivityLog
	if err := database.DB.Preload("User").First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Log not found"})
		}
		logrus.WithError(err).Error("activity log lookup failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve log"})
	}

	return c.JSON(toLogResponse(entry))
}

// FlushCachedLogs drains the Redis log buffer into MySQL on demand. Admin only.
func (lc *LogController) FlushCachedLogs(c *fiber.Ctx) error {
	if err := lc.archiveService.FlushCachedLogsToDatabase(); err != nil {
		logrus.WithError(err).Error("manual log flush failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to flush cached logs"})
	}
	return c.JSON(fiber.Map{"message": "Cached logs flushed to database"})
}

// ArchiveLogs zips logs older than the given number of days off to S3.
// Admin only; days below 7 are rejected to protect recent history.
func (lc *LogController) ArchiveLogs(c *fiber.Ctx) error {
	days := c.QueryInt("days", 90)
	if days < 7 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid days parameter (minimum 7)"})
	}

	if err := lc.archiveService.ArchiveOldLogs(days); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logrus.WithError(err).Error("log archival failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to archive logs"})
	}

	return c.JSON(fiber.Map{"message": "Logs archived successfully"})
}

// GetArchives lists the archive catalog, newest first. Admin only.
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	archives, err := lc.archiveService.GetArchivedLogs()
	if err != nil {
		logrus.WithError(err).Error("archive listing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list archives"})
	}
	return c.JSON(fiber.Map{"archives": archives, "count": len(archives)})
}

// DownloadArchive streams one archive ZIP back from S3. Admin only.
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid archive ID"})
	}

	reader, fileName, err := lc.archiveService.DownloadArchivedLogs(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Archive not found"})
		}
		logrus.WithError(err).Error("archive download failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to download archive"})
	}

	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", "attachment; filename="+fileName)
	return c.SendStream(reader)
}
