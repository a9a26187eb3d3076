package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"classtrack_go/database"
	"classtrack_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// logQueueKey is the sorted set the maintenance flush job drains; member
// keys hold the serialized log entries with a 24h TTL.
const (
	logQueueKey = "logs:queue"
	logEntryTTL = 24 * time.Hour
)

// LoggerMiddleware emits one structured line per request.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logrus.WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
			"ip":       c.IP(),
		}).Info("request")

		return err
	}
}

// LogActivity records a user action in the activity log. Entries buffer
// in Redis and are flushed to MySQL by the maintenance scheduler; without
// Redis they are written to MySQL directly. Never blocks the request.
func LogActivity(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) {
	// Unauthenticated callers are recorded as the system user (id 0).
	var userID uint
	if user, err := GetCurrentUser(c); err == nil {
		userID = user.ID
	}

	var detailsJSON models.JSON
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			detailsJSON = raw
		}
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}
	entry.CreatedAt = time.Now()

	go persistActivityLog(entry)
}

func persistActivityLog(entry models.ActivityLog) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("activity log writer panicked")
		}
	}()

	if err := bufferActivityLog(entry); err == nil {
		return
	}
	if database.DB == nil {
		logrus.Error("no database handle, activity log dropped")
		return
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		logrus.WithError(err).Error("failed to persist activity log")
	}
}

// bufferActivityLog writes the entry into Redis under a collision-free
// key and registers it on the flush queue.
func bufferActivityLog(entry models.ActivityLog) error {
	client := database.GetRedisClient()
	if client == nil {
		return fmt.Errorf("redis unavailable")
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	ctx := context.Background()
	key := fmt.Sprintf("log:%d:%s:%d", entry.UserID, entry.Action, time.Now().UnixNano())
	if err := client.Set(ctx, key, raw, logEntryTTL).Err(); err != nil {
		return err
	}
	if err := client.ZAdd(ctx, logQueueKey, &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: key,
	}).Err(); err != nil {
		logrus.WithError(err).Error("failed to enqueue activity log for flushing")
	}
	return nil
}

// LogActivityMiddleware records successful mutating requests. Reads and
// auth endpoints (which log explicitly) are skipped.
func LogActivityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || strings.Contains(c.Path(), "/auth/") {
			return c.Next()
		}

		err := c.Next()

		action := methodAction(c.Method())
		if action == "" {
			return err
		}
		if c.Response().StatusCode() < 400 {
			LogActivity(c, action, resourceFromPath(c.Path()), paramID(c), nil)
		}
		return err
	}
}

func methodAction(method string) string {
	switch method {
	case fiber.MethodPost:
		return "CREATE"
	case fiber.MethodPut, fiber.MethodPatch:
		return "UPDATE"
	case fiber.MethodDelete:
		return "DELETE"
	}
	return ""
}

// resourceFromPath takes the segment after the /api prefix.
func resourceFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

func paramID(c *fiber.Ctx) uint {
	if raw := c.Params("id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			return uint(id)
		}
	}
	return 0
}
