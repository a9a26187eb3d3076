package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"classtrack_go/config"
	"classtrack_go/database"
	"classtrack_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Payload is the queue item stored in Redis. Kept minimal: the DB write
// is the source of truth, the queue only smooths write bursts. If Redis
// is disabled or unavailable the service falls back to a direct insert.
type Payload struct {
	UserIDs   []uint    `json:"user_ids"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const redisListKey = "notifications:queue"

// WSHub interface for WebSocket broadcasting
type WSHub interface {
	BroadcastToUser(userID uint, message interface{})
}

// defaultHub lets services created in different parts of the app (e.g.
// schedulers) broadcast over the same WebSocket hub without manual wiring.
var defaultHub WSHub

// SetDefaultWSHub sets the package-level default hub used by new Service
// instances.
func SetDefaultWSHub(h WSHub) {
	defaultHub = h
}

// Service exposes notification creation with an optional Redis queue.
type Service struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
	wsHub    WSHub
}

func NewService() *Service {
	return &Service{
		db:       database.GetDB(),
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig != nil && config.AppConfig.UseRedisNotifications && database.GetRedisClient() != nil,
		wsHub:    defaultHub,
	}
}

// SetWebSocketHub sets the WebSocket hub for real-time notifications
func (s *Service) SetWebSocketHub(hub WSHub) {
	s.wsHub = hub
}

// Notify stores a notification using the Redis queue if enabled, else a
// direct insert.
func (s *Service) Notify(p Payload) error {
	if len(p.UserIDs) == 0 {
		return errors.New("no user ids")
	}
	p.CreatedAt = time.Now().UTC()

	if s.useRedis {
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if err = s.redis.RPush(context.Background(), redisListKey, b).Err(); err == nil {
			return nil // queued successfully
		}
		logrus.WithError(err).Warn("notification queue push failed, inserting directly")
	}

	return s.createDirect(p)
}

// createDirect writes directly to DB (used by worker or fallback).
func (s *Service) createDirect(p Payload) error {
	if len(p.UserIDs) == 0 {
		return nil
	}
	notifs := make([]models.Notification, 0, len(p.UserIDs))
	for _, uid := range p.UserIDs {
		notifs = append(notifs, models.Notification{
			UserID:  uid,
			Title:   p.Title,
			Message: p.Message,
			Type:    p.Type,
			Read:    false,
		})
	}

	if err := s.db.Create(&notifs).Error; err != nil {
		return err
	}

	if s.wsHub != nil {
		for _, notif := range notifs {
			message := map[string]interface{}{
				"type": "notification",
				"data": notif,
			}
			if p.Data != nil {
				message["payload"] = p.Data
			}
			s.wsHub.BroadcastToUser(notif.UserID, message)
		}
	}

	return nil
}

// StartWorker starts a background worker polling the Redis queue and
// flushing to DB.
func (s *Service) StartWorker(stop <-chan struct{}) {
	if !s.useRedis {
		logrus.Info("redis notification queue disabled, worker not started")
		return
	}
	go func() {
		logrus.Info("notification queue worker started")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		batchSize := 200
		for {
			select {
			case <-stop:
				logrus.Info("notification queue worker stopping")
				return
			case <-ticker.C:
				s.flushBatch(ctx, batchSize)
			}
		}
	}()
}

// flushBatch polls the Redis queue and processes notifications in batches.
func (s *Service) flushBatch(ctx context.Context, batchSize int) {
	if s.redis == nil {
		return
	}
	// LRange + LTrim keeps this safe for moderate concurrency
	for i := 0; i < 5; i++ { // up to 5 sub-batches per tick
		vals, err := s.redis.LRange(ctx, redisListKey, 0, int64(batchSize-1)).Result()
		if err != nil || len(vals) == 0 {
			return
		}
		if err = s.redis.LTrim(ctx, redisListKey, int64(len(vals)), -1).Err(); err != nil {
			logrus.WithError(err).Warn("notification queue trim failed")
		}
		for _, raw := range vals {
			var p Payload
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				continue
			}
			if err := s.createDirect(p); err != nil {
				logrus.WithError(err).Error("notification insert failed")
			}
		}
		if len(vals) < batchSize {
			return
		}
	}
}
