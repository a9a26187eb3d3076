package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"classtrack_go/database"
	"classtrack_go/models"
	"classtrack_go/storage"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const archiveBatchSize = 1000

// LogArchiveService drains the Redis activity-log buffer into MySQL and
// ships aged rows to S3 as zipped JSON/CSV exports.
type LogArchiveService struct {
	redis *redis.Client
	store *storage.ArchiveStore
}

func NewLogArchiveService() *LogArchiveService {
	return &LogArchiveService{
		redis: database.GetRedisClient(),
		store: storage.NewArchiveStore(),
	}
}

// ArchivedLog is the export row written into archive files. User fields
// are denormalized so the archive stays readable after accounts change.
type ArchivedLog struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	Username   string         `json:"username,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
}

// FlushCachedLogsToDatabase moves buffered entries older than the TTL
// window from Redis into MySQL. Entries that fail stay queued for the
// next run.
func (s *LogArchiveService) FlushCachedLogsToDatabase() error {
	if s.redis == nil {
		return fmt.Errorf("redis unavailable")
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)
	keys, err := s.redis.ZRangeByScore(ctx, "logs:queue", &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("reading flush queue: %w", err)
	}

	flushed, failed := 0, 0
	for _, key := range keys {
		if err := s.flushEntry(ctx, key); err != nil {
			if !errors.Is(err, redis.Nil) {
				logrus.WithError(err).WithField("key", key).Error("activity log flush failed")
				failed++
			}
			continue
		}
		flushed++
	}

	logrus.WithFields(logrus.Fields{"flushed": flushed, "failed": failed}).Info("activity log flush complete")
	return nil
}

func (s *LogArchiveService) flushEntry(ctx context.Context, key string) error {
	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	var entry models.ActivityLog
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return err
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		return err
	}

	pipe := s.redis.Pipeline()
	pipe.Del(ctx, key)
	pipe.ZRem(ctx, "logs:queue", key)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("flushed entry left in cache")
	}
	return nil
}

// ArchiveOldLogs zips every activity log older than daysOld, uploads the
// archive to S3, deletes the rows, and records a LogArchive catalog
// entry. daysOld below 7 is refused.
func (s *LogArchiveService) ArchiveOldLogs(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("%w: minimum archive age is 7 days", ErrInvalidInput)
	}
	cutoff := time.Now().AddDate(0, 0, -daysOld)

	rows, err := s.collectRows(cutoff)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		logrus.Info("no activity logs old enough to archive")
		return nil
	}

	fileName := fmt.Sprintf("activity_logs_%s.zip", cutoff.Format("2006-01-02"))
	buf, err := buildArchiveZip(rows, fileName)
	if err != nil {
		return fmt.Errorf("building archive: %w", err)
	}

	s3Key := fmt.Sprintf("logs/archived/%d/%02d/%s", cutoff.Year(), cutoff.Month(), fileName)
	if err := s.store.Upload(context.Background(), s3Key, buf); err != nil {
		return fmt.Errorf("uploading archive: %w", err)
	}

	result := database.DB.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return fmt.Errorf("deleting archived rows: %w", result.Error)
	}
	logrus.WithFields(logrus.Fields{
		"s3_key":  s3Key,
		"records": len(rows),
		"deleted": result.RowsAffected,
	}).Info("activity logs archived")

	earliest, _ := archiveDateRange(rows)
	catalog := models.LogArchive{
		FileName:    fileName,
		S3Key:       s3Key,
		StartDate:   earliest,
		EndDate:     cutoff,
		RecordCount: len(rows),
		FileSize:    int64(buf.Len()),
		Status:      "completed",
	}
	if err := database.DB.Create(&catalog).Error; err != nil {
		logrus.WithError(err).Error("failed to record archive catalog entry")
	}
	return nil
}

func (s *LogArchiveService) collectRows(cutoff time.Time) ([]ArchivedLog, error) {
	var out []ArchivedLog
	for offset := 0; ; offset += archiveBatchSize {
		var batch []models.ActivityLog
		err := database.DB.Preload("User").
			Where("created_at < ?", cutoff).
			Order("created_at ASC").
			Limit(archiveBatchSize).Offset(offset).
			Find(&batch).Error
		if err != nil {
			return nil, fmt.Errorf("fetching logs to archive: %w", err)
		}
		if len(batch) == 0 {
			return out, nil
		}
		for _, row := range batch {
			out = append(out, exportRow(row))
		}
	}
}

func exportRow(row models.ActivityLog) ArchivedLog {
	out := ArchivedLog{
		ID:         row.ID,
		UserID:     row.UserID,
		Action:     row.Action,
		Resource:   row.Resource,
		ResourceID: row.ResourceID,
		IPAddress:  row.IPAddress,
		UserAgent:  row.UserAgent,
		CreatedAt:  row.CreatedAt,
	}
	if len(row.Details) > 0 {
		_ = json.Unmarshal(row.Details, &out.Details)
	}
	if row.User.ID > 0 {
		out.Username = row.User.Username
		out.UserRole = row.User.Role
	}
	return out
}

// archiveDateRange returns the earliest and latest created_at among the
// rows, independent of their order. Rows must be non-empty.
func archiveDateRange(rows []ArchivedLog) (time.Time, time.Time) {
	start, end := rows[0].CreatedAt, rows[0].CreatedAt
	for _, row := range rows[1:] {
		if row.CreatedAt.Before(start) {
			start = row.CreatedAt
		}
		if row.CreatedAt.After(end) {
			end = row.CreatedAt
		}
	}
	return start, end
}

// buildArchiveZip writes three members: the full JSON export, a
// metadata.json summary, and a CSV rendering for spreadsheet use.
func buildArchiveZip(rows []ArchivedLog, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	rangeStart, rangeEnd := archiveDateRange(rows)

	jsonMember, err := zw.Create("activity_logs.json")
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(jsonMember)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(rows),
		"format_version": "1.0",
		"logs":           rows,
	}); err != nil {
		return nil, err
	}

	metaMember, err := zw.Create("metadata.json")
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(metaMember).Encode(map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(rows),
		"date_range": map[string]any{
			"start": rangeStart,
			"end":   rangeEnd,
		},
		"description": "ClassTrack activity log archive",
	}); err != nil {
		return nil, err
	}

	csvMember, err := zw.Create("activity_logs.csv")
	if err != nil {
		return nil, err
	}
	cw := csv.NewWriter(csvMember)
	if err := cw.Write([]string{"id", "user_id", "username", "role", "action", "resource", "resource_id", "ip_address", "user_agent", "created_at", "details"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		details := ""
		if row.Details != nil {
			if raw, err := json.Marshal(row.Details); err == nil {
				details = string(raw)
			}
		}
		if err := cw.Write([]string{
			strconv.FormatUint(uint64(row.ID), 10),
			strconv.FormatUint(uint64(row.UserID), 10),
			row.Username,
			row.UserRole,
			row.Action,
			row.Resource,
			strconv.FormatUint(uint64(row.ResourceID), 10),
			row.IPAddress,
			row.UserAgent,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
			details,
		}); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// GetArchivedLogs lists the archive catalog, newest first.
func (s *LogArchiveService) GetArchivedLogs() ([]models.LogArchive, error) {
	var archives []models.LogArchive
	if err := database.DB.Order("created_at DESC").Find(&archives).Error; err != nil {
		return nil, err
	}
	return archives, nil
}

// DownloadArchivedLogs streams one archive back from S3.
func (s *LogArchiveService) DownloadArchivedLogs(archiveID uint) (io.ReadCloser, string, error) {
	var archive models.LogArchive
	if err := database.DB.First(&archive, archiveID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: archive %d", ErrNotFound, archiveID)
		}
		return nil, "", err
	}

	reader, err := s.store.Download(context.Background(), archive.S3Key)
	if err != nil {
		return nil, "", fmt.Errorf("downloading %s: %w", archive.S3Key, err)
	}
	return reader, archive.FileName, nil
}
