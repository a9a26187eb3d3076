package database

import (
	"context"
	"fmt"
	"time"

	"classtrack_go/config"
	"classtrack_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the shared GORM handle; every service and controller goes
// through it. RedisClient is nil when Redis is unreachable, and callers
// treat that as "work directly against MySQL".
var (
	DB          *gorm.DB
	RedisClient *redis.Client
)

// Connect opens MySQL (with retry) and Redis, and runs migrations unless
// SKIP_MIGRATE is set.
func Connect() {
	openMySQL()
	openRedis()
}

const connectAttempts = 8

func openMySQL() {
	gormLog := logger.Default.LogMode(logger.Silent)
	if config.AppConfig.AppEnv == "development" {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	dsn := config.AppConfig.GetDSN()
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLog})
		if err == nil {
			break
		}
		logrus.WithError(err).Warnf("MySQL connect attempt %d/%d failed", attempt, connectAttempts)
		// quadratic backoff, container networking is slow to settle
		time.Sleep(time.Duration(attempt*attempt) * 300 * time.Millisecond)
	}
	if err != nil {
		logrus.WithError(err).Fatal("Could not connect to MySQL")
	}
	logrus.Info("MySQL connected")

	sqlDB, err := DB.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Could not access underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(55 * time.Minute)

	if !config.AppConfig.SkipMigrate {
		AutoMigrate()
	}
}

// AutoMigrate creates or alters every table the application owns.
func AutoMigrate() {
	err := DB.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Teacher{},
		&models.Student{},
		&models.Batch{},
		&models.Subject{},
		&models.DaySchedule{},
		&models.TimeSlot{},
		&models.SubstitutionRequest{},
		&models.AttendanceSession{},
		&models.AttendanceRecord{},
		&models.ActivityLog{},
		&models.Notification{},
		&models.LogArchive{},
	)
	if err != nil {
		logrus.WithError(err).Fatal("Migration failed")
	}
	logrus.Info("Migration complete")
}

func openRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
	})

	if _, err := RedisClient.Ping(context.Background()).Result(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, activity logs will be written straight to MySQL")
		RedisClient = nil
		return
	}
	logrus.Info("Redis connected")
}

func GetDB() *gorm.DB { return DB }

func GetRedisClient() *redis.Client { return RedisClient }

// Close releases the MySQL pool. Called on shutdown paths only.
func Close() {
	sqlDB, err := DB.DB()
	if err != nil {
		logrus.WithError(err).Warn("Could not access sql.DB on close")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing MySQL pool")
	}
}
