package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/joho/godotenv"
)

// Config is the resolved runtime configuration. Values come from the
// process environment (optionally seeded by a .env file) or, when
// USE_SSM=true, from AWS SSM Parameter Store under SSM_BASE_PATH/STAGE
// with the environment as fallback.
type Config struct {
	// MySQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (activity-log buffer, token blacklist, notification queue)
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Auth
	JWTSecret    string
	JWTExpiresIn time.Duration

	// AWS (log archive uploads)
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3BucketName       string

	// HTTP
	Port   string
	AppEnv string

	// Timetable import upload cap, bytes
	MaxFileSize int64

	LogLevel string
	LogFile  string

	// Toggles
	UseRedisNotifications bool
	SkipMigrate           bool
	RunSeeders            bool
}

// GetDSN builds the MySQL DSN for the GORM driver.
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?charset=utf8mb4&parseTime=True&loc=Local"
}

var AppConfig *Config

// lookup resolves a key against the SSM parameter map first, then the
// environment, then the default. SSM keys are stored uppercase.
type lookup struct {
	params map[string]string
}

func (l lookup) get(key, def string) string {
	key = strings.ToUpper(key)
	if v, ok := l.params[key]; ok && v != "" {
		return v
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (l lookup) getBool(key string, def bool) bool {
	v := l.get(key, strconv.FormatBool(def))
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func LoadConfig() {
	src := lookup{}

	if strings.EqualFold(os.Getenv("USE_SSM"), "true") {
		prefix := ssmPrefix()
		log.Printf("Loading configuration from SSM Parameter Store (prefix=%s)", prefix)
		src.params = fetchSSMParameters(prefix)
	} else if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading process environment only")
	}

	AppConfig = &Config{
		DBHost:     src.get("DB_HOST", "localhost"),
		DBPort:     src.get("DB_PORT", "3306"),
		DBUser:     src.get("DB_USER", "root"),
		DBPassword: src.get("DB_PASSWORD", ""),
		DBName:     src.get("DB_NAME", "classtrack"),

		RedisHost:     src.get("REDIS_HOST", "localhost"),
		RedisPort:     src.get("REDIS_PORT", "6379"),
		RedisPassword: src.get("REDIS_PASSWORD", ""),

		JWTSecret:    src.get("JWT_SECRET", "classtrack_dev_secret"),
		JWTExpiresIn: parseExpiry(src.get("JWT_EXPIRES_IN", "24h")),

		AWSRegion:          src.get("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:     src.get("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: src.get("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:       src.get("S3_BUCKET_NAME", "classtrack-archives"),

		Port:   src.get("PORT", "3000"),
		AppEnv: src.get("APP_ENV", "development"),

		MaxFileSize: parseSize(src.get("MAX_FILE_SIZE", "10485760")),

		LogLevel: src.get("LOG_LEVEL", "info"),
		LogFile:  src.get("LOG_FILE", "logs/app.log"),

		UseRedisNotifications: src.getBool("USE_REDIS_NOTIFICATIONS", false),
		SkipMigrate:           src.getBool("SKIP_MIGRATE", false),
		RunSeeders:            src.getBool("RUN_SEEDERS", false),
	}

	AppConfig.validate()
}

func ssmPrefix() string {
	base := strings.TrimRight(envOr("SSM_BASE_PATH", "/classtrack"), "/")
	stage := envOr("STAGE", envOr("APP_ENV", "production"))
	return base + "/" + stage
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseExpiry accepts Go duration syntax plus the d/w shorthands used in
// deployment manifests ("7d", "2w").
func parseExpiry(raw string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	s := strings.TrimSpace(strings.ToLower(raw))
	if len(s) > 1 {
		if n, err := strconv.Atoi(s[:len(s)-1]); err == nil {
			switch s[len(s)-1] {
			case 'd':
				return time.Duration(n) * 24 * time.Hour
			case 'w':
				return time.Duration(n) * 7 * 24 * time.Hour
			}
		}
	}
	log.Fatalf("Invalid JWT_EXPIRES_IN value %q", raw)
	return 0
}

func parseSize(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Fatalf("Invalid MAX_FILE_SIZE value %q", raw)
	}
	return n
}

// fetchSSMParameters pages through every parameter under prefix. The last
// path segment becomes the (uppercased) key. Errors degrade to the
// environment rather than aborting startup.
func fetchSSMParameters(prefix string) map[string]string {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(envOr("AWS_REGION", "ap-south-1"))})
	if err != nil {
		log.Fatal("Failed to create AWS session:", err)
	}
	client := ssm.New(sess)

	out := make(map[string]string)
	var next *string
	for {
		resp, err := client.GetParametersByPath(&ssm.GetParametersByPathInput{
			Path:           aws.String(prefix),
			WithDecryption: aws.Bool(true),
			Recursive:      aws.Bool(true),
			NextToken:      next,
		})
		if err != nil {
			log.Printf("Warning: SSM fetch failed for %s: %v", prefix, err)
			return out
		}
		for _, p := range resp.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			key := *p.Name
			if idx := strings.LastIndex(key, "/"); idx >= 0 {
				key = key[idx+1:]
			}
			if key != "" {
				out[strings.ToUpper(key)] = *p.Value
			}
		}
		if resp.NextToken == nil || *resp.NextToken == "" {
			return out
		}
		next = resp.NextToken
	}
}

// validate enforces the secrets contract in production; development runs
// with the defaults.
func (c *Config) validate() {
	if !strings.EqualFold(c.AppEnv, "production") {
		return
	}
	if strings.TrimSpace(c.DBPassword) == "" {
		log.Fatal("DB_PASSWORD is required in production")
	}
	if strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == "classtrack_dev_secret" {
		log.Fatal("JWT_SECRET is required in production")
	}
	if len(c.JWTSecret) < 16 {
		log.Fatal("JWT_SECRET too short (min 16 chars)")
	}
}
