package services

import (
	"context"
	"runtime"
	"time"

	"classtrack_go/config"
	"classtrack_go/database"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthCritical = "critical"
)

// HealthService reports the state of the process and its backing
// services. MySQL down is critical; Redis down only degrades when the
// notification queue depends on it.
type HealthService struct {
	serviceName string
	version     string
	startedAt   time.Time
}

// CheckResult is one dependency probe.
type CheckResult struct {
	Status    string                 `json:"status"`
	LatencyMs int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthReport is the health endpoint body.
type HealthReport struct {
	Status        string                 `json:"status"`
	Service       string                 `json:"service"`
	Version       string                 `json:"version"`
	Environment   string                 `json:"environment"`
	Time          time.Time              `json:"time"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
	Runtime       RuntimeInfo            `json:"runtime"`
}

// RuntimeInfo carries process diagnostics.
type RuntimeInfo struct {
	Goroutines int    `json:"goroutines"`
	AllocBytes uint64 `json:"alloc_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	GoVersion  string `json:"go_version"`
	DBOpen     int    `json:"db_open_connections"`
	DBInUse    int    `json:"db_in_use"`
}

func NewHealthService(serviceName, version string) *HealthService {
	if serviceName == "" {
		serviceName = "ClassTrack API"
	}
	if version == "" {
		version = "1.0.0"
	}
	return &HealthService{serviceName: serviceName, version: version, startedAt: time.Now()}
}

// GetHealthReport probes MySQL and Redis and assembles the report.
func (s *HealthService) GetHealthReport() HealthReport {
	report := HealthReport{
		Status:        healthOK,
		Service:       s.serviceName,
		Version:       s.version,
		Environment:   environmentName(),
		Time:          time.Now().UTC(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Checks:        make(map[string]CheckResult, 2),
	}

	mysqlCheck, dbOpen, dbInUse := s.probeMySQL()
	report.Checks["mysql"] = mysqlCheck
	if mysqlCheck.Status != "up" {
		report.Status = healthCritical
	}

	redisCheck, redisStatus := s.probeRedis()
	report.Checks["redis"] = redisCheck
	if report.Status == healthOK {
		report.Status = redisStatus
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	report.Runtime = RuntimeInfo{
		Goroutines: runtime.NumGoroutine(),
		AllocBytes: mem.Alloc,
		SysBytes:   mem.Sys,
		GoVersion:  runtime.Version(),
		DBOpen:     dbOpen,
		DBInUse:    dbInUse,
	}
	return report
}

// HTTPStatusForOverall maps the overall status to an HTTP status code;
// degraded still answers 200 so load balancers keep routing.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == healthCritical {
		return 503
	}
	return 200
}

func (s *HealthService) probeMySQL() (CheckResult, int, int) {
	if database.DB == nil {
		return CheckResult{Status: "down", Error: "not connected"}, 0, 0
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		return CheckResult{Status: "down", Error: err.Error()}, 0, 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	pingErr := sqlDB.PingContext(ctx)
	latency := time.Since(start).Milliseconds()

	if pingErr != nil {
		return CheckResult{Status: "down", LatencyMs: latency, Error: pingErr.Error()}, 0, 0
	}
	stats := sqlDB.Stats()
	return CheckResult{Status: "up", LatencyMs: latency}, stats.OpenConnections, stats.InUse
}

func (s *HealthService) probeRedis() (CheckResult, string) {
	required := config.AppConfig != nil && config.AppConfig.UseRedisNotifications

	client := database.GetRedisClient()
	if client == nil {
		if required {
			return CheckResult{Status: "down", Error: "not connected"}, healthDegraded
		}
		return CheckResult{Status: "disabled"}, healthOK
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := client.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		check := CheckResult{Status: "down", LatencyMs: latency, Error: err.Error()}
		if required {
			return check, healthDegraded
		}
		return check, healthOK
	}
	return CheckResult{
		Status:    "up",
		LatencyMs: latency,
		Details:   map[string]interface{}{"address": client.Options().Addr},
	}, healthOK
}

func environmentName() string {
	if config.AppConfig == nil || config.AppConfig.AppEnv == "" {
		return "unknown"
	}
	return config.AppConfig.AppEnv
}
