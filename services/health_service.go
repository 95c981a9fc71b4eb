package services

import (
	"classdesk_go/config"
	"classdesk_go/database"
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

const (
	overallStatusOK       = "ok"
	overallStatusDegraded = "degraded"
	overallStatusCritical = "critical"

	dependencyStatusUp       = "up"
	dependencyStatusDown     = "down"
	dependencyStatusDisabled = "disabled"

	defaultServiceName = "ClassDesk Admin API"
	defaultVersion     = "1.0.0"
	defaultTimeout     = 1500 * time.Millisecond
)

// HealthService aggregates application health information for reporting endpoints.
type HealthService struct {
	serviceName string
	version     string
	startTime   time.Time
	timeout     time.Duration
	storage     Pinger
}

// Pinger is an optional dependency probed by the health report.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReport represents the JSON response for health endpoints.
type HealthReport struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Version       string             `json:"version"`
	Environment   string             `json:"environment"`
	Time          time.Time          `json:"time"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	UptimeHuman   string             `json:"uptime_human"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Metrics       HealthMetrics      `json:"metrics"`
	Flags         HealthFlags        `json:"flags"`
	System        HealthSystem       `json:"system"`
}

// DependencyStatus captures the health of a single external dependency.
type DependencyStatus struct {
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	LatencyMs int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type HealthMetrics struct {
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	SysBytes       uint64 `json:"sys_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

// HealthFlags exposes configuration that changes runtime behaviour.
type HealthFlags struct {
	SkipMigrate       bool   `json:"skip_migrate"`
	AvatarBackend     string `json:"avatar_backend"`
	PhotoCache        string `json:"photo_cache"`
	ImportConcurrency int    `json:"import_concurrency"`
}

type HealthSystem struct {
	GoVersion string `json:"go_version"`
	GoOS      string `json:"go_os"`
	GoArch    string `json:"go_arch"`
}

// NewHealthService creates a new HealthService with sensible defaults.
func NewHealthService(serviceName, version string) *HealthService {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultServiceName
	}
	if strings.TrimSpace(version) == "" {
		version = defaultVersion
	}
	return &HealthService{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		timeout:     defaultTimeout,
	}
}

// WithStorage adds the avatar bucket to the report. An unreachable bucket
// degrades the service; grids still load without avatars.
func (s *HealthService) WithStorage(p Pinger) *HealthService {
	s.storage = p
	return s
}

// GetHealthReport probes Postgres and Redis and collects runtime figures.
func (s *HealthService) GetHealthReport(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uptime := time.Since(s.startTime)
	report := HealthReport{
		Status:        overallStatusOK,
		Service:       s.serviceName,
		Version:       s.version,
		Environment:   currentEnvironment(),
		Time:          time.Now().UTC(),
		UptimeSeconds: uptime.Seconds(),
		UptimeHuman:   humanizeDuration(uptime),
	}

	probes := []func(context.Context) (DependencyStatus, string){s.checkDatabase, s.checkRedis}
	if s.storage != nil {
		probes = append(probes, s.checkStorage)
	}
	for _, probe := range probes {
		dep, status := probe(ctx)
		report.Dependencies = append(report.Dependencies, dep)
		report.Status = combineStatus(report.Status, status)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	report.Metrics = HealthMetrics{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SysBytes:       mem.Sys,
		NumGC:          mem.NumGC,
	}
	if cfg := config.AppConfig; cfg != nil {
		report.Flags = HealthFlags{
			SkipMigrate:       cfg.SkipMigrate,
			AvatarBackend:     cfg.AvatarBackend,
			PhotoCache:        cfg.PhotoCache,
			ImportConcurrency: cfg.ImportConcurrency,
		}
	}
	report.System = HealthSystem{GoVersion: runtime.Version(), GoOS: runtime.GOOS, GoArch: runtime.GOARCH}
	return report
}

// Ready probes only Postgres. Without it no grid can be served.
func (s *HealthService) Ready(ctx context.Context) (DependencyStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	dep, status := s.checkDatabase(ctx)
	return dep, status != overallStatusCritical
}

// HTTPStatusForOverall maps a health status to an HTTP status code.
func (s *HealthService) HTTPStatusForOverall(status string) int {
	if status == overallStatusCritical {
		return 503
	}
	return 200
}

func (s *HealthService) checkDatabase(ctx context.Context) (DependencyStatus, string) {
	dep := DependencyStatus{Name: "postgres", Status: dependencyStatusDown}
	if database.DB == nil {
		dep.Error = "database connection not initialised"
		return dep, overallStatusCritical
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		dep.Error = fmt.Sprintf("sql DB handle error: %v", err)
		return dep, overallStatusCritical
	}

	start := time.Now()
	err = sqlDB.PingContext(ctx)
	dep.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		dep.Error = err.Error()
		return dep, overallStatusCritical
	}

	stats := sqlDB.Stats()
	dep.Status = dependencyStatusUp
	dep.Details = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}
	return dep, overallStatusOK
}

// checkRedis reports Redis as degraded only when the photo cache depends on it.
func (s *HealthService) checkRedis(ctx context.Context) (DependencyStatus, string) {
	dep := DependencyStatus{Name: "redis"}
	required := config.AppConfig != nil && config.AppConfig.PhotoCache == "redis"
	failed := overallStatusOK
	if required {
		failed = overallStatusDegraded
	}

	client := database.GetRedisClient()
	if client == nil {
		if required {
			dep.Status = dependencyStatusDown
			dep.Error = "redis client not initialised"
		} else {
			dep.Status = dependencyStatusDisabled
		}
		return dep, failed
	}

	start := time.Now()
	err := client.Ping(ctx).Err()
	dep.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		dep.Status = dependencyStatusDown
		dep.Error = err.Error()
		return dep, failed
	}

	mode := "activity-log"
	if required {
		mode = "activity-log+photo-cache"
	}
	dep.Status = dependencyStatusUp
	dep.Details = map[string]interface{}{"address": client.Options().Addr, "mode": mode}
	return dep, overallStatusOK
}

func (s *HealthService) checkStorage(ctx context.Context) (DependencyStatus, string) {
	dep := DependencyStatus{Name: "s3", Status: dependencyStatusUp}
	start := time.Now()
	err := s.storage.Ping(ctx)
	dep.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		dep.Status = dependencyStatusDown
		dep.Error = err.Error()
		return dep, overallStatusDegraded
	}
	return dep, overallStatusOK
}

func currentEnvironment() string {
	if config.AppConfig == nil || strings.TrimSpace(config.AppConfig.AppEnv) == "" {
		return "unknown"
	}
	return strings.TrimSpace(config.AppConfig.AppEnv)
}

func combineStatus(current, candidate string) string {
	order := map[string]int{
		overallStatusOK:       0,
		overallStatusDegraded: 1,
		overallStatusCritical: 2,
	}
	if _, ok := order[current]; !ok {
		current = overallStatusOK
	}
	if v, ok := order[candidate]; ok && v > order[current] {
		return candidate
	}
	return current
}

func humanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Second)
	units := []struct {
		size   time.Duration
		suffix string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
	}
	var parts []string
	for _, u := range units {
		if n := d / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
			d %= u.size
		}
	}
	if secs := d / time.Second; secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}
