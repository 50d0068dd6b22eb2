package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServiceName string
	NodeID      string
	LogLevel    string

	HTTPListenAddr    string
	MetricsListenAddr string

	// S3-compatible object store credentials and target bucket.
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// ManagedRoots bound every filesystem operation exposed to callers.
	ManagedRoots []string
	// ModsDir is the directory reset and repopulated by pack installs.
	ModsDir string
	// MaintenanceFile is a sentinel path owned by the lifecycle controller;
	// its presence means maintenance mode is enabled.
	MaintenanceFile string

	// BackupExcludes are top-level sub-paths skipped when archiving.
	BackupExcludes []string

	// Transfer engine tuning.
	LargeThresholdBytes int64
	ChunkSizeBytes      int64
	MaxConcurrentParts  int
	MaxPartRetries      int
	RetryBaseDelayMS    int

	// Pack metadata API endpoints; overridable for tests and mirrors.
	ModrinthAPIURL   string
	CurseforgeAPIURL string
	CurseforgeAPIKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "shulkerd"),
		NodeID:            getEnv("NODE_ID", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8420"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ""),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		ManagedRoots:    splitList(getEnv("MANAGED_ROOTS", "/data")),
		ModsDir:         getEnv("MODS_DIR", "/data/mods"),
		MaintenanceFile: getEnv("MAINTENANCE_FILE", "/data/.maintenance"),

		BackupExcludes: splitList(getEnv("BACKUP_EXCLUDES", "logs,cache,crash-reports")),

		LargeThresholdBytes: getEnvBytes("TRANSFER_LARGE_THRESHOLD", 100<<20),
		ChunkSizeBytes:      getEnvBytes("TRANSFER_CHUNK_SIZE", 50<<20),
		MaxConcurrentParts:  getEnvInt("TRANSFER_MAX_CONCURRENT", 5),
		MaxPartRetries:      getEnvInt("TRANSFER_MAX_RETRIES", 3),
		RetryBaseDelayMS:    getEnvInt("TRANSFER_RETRY_BASE_DELAY_MS", 1000),

		ModrinthAPIURL:   getEnv("MODRINTH_API_URL", "https://api.modrinth.com/v2"),
		CurseforgeAPIURL: getEnv("CURSEFORGE_API_URL", "https://api.curseforge.com/v1"),
		CurseforgeAPIKey: getEnv("CURSEFORGE_API_KEY", ""),
	}

	return cfg, nil
}

// Validate checks the settings the daemon cannot run without.
func (c *Config) Validate() error {
	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.S3AccessKey == "" || c.S3SecretKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}
	if len(c.ManagedRoots) == 0 {
		return fmt.Errorf("MANAGED_ROOTS must name at least one root")
	}
	if c.ChunkSizeBytes <= 0 || c.LargeThresholdBytes <= 0 {
		return fmt.Errorf("transfer sizes must be positive")
	}
	if c.MaxConcurrentParts < 1 || c.MaxPartRetries < 1 {
		return fmt.Errorf("transfer concurrency and retries must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBytes(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
