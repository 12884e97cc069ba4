package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"media-gateway/internal/logging"

	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	Branch    = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Port        string
	MetricsPort string

	// TempDir is where pooled and render jobs write their output files.
	TempDir string

	FFmpegPath string
	// Threads is the -threads value passed to ffmpeg; 0 derives it from
	// the number of CPUs.
	Threads int

	APIName string
	APIURL  string
	WebURL  string

	// CORSOpen allows any origin; when false the configured WebURL is
	// the only allowed origin.
	CORSOpen bool

	// EmbedCoverArt enables muxing cover art into audio remuxes. Known
	// to corrupt output with some containers, so it defaults to off.
	EmbedCoverArt bool

	LogHealthChecks bool
	MetricsEnabled  bool

	StartTime time.Time
}

// LoadConfig loads and validates configuration from the environment.
// A .env file in the working directory is merged in first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Info("Loaded configuration from .env")
	}

	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("API_PORT", "9000")
	metricsPort := getEnv("METRICS_PORT", "9090")
	tempDir := getEnv("TEMP_DIR", "./tmp")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	threads := getEnvInt("FFMPEG_THREADS", 0)
	apiName := getEnv("API_NAME", "unknown")
	apiURL := getEnv("API_URL", "")
	webURL := getEnv("WEB_URL", "")
	corsOpen := getEnv("CORS", "1") != "0"
	embedCover := getEnvBool("EMBED_COVER_ART", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  API_PORT:          %s", port)
	logging.Info("  METRICS_PORT:      %s", metricsPort)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  TEMP_DIR:          %s", tempDir)
	logging.Info("  FFMPEG_PATH:       %s", ffmpegPath)
	logging.Info("  FFMPEG_THREADS:    %d", threads)
	logging.Info("  API_NAME:          %s", apiName)
	logging.Info("  CORS:              %v", corsOpen)
	logging.Info("  EMBED_COVER_ART:   %v", embedCover)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	tempDir, err := filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
	}

	if err := ensureDirectory(tempDir); err != nil {
		return nil, fmt.Errorf("temp directory error: %w", err)
	}
	if err := testWriteAccess(tempDir); err != nil {
		return nil, fmt.Errorf("temp directory is not writable (required for transcode jobs): %w", err)
	}
	logging.Info("  [OK] Temp directory is writable: %s", tempDir)

	return &Config{
		Port:            port,
		MetricsPort:     metricsPort,
		TempDir:         tempDir,
		FFmpegPath:      ffmpegPath,
		Threads:         threads,
		APIName:         apiName,
		APIURL:          apiURL,
		WebURL:          webURL,
		CORSOpen:        corsOpen,
		EmbedCoverArt:   embedCover,
		LogHealthChecks: logHealthChecks,
		MetricsEnabled:  metricsEnabled,
		StartTime:       time.Now(),
	}, nil
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("media-gateway %s (%s, %s)", Version, Commit, Branch)
	logging.Info("============================================================")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
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

// LogFatal logs a fatal startup error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
