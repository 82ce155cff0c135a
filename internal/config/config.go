package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Snapshot store kinds.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// SourceUDP selects the UDP JPEG frame source instead of a capture device.
const SourceUDP = "udp"

// Detection holds the tunables of the detection pipeline.
type Detection struct {
	BlurKernel       int     // Gaussian blur kernel size, odd and >= 1
	DiffThreshold    int     // 8-bit intensity difference a pixel must exceed to count as changed
	DilateKernel     int     // Side of the rectangular dilation structuring element
	DilateIterations int     // How many times the mask is dilated
	MinArea          float64 // Minimum contour area of a qualifying region
	Strategy         string  // Region selection strategy: first, largest, nearest
	BackgroundPolicy string  // on-detection (replace on every Found cycle) or static
}

type Config struct {
	Host           string
	Port           int
	CaptureSource  string        // Device index, file path, stream URL or "udp"
	CaptureTimeout time.Duration // Upper bound on a single frame pull
	UDPPort        int
	TickInterval   time.Duration // Time between two detection cycles
	Detection      Detection
	SnapshotStore  string // json or sqlite
	SnapshotPath   string
	DBPath         string
	LogDirectory   string
	FrameWidth     int // Plot extent
	FrameHeight    int
}

// DefaultDetection returns the detection tunables used when nothing is configured.
func DefaultDetection() Detection {
	return Detection{
		BlurKernel:       5,
		DiffThreshold:    15,
		DilateKernel:     5,
		DilateIterations: 3,
		MinArea:          5000,
		Strategy:         "first",
		BackgroundPolicy: "on-detection",
	}
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	def := DefaultDetection()
	return &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnvAsInt("PORT", 8000),
		CaptureSource:  getEnv("CAPTURE_SOURCE", "0"),
		CaptureTimeout: getEnvAsMillis("CAPTURE_TIMEOUT_MS", 1000),
		UDPPort:        getEnvAsInt("UDP_PORT", 9000),
		TickInterval:   getEnvAsMillis("TICK_INTERVAL_MS", 33),
		Detection: Detection{
			BlurKernel:       getEnvAsInt("BLUR_KERNEL", def.BlurKernel),
			DiffThreshold:    getEnvAsInt("DIFF_THRESHOLD", def.DiffThreshold),
			DilateKernel:     getEnvAsInt("DILATE_KERNEL", def.DilateKernel),
			DilateIterations: getEnvAsInt("DILATE_ITERATIONS", def.DilateIterations),
			MinArea:          getEnvAsFloat("MIN_AREA", def.MinArea),
			Strategy:         strings.ToLower(getEnv("SELECTION_STRATEGY", def.Strategy)),
			BackgroundPolicy: strings.ToLower(getEnv("BACKGROUND_POLICY", def.BackgroundPolicy)),
		},
		SnapshotStore: strings.ToLower(getEnv("SNAPSHOT_STORE", StoreJSON)),
		SnapshotPath:  getEnv("SNAPSHOT_PATH", "coordinates.json"),
		DBPath:        getEnv("DB_PATH", filepath.Join(".", "data", "trajectory.db")),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
		FrameWidth:    getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:   getEnvAsInt("FRAME_HEIGHT", 480),
	}
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid PORT %d", c.Port)
	}
	if c.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL_MS must be positive")
	}
	if c.CaptureTimeout <= 0 {
		return errors.New("CAPTURE_TIMEOUT_MS must be positive")
	}
	if c.CaptureSource == SourceUDP && (c.UDPPort <= 0 || c.UDPPort > 65535) {
		return errors.Errorf("invalid UDP_PORT %d", c.UDPPort)
	}
	switch c.SnapshotStore {
	case StoreJSON, StoreSQLite:
	default:
		return errors.Errorf("unknown SNAPSHOT_STORE %q", c.SnapshotStore)
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return errors.New("FRAME_WIDTH and FRAME_HEIGHT must be positive")
	}
	return nil
}

// Validate checks the detection tunables.
func (d Detection) Validate() error {
	if d.BlurKernel < 1 || d.BlurKernel%2 == 0 {
		return errors.Errorf("BLUR_KERNEL must be odd and >= 1, got %d", d.BlurKernel)
	}
	if d.DiffThreshold < 0 || d.DiffThreshold > 255 {
		return errors.Errorf("DIFF_THRESHOLD must be within 0..255, got %d", d.DiffThreshold)
	}
	if d.DilateKernel < 1 {
		return errors.Errorf("DILATE_KERNEL must be >= 1, got %d", d.DilateKernel)
	}
	if d.DilateIterations < 0 {
		return errors.Errorf("DILATE_ITERATIONS must be >= 0, got %d", d.DilateIterations)
	}
	if d.MinArea < 0 {
		return errors.Errorf("MIN_AREA must be >= 0, got %v", d.MinArea)
	}
	switch d.Strategy {
	case "first", "largest", "nearest":
	default:
		return errors.Errorf("unknown SELECTION_STRATEGY %q", d.Strategy)
	}
	switch d.BackgroundPolicy {
	case "on-detection", "static":
	default:
		return errors.Errorf("unknown BACKGROUND_POLICY %q", d.BackgroundPolicy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
