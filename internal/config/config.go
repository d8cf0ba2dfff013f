// Package config provides configuration management for the StoryReel Agent.
// Configuration is loaded from environment variables (with .env support)
// plus an optional settings.yaml for render and voice preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8787
	DefaultLogLevel = "info"
	DefaultDataDir  = ".storyreel"

	// Environment variable names
	EnvPort         = "STORYREEL_PORT"
	EnvLogLevel     = "STORYREEL_LOG_LEVEL"
	EnvDataDir      = "STORYREEL_DATA_DIR"
	EnvCloudBaseURL = "STORYREEL_CLOUD_BASE_URL"
	EnvCloudToken   = "STORYREEL_CLOUD_TOKEN"
	EnvRenderBinary = "STORYREEL_RENDER_BINARY"
	EnvHeadless     = "STORYREEL_HEADLESS"

	// Database filename
	DBFilename = "storyreel.db"

	// Settings filename within the data dir
	SettingsFilename = "settings.yaml"

	// Render defaults
	DefaultRenderFPS     = 30
	DefaultRenderWidth   = 1080
	DefaultRenderHeight  = 1920
	DefaultRenderTimeout = 1800 // 30 minutes
	DefaultProbeTimeout  = 30   // seconds
)

// Settings holds user-editable preferences loaded from settings.yaml.
// A missing file or field falls back to defaults.
type Settings struct {
	Render struct {
		FPS    int `yaml:"fps"`
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"render"`
	Voice struct {
		ID string `yaml:"id"`
	} `yaml:"voice"`
}

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	RendersDir() string
	CloudBaseURL() string
	CloudToken() string
	RenderBinary() string
	RenderFPS() int
	RenderWidth() int
	RenderHeight() int
	RenderTimeout() time.Duration
	ProbeTimeout() time.Duration
	VoiceID() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	cloudBaseURL string
	cloudToken   string
	renderBinary string
	headless     bool

	settings Settings
}

// New creates a new EnvConfig with defaults and environment variable
// overrides. A .env file in the working directory is loaded first when
// present.
func New() (*EnvConfig, error) {
	// Absent .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.cloudBaseURL = os.Getenv(EnvCloudBaseURL)
	cfg.cloudToken = os.Getenv(EnvCloudToken)
	cfg.renderBinary = os.Getenv(EnvRenderBinary)
	cfg.headless = os.Getenv(EnvHeadless) == "1" || os.Getenv(EnvHeadless) == "true"

	settings, err := loadSettings(filepath.Join(cfg.dataDir, SettingsFilename))
	if err != nil {
		return nil, err
	}
	cfg.settings = settings

	return cfg, nil
}

// loadSettings reads the optional settings.yaml. A missing file yields
// zero-valued settings; a malformed one is an error.
func loadSettings(path string) (Settings, error) {
	var s Settings

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("cannot read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("cannot parse settings file: %w", err)
	}
	return s, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir returns the media cache directory path
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

// RendersDir returns the directory for rendered videos and plan files
func (c *EnvConfig) RendersDir() string {
	return filepath.Join(c.dataDir, "renders")
}

// CloudBaseURL returns the StoryReel cloud API base URL. Empty means the
// agent runs offline with the stub client.
func (c *EnvConfig) CloudBaseURL() string {
	return c.cloudBaseURL
}

// CloudToken returns the bearer token for the cloud API
func (c *EnvConfig) CloudToken() string {
	return c.cloudToken
}

func (c *EnvConfig) RenderBinary() string {
	return c.renderBinary
}

func (c *EnvConfig) RenderFPS() int {
	if c.settings.Render.FPS > 0 {
		return c.settings.Render.FPS
	}
	return DefaultRenderFPS
}

func (c *EnvConfig) RenderWidth() int {
	if c.settings.Render.Width > 0 {
		return c.settings.Render.Width
	}
	return DefaultRenderWidth
}

func (c *EnvConfig) RenderHeight() int {
	if c.settings.Render.Height > 0 {
		return c.settings.Render.Height
	}
	return DefaultRenderHeight
}

func (c *EnvConfig) RenderTimeout() time.Duration {
	return time.Duration(DefaultRenderTimeout) * time.Second
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(DefaultProbeTimeout) * time.Second
}

// VoiceID returns the preferred voice for voice-over synthesis. Empty
// lets the cloud pick its default voice.
func (c *EnvConfig) VoiceID() string {
	return c.settings.Voice.ID
}

// Headless disables the system tray, for servers and CI.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
