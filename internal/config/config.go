package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/milweb-dev/milweb/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "milweb.json"

	// DefaultURL is the default exchange server address.
	DefaultURL = "ws://localhost:7681"

	// DefaultFPS is the default poll rate in frames per second.
	DefaultFPS = 10

	// DefaultMetricsAddr is the default address of the metrics endpoint.
	DefaultMetricsAddr = ":9090"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "milweb"

	// DefaultMockAddr is the default listen address of the mock server.
	DefaultMockAddr = "localhost:7681"

	// ClientNamePrefix prefixes generated client names.
	ClientNamePrefix = "milweb-"
)

// Record sink kinds.
const (
	SinkBolt = "bolt"
	SinkS3   = "s3"
)

// Config represents the complete milweb.json configuration.
type Config struct {
	// URL is the WebSocket address of the exchange server.
	URL string `json:"url,omitempty"`

	// ClientName identifies this client to the server.
	// Generated as milweb-<uuid> when empty.
	ClientName string `json:"clientName,omitempty"`

	// FPS is the poll rate of subscribed buffers.
	FPS int `json:"fps,omitempty"`

	// Debug turns caller errors into panics.
	Debug bool `json:"debug,omitempty"`

	// HandshakeTimeout bounds each WebSocket dial (e.g., "10s").
	HandshakeTimeout string `json:"handshakeTimeout,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus endpoint configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Record contains frame recording configuration.
	Record RecordConfig `json:"record,omitempty"`

	// Mock contains mock server configuration.
	Mock MockConfig `json:"mock,omitempty"`

	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains metrics endpoint settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Addr      string `json:"addr,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// RecordConfig contains frame recording settings.
type RecordConfig struct {
	// Sink is bolt or s3.
	Sink string `json:"sink,omitempty"`

	// Path is the bolt database file.
	Path string `json:"path,omitempty"`

	// Bucket, Prefix, Region and Endpoint configure the s3 sink.
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// MockConfig contains mock exchange server settings.
type MockConfig struct {
	Addr   string `json:"addr,omitempty"`
	FPS    int    `json:"fps,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for milweb.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No milweb.json found in " + filepath.Dir(path)).
				WithSuggestion("Create milweb.json or pass --url")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse milweb.json: " + err.Error()).
			WithSuggestion("Check that milweb.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads milweb.json from dir, falling back to defaults when
// the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		if me, ok := err.(*errors.MilError); ok && me.Code == "E141" {
			return New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.ClientName == "" {
		c.ClientName = ClientNamePrefix + uuid.NewString()
	}
	if c.FPS == 0 {
		c.FPS = DefaultFPS
	}
	if c.HandshakeTimeout == "" {
		c.HandshakeTimeout = "10s"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Record.Sink == "" {
		c.Record.Sink = SinkBolt
	}
	if c.Record.Path == "" {
		c.Record.Path = "frames.db"
	}
	if c.Record.Prefix == "" {
		c.Record.Prefix = "milweb"
	}

	if c.Mock.Addr == "" {
		c.Mock.Addr = DefaultMockAddr
	}
	if c.Mock.FPS == 0 {
		c.Mock.FPS = DefaultFPS
	}
	if c.Mock.Width == 0 {
		c.Mock.Width = 320
	}
	if c.Mock.Height == 0 {
		c.Mock.Height = 240
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("E121")
	}
	if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return errors.New("E122").
			WithDetail("url must start with ws:// or wss://, got " + c.URL)
	}
	if c.FPS < 0 {
		return errors.New("E122").
			WithDetail("fps must not be negative")
	}
	if _, err := c.Handshake(); err != nil {
		return errors.New("E122").
			WithDetail("handshakeTimeout is not a duration: " + c.HandshakeTimeout)
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("E122").
			WithDetail("log.level must be debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("E122").
			WithDetail("log.format must be text or json")
	}
	switch c.Record.Sink {
	case SinkBolt:
	case SinkS3:
		if c.Record.Bucket == "" {
			return errors.New("E122").
				WithDetail("record.bucket is required for the s3 sink")
		}
	default:
		return errors.New("E123")
	}
	return nil
}

// Handshake returns the parsed handshake timeout.
func (c *Config) Handshake() (time.Duration, error) {
	return time.ParseDuration(c.HandshakeTimeout)
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
