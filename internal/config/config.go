package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"surfside/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Backup       BackupConfig       `yaml:"backup"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Logging      LoggingConfig      `yaml:"logging"`
	API          APIConfig          `yaml:"api"`
	Booking      BookingConfig      `yaml:"booking"`
	Notification NotificationConfig `yaml:"notification"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Google       GoogleConfig       `yaml:"google"`
	Exports      ExportConfig       `yaml:"exports"`
}

type BookingConfig struct {
	MaxBookingDays    int    `yaml:"max_booking_days"`
	FormStateTTL      int    `yaml:"form_state_ttl"`
	RateLimitRequests int    `yaml:"rate_limit_requests"`
	RateLimitWindow   int    `yaml:"rate_limit_window"`
	InstructorsFile   string `yaml:"instructors_file"`
	Timezone          string `yaml:"timezone"`
}

// Location resolves Timezone. An empty value means the host's local zone.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("booking.timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

type NotificationConfig struct {
	BusinessName string `yaml:"business_name"`
	WhatsAppBase string `yaml:"whatsapp_base"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled       bool           `yaml:"enabled"`
	AdminUsername string         `yaml:"admin_username"`
	AdminPassword string         `yaml:"admin_password"`
	HeaderAPIKey  string         `yaml:"header_api_key"`
	HeaderExtra   string         `yaml:"header_extra"`
	APIKeys       []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	StaffChatID int64  `yaml:"staff_chat_id"`
	Debug       bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

// Enabled reports whether the Sheets mirror is configured.
func (g GoogleConfig) Enabled() bool {
	return g.GoogleCredentialsFile != "" && g.BookingSpreadSheetID != ""
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables may come from the environment directly.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.Enabled && c.API.Auth.Enabled {
		if c.API.Auth.AdminUsername == "" || c.API.Auth.AdminPassword == "" {
			return errors.New("api.auth.admin_username and api.auth.admin_password are required")
		}
	}

	if c.Booking.MaxBookingDays < 0 {
		return fmt.Errorf("booking.max_booking_days must be positive, got %d", c.Booking.MaxBookingDays)
	}

	if _, err := c.Booking.Location(); err != nil {
		return err
	}

	return nil
}

// ValidateInstructors checks a roster before it is stored.
func ValidateInstructors(instructors []*models.Instructor) error {
	names := make(map[string]bool, len(instructors))
	for _, inst := range instructors {
		name := strings.TrimSpace(inst.Name)
		if name == "" {
			return errors.New("instructor name is required")
		}
		if names[name] {
			return fmt.Errorf("duplicate instructor name: %s", name)
		}
		names[name] = true
		for _, s := range inst.Specialties {
			if !models.IsValidActivity(s) {
				return fmt.Errorf("instructor '%s' has unknown specialty '%s'", name, s)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "surfside"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.FormStateTTL == 0 {
		c.Booking.FormStateTTL = models.DefaultFormStateTTL
	}
	if c.Booking.RateLimitRequests == 0 {
		c.Booking.RateLimitRequests = models.RateLimitRequests
	}
	if c.Booking.RateLimitWindow == 0 {
		c.Booking.RateLimitWindow = models.RateLimitWindow
	}
	if c.Booking.InstructorsFile == "" {
		c.Booking.InstructorsFile = "configs/instructors.yaml"
	}

	if c.Notification.BusinessName == "" {
		c.Notification.BusinessName = "Surf Side Urla"
	}
	if c.Notification.WhatsAppBase == "" {
		c.Notification.WhatsAppBase = "https://wa.me/"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
