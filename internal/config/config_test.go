package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"surfside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SURFSIDE_ADMIN_PASSWORD", "s3cret")

	yamlContent := `
database:
  path: "test.db"
api:
  enabled: true
  auth:
    enabled: true
    admin_username: "admin"
    admin_password: "${SURFSIDE_ADMIN_PASSWORD}"
notification:
  business_name: "Test Beach"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.API.Auth.AdminPassword)
	assert.Equal(t, "Test Beach", cfg.Notification.BusinessName)
	assert.True(t, cfg.API.HTTP.Enabled)
	assert.Equal(t, "surfside", cfg.App.Name)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigValidationError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("api:\n  enabled: true\n"), 0o644))

	_, err := Load(configPath)
	assert.ErrorContains(t, err, "config validation failed")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "api auth without admin credentials",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Enabled: true, Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
		{
			name: "api auth with admin credentials",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API: APIConfig{Enabled: true, Auth: APIAuthConfig{
					Enabled: true, AdminUsername: "admin", AdminPassword: "pw",
				}},
			},
			wantErr: false,
		},
		{
			name: "negative booking horizon",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{MaxBookingDays: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 8081, cfg.API.GRPC.Port)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, models.DefaultMaxBookingDays, cfg.Booking.MaxBookingDays)
	assert.Equal(t, models.RateLimitRequests, cfg.Booking.RateLimitRequests)
	assert.Equal(t, "Surf Side Urla", cfg.Notification.BusinessName)
	assert.Equal(t, "https://wa.me/", cfg.Notification.WhatsAppBase)
	assert.False(t, cfg.Google.Enabled())
}

func TestValidateInstructors(t *testing.T) {
	tests := []struct {
		name        string
		instructors []*models.Instructor
		wantErr     bool
	}{
		{
			name: "Valid roster",
			instructors: []*models.Instructor{
				{Name: "Ata", Specialties: []string{models.ActivityKitesurf}},
				{Name: "Ahmet", Specialties: []string{models.ActivityWingfoil, models.ActivityCoastalRowing}},
			},
			wantErr: false,
		},
		{
			name: "Duplicate name",
			instructors: []*models.Instructor{
				{Name: "Ata"},
				{Name: " Ata "},
			},
			wantErr: true,
		},
		{
			name:        "Blank name",
			instructors: []*models.Instructor{{Name: "  "}},
			wantErr:     true,
		},
		{
			name:        "Unknown specialty",
			instructors: []*models.Instructor{{Name: "Ata", Specialties: []string{"Surf"}}},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstructors(tt.instructors)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInstructors() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInstructors(t *testing.T) {
	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		roster, err := LoadInstructors(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		assert.Len(t, roster, len(models.DefaultInstructorNames))
	})

	t.Run("FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "instructors.yaml")
		content := `
instructors:
  - name: Samican
    specialties: [Kitesurf, Wingfoil]
  - name: Ata
    specialties: [CoastalRowing]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		roster, err := LoadInstructors(path)
		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "Samican", roster[0].Name)
		assert.True(t, roster[1].CanTeach(models.ActivityCoastalRowing))
		assert.Equal(t, int64(1), roster[1].SortOrder)
	})

	t.Run("InvalidSpecialty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "instructors.yaml")
		require.NoError(t, os.WriteFile(path, []byte("instructors:\n  - name: Ata\n    specialties: [Surf]\n"), 0o644))

		_, err := LoadInstructors(path)
		assert.Error(t, err)
	})
}

func TestBookingLocation(t *testing.T) {
	loc, err := BookingConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = BookingConfig{Timezone: "Europe/Istanbul"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Istanbul", loc.String())

	_, err = BookingConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
