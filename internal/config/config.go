package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreAirtable = "airtable"
	StoreSQLite   = "sqlite"
)

// Tables maps logical table roles to table names in the record store.
type Tables struct {
	Users       string `mapstructure:"AIRTABLE_USER_TABLE" validate:"required"`
	Badges      string `mapstructure:"AIRTABLE_BADGE_TABLE" validate:"required"`
	Assignments string `mapstructure:"AIRTABLE_ASSIGNMENT_TABLE" validate:"required"`
}

// Fields maps logical field roles to column names in the record store.
type Fields struct {
	AssignmentUser      string `mapstructure:"AIRTABLE_ASSIGN_USER_FIELD"`
	AssignmentSession   string `mapstructure:"AIRTABLE_ASSIGN_SESSION_FIELD"`
	AssignmentBadgeLink string `mapstructure:"AIRTABLE_ASSIGN_BADGE_LINK_FIELD"`
	AssignmentBadgeID   string `mapstructure:"AIRTABLE_ASSIGN_BADGE_ID_FIELD"`
	AssignmentIssuedAt  string `mapstructure:"AIRTABLE_ASSIGN_ISSUED_AT_FIELD"`
	AssignmentStatus    string `mapstructure:"AIRTABLE_ASSIGN_STATUS_FIELD"`
	BadgeImage          string `mapstructure:"AIRTABLE_BADGE_IMAGE_FIELD"`
	BadgeImageURL       string `mapstructure:"AIRTABLE_BADGE_IMAGE_URL_FIELD"`
	BadgeName           string `mapstructure:"AIRTABLE_BADGE_NAME_FIELD"`
	BadgeDescription    string `mapstructure:"AIRTABLE_BADGE_DESCRIPTION_FIELD"`
	BadgeCriteria       string `mapstructure:"AIRTABLE_BADGE_CRITERIA_FIELD"`
	BadgeID             string `mapstructure:"AIRTABLE_BADGE_ID_FIELD"`
}

type Config struct {
	Port               string        `mapstructure:"PORT"`
	RecordStore        string        `mapstructure:"RECORD_STORE" validate:"oneof=airtable sqlite"`
	AirtableAPIKey     string        `mapstructure:"AIRTABLE_API_KEY" validate:"required_if=RecordStore airtable"`
	AirtableBaseID     string        `mapstructure:"AIRTABLE_BASE_ID" validate:"required_if=RecordStore airtable"`
	AirtableAPIURL     string        `mapstructure:"AIRTABLE_API_URL" validate:"omitempty,url"`
	Tables             Tables        `mapstructure:",squash"`
	Fields             Fields        `mapstructure:",squash"`
	DatabasePath       string        `mapstructure:"DATABASE_PATH"`
	SeedPath           string        `mapstructure:"SEED_PATH"`
	UpstreamTimeout    time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	ResolveConcurrency int           `mapstructure:"RESOLVE_CONCURRENCY" validate:"min=0"`
	RateLimitPerMinute int           `mapstructure:"RATE_LIMIT_PER_MINUTE" validate:"min=0"`
	EnableCORS         bool          `mapstructure:"ENABLE_CORS"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`

	DiscordBotToken        string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordAlertsChannelID string `mapstructure:"DISCORD_ALERTS_CHANNEL_ID"`
}

var fieldDefaults = map[string]string{
	"AIRTABLE_ASSIGN_USER_FIELD":       "UserId",
	"AIRTABLE_ASSIGN_SESSION_FIELD":    "SessionId",
	"AIRTABLE_ASSIGN_BADGE_LINK_FIELD": "Badge",
	"AIRTABLE_ASSIGN_BADGE_ID_FIELD":   "BadgeId",
	"AIRTABLE_ASSIGN_ISSUED_AT_FIELD":  "Date Assigned",
	"AIRTABLE_ASSIGN_STATUS_FIELD":     "Status",
	"AIRTABLE_BADGE_IMAGE_FIELD":       "Image",
	"AIRTABLE_BADGE_IMAGE_URL_FIELD":   "ImageUrl",
	"AIRTABLE_BADGE_NAME_FIELD":        "Name",
	"AIRTABLE_BADGE_DESCRIPTION_FIELD": "Description",
	"AIRTABLE_BADGE_CRITERIA_FIELD":    "Criteria",
	"AIRTABLE_BADGE_ID_FIELD":          "BadgeId",
}

// DefaultFields returns the field names used when no override is set.
func DefaultFields() Fields {
	return Fields{
		AssignmentUser:      fieldDefaults["AIRTABLE_ASSIGN_USER_FIELD"],
		AssignmentSession:   fieldDefaults["AIRTABLE_ASSIGN_SESSION_FIELD"],
		AssignmentBadgeLink: fieldDefaults["AIRTABLE_ASSIGN_BADGE_LINK_FIELD"],
		AssignmentBadgeID:   fieldDefaults["AIRTABLE_ASSIGN_BADGE_ID_FIELD"],
		AssignmentIssuedAt:  fieldDefaults["AIRTABLE_ASSIGN_ISSUED_AT_FIELD"],
		AssignmentStatus:    fieldDefaults["AIRTABLE_ASSIGN_STATUS_FIELD"],
		BadgeImage:          fieldDefaults["AIRTABLE_BADGE_IMAGE_FIELD"],
		BadgeImageURL:       fieldDefaults["AIRTABLE_BADGE_IMAGE_URL_FIELD"],
		BadgeName:           fieldDefaults["AIRTABLE_BADGE_NAME_FIELD"],
		BadgeDescription:    fieldDefaults["AIRTABLE_BADGE_DESCRIPTION_FIELD"],
		BadgeCriteria:       fieldDefaults["AIRTABLE_BADGE_CRITERIA_FIELD"],
		BadgeID:             fieldDefaults["AIRTABLE_BADGE_ID_FIELD"],
	}
}

// LoadConfig reads configuration from the environment and an optional .env
// file. It does not validate; call Validate before using the record store.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "3000")
	v.SetDefault("RECORD_STORE", StoreAirtable)
	v.SetDefault("AIRTABLE_API_URL", "https://api.airtable.com/v0")
	v.SetDefault("DATABASE_PATH", "badges.db")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("RESOLVE_CONCURRENCY", 1)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("ENABLE_CORS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	for key, value := range fieldDefaults {
		v.SetDefault(key, value)
	}

	// Required keys have no default, so they must be bound explicitly.
	v.BindEnv("AIRTABLE_API_KEY")
	v.BindEnv("AIRTABLE_BASE_ID")
	v.BindEnv("AIRTABLE_USER_TABLE")
	v.BindEnv("AIRTABLE_BADGE_TABLE")
	v.BindEnv("AIRTABLE_ASSIGNMENT_TABLE")
	v.BindEnv("SEED_PATH")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_ALERTS_CHANNEL_ID")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// ConfigurationError reports required settings that are absent or invalid.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Missing env vars: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Invalid env vars: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate returns a *ConfigurationError when the record store cannot be used.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	cfgErr := &ConfigurationError{}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_if":
			cfgErr.Missing = append(cfgErr.Missing, fe.Field())
		default:
			cfgErr.Invalid = append(cfgErr.Invalid, fe.Field())
		}
	}
	return cfgErr
}

// HasAirtable reports whether Airtable credentials are present.
func (c *Config) HasAirtable() bool {
	return c.AirtableAPIKey != "" && c.AirtableBaseID != ""
}

// DiscordAlertsEnabled reports whether upstream failures should be posted to Discord.
func (c *Config) DiscordAlertsEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordAlertsChannelID != ""
}
