package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AIRTABLE_API_KEY", "pat-test")
	t.Setenv("AIRTABLE_BASE_ID", "appTest")
	t.Setenv("AIRTABLE_USER_TABLE", "Users")
	t.Setenv("AIRTABLE_BADGE_TABLE", "Badges")
	t.Setenv("AIRTABLE_ASSIGNMENT_TABLE", "AssignedBadges")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, StoreAirtable, cfg.RecordStore)
	assert.Equal(t, "https://api.airtable.com/v0", cfg.AirtableAPIURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 1, cfg.ResolveConcurrency)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.True(t, cfg.EnableCORS)
	assert.Equal(t, DefaultFields(), cfg.Fields)
	assert.Equal(t, Tables{Users: "Users", Badges: "Badges", Assignments: "AssignedBadges"}, cfg.Tables)
	assert.True(t, cfg.HasAirtable())
	assert.False(t, cfg.DiscordAlertsEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AIRTABLE_ASSIGN_USER_FIELD", "Learner")
	t.Setenv("AIRTABLE_ASSIGN_ISSUED_AT_FIELD", "IssuedAt")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")
	t.Setenv("RESOLVE_CONCURRENCY", "4")
	t.Setenv("ENABLE_CORS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Learner", cfg.Fields.AssignmentUser)
	assert.Equal(t, "IssuedAt", cfg.Fields.AssignmentIssuedAt)
	assert.Equal(t, "SessionId", cfg.Fields.AssignmentSession)
	assert.Equal(t, 2*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 4, cfg.ResolveConcurrency)
	assert.False(t, cfg.EnableCORS)
}

func TestValidate_MissingKeys(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("AIRTABLE_BASE_ID", "")
	t.Setenv("AIRTABLE_USER_TABLE", "Users")
	t.Setenv("AIRTABLE_BADGE_TABLE", "")
	t.Setenv("AIRTABLE_ASSIGNMENT_TABLE", "AssignedBadges")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"AIRTABLE_API_KEY", "AIRTABLE_BASE_ID", "AIRTABLE_BADGE_TABLE"}, cfgErr.Missing)
	assert.Equal(t, "Missing env vars: AIRTABLE_API_KEY, AIRTABLE_BASE_ID, AIRTABLE_BADGE_TABLE", err.Error())
	assert.False(t, cfg.HasAirtable())
}

func TestValidate_SQLiteStoreSkipsCredentials(t *testing.T) {
	cfg := &Config{
		RecordStore: StoreSQLite,
		Tables:      Tables{Users: "Users", Badges: "Badges", Assignments: "AssignedBadges"},
		Fields:      DefaultFields(),
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidStore(t *testing.T) {
	cfg := &Config{
		RecordStore:    "postgres",
		AirtableAPIKey: "key",
		AirtableBaseID: "base",
		Tables:         Tables{Users: "Users", Badges: "Badges", Assignments: "AssignedBadges"},
	}

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, cfgErr.Missing)
	assert.Equal(t, []string{"RECORD_STORE"}, cfgErr.Invalid)
}
