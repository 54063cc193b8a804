package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverSQLite)
	t.Setenv("SQLITE_PATH", t.TempDir()+"/payroll.db")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Payroll.LateGraceDays)
	assert.Equal(t, 48*time.Hour, cfg.Escalation.Level1SLA)
	assert.Equal(t, 24*time.Hour, cfg.Escalation.Level2SLA)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.Calendar.DefaultWeekend)
	assert.Equal(t, "IN", cfg.Calendar.DefaultCountryCode)
	assert.Equal(t, 5*time.Minute, cfg.Cron.EscalationSweepInterval)
	assert.False(t, cfg.SMTP.TLS)
	assert.False(t, cfg.SMTP.StartTLS)
	assert.Equal(t, 7, cfg.Leave.NoticeDays["paid"])
	assert.NotContains(t, cfg.Leave.NoticeDays, "sick")
	assert.Equal(t, 5, cfg.Leave.MaxConsecutiveDays["sick"])
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverSQLite)
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("CALENDAR_WEEKEND_DAYS", "friday, saturday")
	t.Setenv("ESCALATION_SLA_LEVEL_1", "12h")
	t.Setenv("CALENDAR_DEFAULT_COUNTRY", "id")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, cfg.Calendar.DefaultWeekend)
	assert.Equal(t, 12*time.Hour, cfg.Escalation.Level1SLA)
	assert.Equal(t, "ID", cfg.Calendar.DefaultCountryCode)
}

func TestLoad_LeaveRules(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverSQLite)
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("LEAVE_NOTICE_DAYS", "none")
	t.Setenv("LEAVE_MAX_CONSECUTIVE_DAYS", " Casual = 2, paid=15 ")
	t.Setenv("SMTP_STARTTLS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Leave.NoticeDays)
	assert.Equal(t, map[string]int{"casual": 2, "paid": 15}, cfg.Leave.MaxConsecutiveDays)
	assert.True(t, cfg.SMTP.StartTLS)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret": {"STORAGE_DRIVER": StorageDriverSQLite},
		"unknown driver":     {"STORAGE_DRIVER": "mysql", "JWT_SECRET_KEY": "s"},
		"postgres password":  {"STORAGE_DRIVER": StorageDriverPostgres, "JWT_SECRET_KEY": "s"},
		"bad weekday":        {"STORAGE_DRIVER": StorageDriverSQLite, "JWT_SECRET_KEY": "s", "CALENDAR_WEEKEND_DAYS": "funday"},
		"bad sla":            {"STORAGE_DRIVER": StorageDriverSQLite, "JWT_SECRET_KEY": "s", "ESCALATION_SLA_LEVEL_2": "soon"},
		"negative grace":     {"STORAGE_DRIVER": StorageDriverSQLite, "JWT_SECRET_KEY": "s", "PAYROLL_LATE_GRACE_DAYS": "-1"},
		"bad notice rule":    {"STORAGE_DRIVER": StorageDriverSQLite, "JWT_SECRET_KEY": "s", "LEAVE_NOTICE_DAYS": "paid"},
		"negative max rule":  {"STORAGE_DRIVER": StorageDriverSQLite, "JWT_SECRET_KEY": "s", "LEAVE_MAX_CONSECUTIVE_DAYS": "paid=-2"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DB_PASSWORD", "")
			t.Setenv("JWT_SECRET_KEY", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{App: AppConfig{LogLevel: "DEBUG"}}
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())
	cfg.App.LogLevel = "nonsense"
	assert.Equal(t, "INFO", cfg.SlogLevel().String())
}
