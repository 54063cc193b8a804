package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
)

// TestDatabaseSetup holds a migrated connection to the integration database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the schema. The
// test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := postgresql.Migrate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return &TestDatabaseSetup{DB: db}
}

// TruncateAllTables removes every row the engine owns.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"audit_entries",
		"audit_chain_heads",
		"payroll_records",
		"leave_requests",
		"compensation_profiles",
		"attendance_days",
		"blocked_dates",
		"holidays",
		"calendar_settings",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// companyID returns a fresh tenant so parallel runs never share rows.
func companyID() string {
	return "company-" + uuid.NewString()
}
