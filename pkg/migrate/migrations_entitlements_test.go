package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crateful-app/crateful-backend/pkg/migrate"
)

func TestEntitlementsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_entitlements.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no entitlements migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE entitlements",
		"CHECK (amount_cents >= 0)",
		"CHECK (platform_fee_cents >= 0)",
		"CREATE UNIQUE INDEX uq_entitlements_active_buyer_product",
		"WHERE status = 'active'",
		"DROP TABLE IF EXISTS entitlements",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProcessedEventsMigrationUsesEventIDKey(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_processed_events.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no processed_events migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE processed_events",
		"event_id          TEXT PRIMARY KEY",
		"DROP TABLE IF EXISTS processed_events",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
