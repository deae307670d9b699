package migrations

import (
	"strings"
	"testing"
)

func TestMigrationsOrderedAndReversible(t *testing.T) {
	t.Parallel()

	migrations := all()
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	seen := make(map[string]struct{}, len(migrations))
	prev := ""
	for _, m := range migrations {
		if strings.TrimSpace(m.ID) == "" {
			t.Fatal("migration with empty ID")
		}
		if _, dup := seen[m.ID]; dup {
			t.Fatalf("duplicate migration ID %q", m.ID)
		}
		seen[m.ID] = struct{}{}

		if m.ID <= prev {
			t.Fatalf("migration %q is out of order after %q", m.ID, prev)
		}
		prev = m.ID

		if m.Migrate == nil || m.Rollback == nil {
			t.Fatalf("migration %q must define Migrate and Rollback", m.ID)
		}
	}
}
