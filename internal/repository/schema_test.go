package repository_test

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

// The repositories and the migration are maintained by hand, so a column
// referenced in SQL here but missing from the schema only surfaces at
// runtime as a failed transaction.  This test cross-checks every column the
// repository statements name against the CREATE TABLE blocks in the
// migration.

var repoColumns = map[string][]string{
	"accounts":         {"id", "balance", "created_at", "updated_at"},
	"pool_shares":      {"account_id", "shares", "updated_at"},
	"pool_supply":      {"id", "total_shares"},
	"settlers":         {"account_id", "added_at"},
	"pending_bets":     {"bettor", "net_wager", "placed_at"},
	"settlement_locks": {"node_id", "held", "acquired_at"},
}

func TestMigrationDefinesEveryRepositoryColumn(t *testing.T) {
	ddl, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	tableRe := regexp.MustCompile(`(?is)CREATE TABLE IF NOT EXISTS (\w+)\s*\((.*?)\);`)
	tables := make(map[string]string)
	for _, m := range tableRe.FindAllStringSubmatch(string(ddl), -1) {
		tables[m[1]] = m[2]
	}

	for table, cols := range repoColumns {
		body, ok := tables[table]
		if !ok {
			t.Errorf("migration defines no table %q", table)
			continue
		}
		for _, col := range cols {
			found := false
			for _, line := range strings.Split(body, ",") {
				if f := strings.Fields(line); len(f) > 0 && f[0] == col {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("table %q is missing column %q", table, col)
			}
		}
	}
}
