package postgres

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

// Every perishable_stock statement builds on batchColumns, so a column name
// that drifts from the migration fails the whole repository at runtime.
func TestBatchColumnsMatchMigration(t *testing.T) {
	ddl := perishableStockDDL(t)

	for _, col := range strings.Split(batchColumns, ",") {
		col = strings.TrimSpace(col)
		declared := regexp.MustCompile(`(?m)^\s*` + col + `\s`)
		if !declared.MatchString(ddl) {
			t.Errorf("Column %q is not declared in the perishable_stock migration", col)
		}
	}
}

func perishableStockDDL(t *testing.T) string {
	t.Helper()

	raw, err := os.ReadFile("../../../migrations/init.sql")
	if err != nil {
		t.Fatalf("Failed to read migration: %v", err)
	}
	sql := string(raw)

	start := strings.Index(sql, "perishable_stock")
	if start < 0 {
		t.Fatal("perishable_stock table not found in migration")
	}
	end := strings.Index(sql[start:], ");")
	if end < 0 {
		t.Fatal("perishable_stock table definition is not terminated")
	}
	return sql[start : start+end]
}
