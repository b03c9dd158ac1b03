package migrations

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	for _, dir := range []string{"postgres", "clickhouse"} {
		ms, err := load(dir)
		if err != nil {
			t.Fatalf("load(%s): %v", dir, err)
		}
		if len(ms) == 0 {
			t.Fatalf("load(%s): no migrations embedded", dir)
		}
		for i := 1; i < len(ms); i++ {
			if ms[i-1].Name >= ms[i].Name {
				t.Errorf("load(%s): %s before %s", dir, ms[i-1].Name, ms[i].Name)
			}
		}
	}
}

func TestClickhouseMigrationsSplit(t *testing.T) {
	ms, err := load("clickhouse")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, m := range ms {
		if err := validateNoSemicolonInStrings(m.SQL); err != nil {
			t.Errorf("%s: %v", m.Name, err)
		}
		stmts := splitStatements(m.SQL)
		if len(stmts) == 0 {
			t.Errorf("%s: no statements", m.Name)
		}
		for _, stmt := range stmts {
			if !strings.Contains(stmt, "IF NOT EXISTS") {
				t.Errorf("%s: statement is not rerunnable: %.60s", m.Name, stmt)
			}
		}
	}
}

func TestSplitStatements(t *testing.T) {
	input := `
-- report tables
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y UInt8) ENGINE = Memory;
`
	got := splitStatements(input)
	if len(got) != 2 {
		t.Fatalf("got %d statements, want 2: %q", len(got), got)
	}
	if !strings.HasPrefix(got[0], "CREATE TABLE a") || !strings.HasPrefix(got[1], "CREATE TABLE b") {
		t.Errorf("unexpected statements: %q", got)
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain", "SELECT 1; SELECT 2;", false},
		{"quoted", "SELECT 'a'; SELECT 'b';", false},
		{"escaped quote", "SELECT 'it''s'; SELECT 1;", false},
		{"semicolon in literal", "SELECT 'a;b';", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNoSemicolonInStrings(tt.sql)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/toptraders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "toptraders" {
		t.Errorf("db = %q, want toptraders", db)
	}

	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for DSN without database")
	}
}
