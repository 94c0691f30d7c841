package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finplan/internal/core"
)

const householdScenario = `
[household]
name = "Bianchi"
income_growth = 2

[[person]]
name = "Luca"

  [[person.income]]
  description = "Salary"
  amount = 4000

  [[person.expense]]
  description = "Living"
  amount = 2500

  [[person.savings]]
  name = "Bank"
  balance = 3000
  interest_rate = 2

[[lump_sum]]
month = 12
amount = 1500
description = "Bonus"
`

func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProjectJSON(t *testing.T) {
	path := writeScenario(t, householdScenario)
	out, err := run(t, "project", "--scenario", path, "--json")
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	var p core.FinancialProjection
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(p.DataPoints) != 121 {
		t.Fatalf("data points = %d", len(p.DataPoints))
	}
	if p.Summary.StartNetWorth != 3000 {
		t.Fatalf("start net worth = %v", p.Summary.StartNetWorth)
	}
}

func TestProjectReport(t *testing.T) {
	path := writeScenario(t, householdScenario)
	out, err := run(t, "project", "-s", path)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for _, want := range []string{"Bianchi", "Yearly balances", "Bonus", "Income $4,000/mo"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestProjectRequiresScenario(t *testing.T) {
	if _, err := run(t, "project"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}

func TestImportThenShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "finplan.db")
	path := writeScenario(t, householdScenario)

	out, err := run(t, "--db", db, "import", "--scenario", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "with id 1") {
		t.Fatalf("import output = %q", out)
	}

	out, err = run(t, "--db", db, "show", "--household", "1", "--save", "--json")
	if err != nil {
		t.Fatalf("show --save: %v", err)
	}
	var saved core.FinancialProjection
	if err := json.Unmarshal([]byte(out), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, err = run(t, "--db", db, "show", "--household", "1", "--latest", "--json")
	if err != nil {
		t.Fatalf("show --latest: %v", err)
	}
	var latest core.FinancialProjection
	if err := json.Unmarshal([]byte(out), &latest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if latest.Summary.EndNetWorth != saved.Summary.EndNetWorth {
		t.Fatalf("latest run end net worth = %v, want %v", latest.Summary.EndNetWorth, saved.Summary.EndNetWorth)
	}

	if _, err := run(t, "--db", db, "show", "--household", "2"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestImportRequiresHousehold(t *testing.T) {
	db := filepath.Join(t.TempDir(), "finplan.db")
	path := writeScenario(t, "[flows]\nmonthly_income = 1\n")
	if _, err := run(t, "--db", db, "import", "--scenario", path); err == nil {
		t.Fatalf("expected error for scenario without household")
	}
}
