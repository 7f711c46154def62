package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	fixtures := `[
	  {"match_id": 42, "home_team": "Inter", "away_team": "Milan", "league_name": "Serie A",
	   "alert_datetime": "2025-03-01T20:45:00Z"},
	  {"match_id": "x-7", "home_team": "Ajax", "away_team": "PSV", "league_name": "Eredivisie",
	   "alert_datetime": "2025-03-01T23:00:00Z"}
	]`
	if err := os.WriteFile(filepath.Join(dir, "fixtures.json"), []byte(fixtures), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FIXTURES_FILE", filepath.Join(dir, "fixtures.json"))
	t.Setenv("SENT_ALERTS_FILE", filepath.Join(dir, "sent.json"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("ALERT_TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("LEDGER_DATABASE_URL", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestOnce_DryRunPrintsAndLeavesLedgerAlone(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, "once", "--dry-run", "--at", "2025-03-01T20:46:00Z")
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	if !strings.Contains(out, "*Inter* vs *Milan*") {
		t.Fatalf("due fixture not printed:\n%s", out)
	}
	if strings.Contains(out, "Ajax") {
		t.Fatalf("fixture outside the window printed:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "sent.json")); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote the ledger (stat err=%v)", err)
	}
}

func TestOnce_RequiresCredentialsWithoutDryRun(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "once"); err == nil {
		t.Fatal("want error for missing TELEGRAM_BOT_TOKEN")
	}
}

func TestLedger_AckThenList(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "ledger", "ack", "42", "x-7"); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if _, err := run(t, "ledger", "ack", "--string", "99"); err != nil {
		t.Fatalf("ack --string: %v", err)
	}
	out, err := run(t, "ledger", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// numeric ids first, then strings
	if got, want := out, "42\n99\nx-7\n"; got != want {
		t.Fatalf("list = %q, want %q", got, want)
	}

	// acknowledged ids are skipped by the next cycle
	out, err = run(t, "once", "--dry-run", "--at", "2025-03-01T20:45:00Z")
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	if out != "" {
		t.Fatalf("acknowledged fixture printed again:\n%s", out)
	}
}

func TestParseMatchID(t *testing.T) {
	id, err := parseMatchID("17", false)
	if err != nil || !id.IsNumeric() || id.String() != "17" {
		t.Fatalf("numeric: %v %v", id, err)
	}
	id, err = parseMatchID("17", true)
	if err != nil || id.IsNumeric() {
		t.Fatalf("forced string: %v %v", id, err)
	}
	if _, err := parseMatchID("", false); err == nil {
		t.Fatal("want error for empty id")
	}
}
