package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String() + errOut.String(), err
}

// addedID extracts the tenant ID from "Added <name> (<id>)".
func addedID(t *testing.T, out string) string {
	t.Helper()
	start, end := strings.LastIndex(out, "("), strings.LastIndex(out, ")")
	if start < 0 || end <= start+1 {
		t.Fatalf("No tenant ID in output: %q", out)
	}
	return out[start+1 : end]
}

func TestCommands(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("RENTMATE_REMOTE", "none")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "tenant", "add", "--name", "Asha", "--room", "101", "--mobile", "9876543210", "--rent", "5000", "--water", "300")
	if err != nil {
		t.Fatalf("tenant add: %v", err)
	}
	id := addedID(t, out)
	if _, err := run(t, "tenant", "add", "--name", "Bad", "--mobile", "123"); err == nil {
		t.Error("Expected validation error for short mobile number")
	}

	out, err = run(t, "tenant", "list")
	if err != nil {
		t.Fatalf("tenant list: %v", err)
	}
	if !strings.Contains(out, "Asha") || strings.Contains(out, "Bad") {
		t.Errorf("Unexpected tenant list:\n%s", out)
	}

	if _, err := run(t, "draft", "set", id[:6], "--units", "40", "--extra", "100", "--date", "2024-01-10"); err != nil {
		t.Fatalf("draft set: %v", err)
	}

	out, err = run(t, "bill", "total")
	if err != nil {
		t.Fatalf("bill total: %v", err)
	}
	if !strings.Contains(out, "5,880") {
		t.Errorf("Expected total 5,880 in:\n%s", out)
	}

	out, err = run(t, "bill", "send", id)
	if err != nil {
		t.Fatalf("bill send: %v", err)
	}
	if !strings.Contains(out, "whatsapp://send?phone=919876543210") || !strings.Contains(out, "created") {
		t.Errorf("Unexpected send output:\n%s", out)
	}

	out, err = run(t, "bill", "send", id)
	if err != nil {
		t.Fatalf("second bill send: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("Expected pending record to be reused:\n%s", out)
	}

	out, err = run(t, "payment", "list", id)
	if err != nil {
		t.Fatalf("payment list: %v", err)
	}
	if strings.Count(out, "January 2024") != 1 {
		t.Errorf("Expected one January record:\n%s", out)
	}

	if _, err := run(t, "tenant", "delete", id); err != nil {
		t.Fatalf("tenant delete: %v", err)
	}
	if _, err := run(t, "bill", "send", id); err == nil {
		t.Error("Expected deleted tenant to be unbillable")
	}
}

func TestUnknownTenant(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("RENTMATE_REMOTE", "none")
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "bill", "show", "nope")
	if err == nil || !strings.Contains(err.Error(), "no tenant matches") {
		t.Errorf("Expected unknown tenant error, got %v", err)
	}
}
