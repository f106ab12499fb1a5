package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := c.Render("move.detected", map[string]any{"Move": "e2e4"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "e2e4") {
		t.Errorf("rendered text %q does not contain the move", got)
	}

	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestRenderMissingDataKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("session.started", map[string]any{"BoardID": "b-1"}); err == nil {
		t.Error("expected error when template data is incomplete")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "move:\n  detected: \"OVERRIDDEN {{.Move}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "10-local.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("move.detected", map[string]any{"Move": "g1f3"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "OVERRIDDEN g1f3" {
		t.Errorf("Render = %q, want override applied", got)
	}

	// Untouched keys keep their embedded text.
	if _, err := c.Render("board.rebaseline", nil); err != nil {
		t.Errorf("embedded key lost after override: %v", err)
	}
}

func TestDuplicateOverrideKeysRejected(t *testing.T) {
	dir := t.TempDir()
	body := "move:\n  detected: \"A\"\n"
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Error("expected duplicate key error across override files")
	}
}
