package labels_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"diagnostic-mailer/api/services/labels"
)

func TestDefault(t *testing.T) {
	table, err := labels.Default()
	if err != nil {
		t.Fatalf("embedded tables should parse: %v", err)
	}
	if table.Version < 1 {
		t.Errorf("expected positive version, got %d", table.Version)
	}

	got := table.Resolve(labels.Answers{Q1: "jaw", Q2: "meetings", Q3: "shipping"})
	want := labels.Resolved{
		Answers:  labels.Answers{Q1: "jaw", Q2: "meetings", Q3: "shipping"},
		Signal:   "A clenched jaw",
		Trigger:  "Back-to-back meetings",
		Deferred: "Shipping the thing you've been polishing",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_UnknownCodesFallBack(t *testing.T) {
	table, err := labels.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []labels.Answers{
		{Q1: "elbow", Q2: "standups", Q3: "taxes"},
		{Q1: "", Q2: "", Q3: ""},
		{Q1: "<b>jaw</b>", Q2: "MEETINGS", Q3: "shipping "},
	}
	for _, a := range tests {
		got := table.Resolve(a)
		if got.Signal != a.Q1 || got.Trigger != a.Q2 || got.Deferred != a.Q3 {
			t.Errorf("expected verbatim fallback for %+v, got %+v", a, got)
		}
	}
}

func TestTables_DoNotShareKeys(t *testing.T) {
	table, err := labels.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// q1 codes only resolve through the signal table.
	if got := table.Trigger("jaw"); got != "jaw" {
		t.Errorf("expected trigger lookup of a signal code to fall back, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	doc := "version: 7\nsignals: {jaw: Jaw}\ntriggers: {meetings: Meetings}\ndeferred: {shipping: Shipping}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	table, err := labels.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Version != 7 || table.Signal("jaw") != "Jaw" {
		t.Errorf("unexpected table %+v", table)
	}

	def, err := labels.Load("")
	if err != nil || def.Version < 1 {
		t.Errorf("empty path should return defaults, got %+v, %v", def, err)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "bad yaml", doc: "version: [", wantErr: "invalid labels yaml"},
		{name: "no version", doc: "signals: {a: b}\ntriggers: {a: b}\ndeferred: {a: b}\n", wantErr: "labels version must be positive"},
		{name: "missing table", doc: "version: 1\nsignals: {a: b}\n", wantErr: "labels must define"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0o600); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}
			_, err := labels.Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := labels.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
