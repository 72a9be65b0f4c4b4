// Package labels maps quiz answer codes to the phrases shown in emails.
package labels

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultTables []byte

// Table holds the three answer tables. It is loaded once and never
// mutated, so it is safe to share between requests.
type Table struct {
	Version  int               `yaml:"version"`
	Signals  map[string]string `yaml:"signals"`
	Triggers map[string]string `yaml:"triggers"`
	Deferred map[string]string `yaml:"deferred"`
}

// Answers are the raw codes submitted for q1, q2 and q3.
type Answers struct {
	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
	Q3 string `json:"q3"`
}

// Resolved pairs each raw code with its display label.
type Resolved struct {
	Answers
	Signal   string
	Trigger  string
	Deferred string
}

// Default returns the tables compiled into the binary.
func Default() (*Table, error) {
	return Parse(defaultTables)
}

// Load reads tables from a YAML file. An empty path returns Default.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("labels file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML label document.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid labels yaml: %w", err)
	}
	if t.Version < 1 {
		return nil, fmt.Errorf("labels version must be positive, got %d", t.Version)
	}
	if len(t.Signals) == 0 || len(t.Triggers) == 0 || len(t.Deferred) == 0 {
		return nil, fmt.Errorf("labels must define signals, triggers and deferred tables")
	}
	return &t, nil
}

// Signal returns the q1 label, or code itself when unmapped.
func (t *Table) Signal(code string) string { return lookup(t.Signals, code) }

// Trigger returns the q2 label, or code itself when unmapped.
func (t *Table) Trigger(code string) string { return lookup(t.Triggers, code) }

// DeferredWork returns the q3 label, or code itself when unmapped.
func (t *Table) DeferredWork(code string) string { return lookup(t.Deferred, code) }

// Resolve maps all three answers.
func (t *Table) Resolve(a Answers) Resolved {
	return Resolved{
		Answers:  a,
		Signal:   t.Signal(a.Q1),
		Trigger:  t.Trigger(a.Q2),
		Deferred: t.DeferredWork(a.Q3),
	}
}

func lookup(m map[string]string, code string) string {
	if label, ok := m[code]; ok {
		return label
	}
	return code
}
