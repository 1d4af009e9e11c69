package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provtrack/internal/query"
)

// Scenario defines one provenance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Files are written into the working directory before the first run,
	// keyed by path relative to it. They are not recorded by any run.
	Files map[string]string `yaml:"files,omitempty"`

	// Runs are executed in order, each as its own tracking session.
	Runs []RunSpec `yaml:"runs"`

	// Queries are evaluated against the store after every run finished.
	Queries []QuerySpec `yaml:"queries,omitempty"`

	// Assertions validate the persisted runs.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// RunSpec is one program execution.
type RunSpec struct {
	// Script is the program's source file relative to the working directory.
	// ScriptSource, when set, is written to Script before the session starts.
	Script       string `yaml:"script,omitempty"`
	ScriptSource string `yaml:"script_source,omitempty"`

	Description  string            `yaml:"description,omitempty"`
	CustomValues map[string]string `yaml:"custom_values,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is a single file operation performed while a run is tracked.
// Exactly one operation field must be set.
type Step struct {
	Read      string `yaml:"read,omitempty"`
	Open      string `yaml:"open,omitempty"`
	Write     string `yaml:"write,omitempty"`
	Create    string `yaml:"create,omitempty"`
	LoadTable string `yaml:"load_table,omitempty"`
	SaveTable string `yaml:"save_table,omitempty"`
	LoadYAML  string `yaml:"load_yaml,omitempty"`
	DumpYAML  string `yaml:"dump_yaml,omitempty"`
	LogInput  string `yaml:"log_input,omitempty"`
	LogOutput string `yaml:"log_output,omitempty"`

	// Content is the data written by write, create, save_table and dump_yaml.
	Content string `yaml:"content,omitempty"`

	// ExpectError marks a step whose operation is supposed to fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpRead      = "read"
	OpOpen      = "open"
	OpWrite     = "write"
	OpCreate    = "create"
	OpLoadTable = "load_table"
	OpSaveTable = "save_table"
	OpLoadYAML  = "load_yaml"
	OpDumpYAML  = "dump_yaml"
	OpLogInput  = "log_input"
	OpLogOutput = "log_output"
)

// Op returns the step's operation and its path.
func (s Step) Op() (op, path string, err error) {
	candidates := []struct{ op, path string }{
		{OpRead, s.Read},
		{OpOpen, s.Open},
		{OpWrite, s.Write},
		{OpCreate, s.Create},
		{OpLoadTable, s.LoadTable},
		{OpSaveTable, s.SaveTable},
		{OpLoadYAML, s.LoadYAML},
		{OpDumpYAML, s.DumpYAML},
		{OpLogInput, s.LogInput},
		{OpLogOutput, s.LogOutput},
	}
	var set []string
	for _, c := range candidates {
		if c.path != "" {
			set = append(set, c.op)
			op, path = c.op, c.path
		}
	}
	switch len(set) {
	case 0:
		return "", "", fmt.Errorf("step has no operation")
	case 1:
		return op, path, nil
	default:
		return "", "", fmt.Errorf("step has several operations: %s", strings.Join(set, ", "))
	}
}

// QuerySpec is one query against the store with its expected outcome.
type QuerySpec struct {
	Name string `yaml:"name"`
	Mode string `yaml:"mode"`

	// Subject is the query text. "$WORK" expands to the working directory.
	Subject string `yaml:"subject,omitempty"`

	// File is a path relative to the working directory, used as the subject.
	File string `yaml:"file,omitempty"`

	All bool `yaml:"all,omitempty"`

	Expect *QueryExpect `yaml:"expect,omitempty"`
}

// QueryExpect is the expected result of a query.
type QueryExpect struct {
	Outcome string   `yaml:"outcome"`
	IDs     []string `yaml:"ids,omitempty"`
	More    bool     `yaml:"more,omitempty"`
}

// Assertion validates the persisted runs.
type Assertion struct {
	// Type selects the check: run_count, run_inputs, run_outputs,
	// libraries, has_diff or custom_value.
	Type string `yaml:"type"`

	// Run is the unique_id the assertion applies to.
	Run string `yaml:"run,omitempty"`

	// Count is the expected number of stored runs (run_count).
	Count int `yaml:"count,omitempty"`

	// Paths are the expected entry paths relative to the working
	// directory, most recent first (run_inputs, run_outputs).
	Paths []string `yaml:"paths,omitempty"`

	// Modules are the expected instrumented modules (libraries).
	Modules []string `yaml:"modules,omitempty"`

	// Diff is the expected has_diff value.
	Diff bool `yaml:"diff,omitempty"`

	// Key and Value are the expected custom value (custom_value).
	Key   string `yaml:"key,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertRunCount    = "run_count"
	AssertRunInputs   = "run_inputs"
	AssertRunOutputs  = "run_outputs"
	AssertLibraries   = "libraries"
	AssertHasDiff     = "has_diff"
	AssertCustomValue = "custom_value"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so "assertion:" is not silently ignored.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Runs) == 0 {
		return fmt.Errorf("runs list is required and must be non-empty")
	}

	for path := range s.Files {
		if err := validateRelPath(path); err != nil {
			return fmt.Errorf("files: %w", err)
		}
	}

	for i, run := range s.Runs {
		if run.ScriptSource != "" && run.Script == "" {
			return fmt.Errorf("runs[%d]: script_source requires script", i)
		}
		if len(run.Steps) == 0 {
			return fmt.Errorf("runs[%d]: steps list is required and must be non-empty", i)
		}
		for j, step := range run.Steps {
			_, path, err := step.Op()
			if err != nil {
				return fmt.Errorf("runs[%d].steps[%d]: %w", i, j, err)
			}
			if err := validateRelPath(path); err != nil {
				return fmt.Errorf("runs[%d].steps[%d]: %w", i, j, err)
			}
		}
	}

	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if q.Mode == "" {
			return fmt.Errorf("queries[%d]: mode is required", i)
		}
		if (q.Subject == "") == (q.File == "") {
			return fmt.Errorf("queries[%d]: exactly one of subject or file is required", i)
		}
		if q.Expect != nil && !validOutcome(q.Expect.Outcome) {
			return fmt.Errorf("queries[%d]: unknown outcome %q", i, q.Expect.Outcome)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertRunCount:
		return nil
	case AssertRunInputs, AssertRunOutputs, AssertLibraries, AssertHasDiff:
		if a.Run == "" {
			return fmt.Errorf("%s requires run", a.Type)
		}
		return nil
	case AssertCustomValue:
		if a.Run == "" || a.Key == "" {
			return fmt.Errorf("%s requires run and key", a.Type)
		}
		return nil
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func validOutcome(s string) bool {
	switch query.Outcome(s) {
	case query.OutcomeFound, query.OutcomeNoResults, query.OutcomeEmpty, query.OutcomeUnknownQuery:
		return true
	}
	return false
}

// validateRelPath keeps scenario paths inside the working directory.
func validateRelPath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("path %q must be relative", path)
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes the working directory", path)
	}
	return nil
}
