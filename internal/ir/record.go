package ir

import (
	"fmt"
	"strings"
	"time"
)

// Document keys of a stored run record.
const (
	FieldUniqueID     = "unique_id"
	FieldAuthor       = "author"
	FieldDescription  = "description"
	FieldScript       = "script"
	FieldScriptHash   = "script_hash"
	FieldScriptSource = "script_source"
	FieldCommand      = "command"
	FieldCommandArgs  = "command_args"
	FieldEnvironment  = "environment"
	FieldLibraries    = "libraries"
	FieldWarnings     = "warnings"
	FieldDate         = "date"
	FieldExitDate     = "exit_date"
	FieldInputs       = "inputs"
	FieldOutputs      = "outputs"
	FieldDiff         = "diff"
	FieldCustomValues = "custom_values"
)

// DateLayout is the layout dates are stored with. Always UTC.
const DateLayout = time.RFC3339Nano

// legacyDateLayouts are accepted when reading documents written by other
// tools (isoformat without zone, optionally tagged the way TinyDB did it).
var legacyDateLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// RunRecord describes one script execution.
//
// A record is created in memory while the script runs, persisted once at
// exit and never mutated afterwards. Inputs and Outputs are ordered most
// recent event first.
type RunRecord struct {
	UniqueID     string
	Author       string
	Description  string
	Script       string
	ScriptHash   string
	ScriptSource string
	Command      string
	CommandArgs  []string
	Environment  []string
	Libraries    []string
	Warnings     []string
	Date         time.Time
	ExitDate     time.Time
	Inputs       []Entry
	Outputs      []Entry
	Diff         string
	CustomValues map[string]string

	// Extra holds document fields this package does not model. They are
	// passed through storage and search untouched.
	Extra IRObject

	// Seq is the store's insertion sequence. It is assigned on read, never
	// serialized, and breaks ties between runs with equal dates.
	Seq int64
}

// HasDiff reports whether the record carries a script diff.
func (r RunRecord) HasDiff() bool {
	return r.Diff != ""
}

// Entries returns outputs followed by inputs.
func (r RunRecord) Entries() []Entry {
	all := make([]Entry, 0, len(r.Outputs)+len(r.Inputs))
	all = append(all, r.Outputs...)
	all = append(all, r.Inputs...)
	return all
}

// Clone returns a deep copy so callers cannot mutate a stored record through
// shared slices or maps.
func (r RunRecord) Clone() RunRecord {
	out := r
	out.CommandArgs = cloneStrings(r.CommandArgs)
	out.Environment = cloneStrings(r.Environment)
	out.Libraries = cloneStrings(r.Libraries)
	out.Warnings = cloneStrings(r.Warnings)
	out.Inputs = append([]Entry(nil), r.Inputs...)
	out.Outputs = append([]Entry(nil), r.Outputs...)
	if r.CustomValues != nil {
		out.CustomValues = make(map[string]string, len(r.CustomValues))
		for k, v := range r.CustomValues {
			out.CustomValues[k] = v
		}
	}
	if r.Extra != nil {
		out.Extra = make(IRObject, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// ToObject converts the record into its document form.
// Known fields always win over keys of the same name in Extra.
func (r RunRecord) ToObject() IRObject {
	obj := make(IRObject, len(r.Extra)+16)
	for k, v := range r.Extra {
		obj[k] = v
	}

	obj[FieldUniqueID] = IRString(r.UniqueID)
	obj[FieldScript] = IRString(r.Script)
	obj[FieldCommand] = IRString(r.Command)
	obj[FieldCommandArgs] = stringsToIR(r.CommandArgs)
	obj[FieldDate] = IRString(FormatDate(r.Date))
	obj[FieldInputs] = entriesToIR(r.Inputs)
	obj[FieldOutputs] = entriesToIR(r.Outputs)

	setString(obj, FieldAuthor, r.Author)
	setString(obj, FieldDescription, r.Description)
	setString(obj, FieldScriptHash, r.ScriptHash)
	setString(obj, FieldScriptSource, r.ScriptSource)
	setString(obj, FieldDiff, r.Diff)
	if !r.ExitDate.IsZero() {
		obj[FieldExitDate] = IRString(FormatDate(r.ExitDate))
	}
	if len(r.Environment) > 0 {
		obj[FieldEnvironment] = stringsToIR(r.Environment)
	}
	if len(r.Libraries) > 0 {
		obj[FieldLibraries] = stringsToIR(r.Libraries)
	}
	if len(r.Warnings) > 0 {
		obj[FieldWarnings] = stringsToIR(r.Warnings)
	}
	if len(r.CustomValues) > 0 {
		custom := make(IRObject, len(r.CustomValues))
		for k, v := range r.CustomValues {
			custom[k] = IRString(v)
		}
		obj[FieldCustomValues] = custom
	}
	return obj
}

// RecordFromObject decodes a document into a RunRecord.
// Fields this package does not model are kept in Extra.
func RecordFromObject(obj IRObject) (RunRecord, error) {
	var r RunRecord
	extra := make(IRObject)

	for k, v := range obj {
		var err error
		switch k {
		case FieldUniqueID:
			r.UniqueID, err = stringField(v)
		case FieldAuthor:
			r.Author, err = stringField(v)
		case FieldDescription:
			r.Description, err = stringField(v)
		case FieldScript:
			r.Script, err = stringField(v)
		case FieldScriptHash:
			r.ScriptHash, err = stringField(v)
		case FieldScriptSource:
			r.ScriptSource, err = stringField(v)
		case FieldCommand:
			r.Command, err = stringField(v)
		case FieldDiff:
			r.Diff, err = stringField(v)
		case FieldCommandArgs:
			r.CommandArgs = StringSlice(v)
		case FieldEnvironment:
			r.Environment = StringSlice(v)
		case FieldLibraries:
			r.Libraries = StringSlice(v)
		case FieldWarnings:
			r.Warnings = StringSlice(v)
		case FieldCustomValues:
			r.CustomValues = StringMap(v)
		case FieldDate:
			r.Date, err = dateField(v)
		case FieldExitDate:
			r.ExitDate, err = dateField(v)
		case FieldInputs:
			r.Inputs, err = entriesFromIR(v)
		case FieldOutputs:
			r.Outputs, err = entriesFromIR(v)
		default:
			extra[k] = v
		}
		if err != nil {
			return RunRecord{}, fmt.Errorf("decode run record: %s: %w", k, err)
		}
	}

	if r.UniqueID == "" {
		return RunRecord{}, fmt.Errorf("decode run record: %s is required", FieldUniqueID)
	}
	if len(extra) > 0 {
		r.Extra = extra
	}
	return r, nil
}

// MarshalJSON implements json.Marshaler with canonical key order.
func (r RunRecord) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(r.ToObject())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RunRecord) UnmarshalJSON(data []byte) error {
	var obj IRObject
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	rec, err := RecordFromObject(obj)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// FormatDate renders a timestamp in the stored layout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a stored date, accepting RFC 3339 and the zone-less
// isoformat layouts older documents used.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimPrefix(s, "{TinyDate}:")
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range legacyDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func setString(obj IRObject, key, value string) {
	if value != "" {
		obj[key] = IRString(value)
	}
}

func stringsToIR(s []string) IRArray {
	arr := make(IRArray, len(s))
	for i, v := range s {
		arr[i] = IRString(v)
	}
	return arr
}

func stringField(v IRValue) (string, error) {
	switch val := v.(type) {
	case IRString:
		return string(val), nil
	case IRNull:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func dateField(v IRValue) (time.Time, error) {
	switch val := v.(type) {
	case IRString:
		return ParseDate(string(val))
	case IRInt:
		return time.Unix(int64(val), 0).UTC(), nil
	case IRNull:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("expected date string, got %T", v)
	}
}
