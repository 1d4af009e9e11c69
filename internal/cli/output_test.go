package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtrack/internal/ir"
)

func TestOutputFormatter_WriteJSONCanonical(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{JSON: true, Writer: buf}

	err := formatter.WriteJSON(ir.IRObject{
		"b": ir.IRString("<x>"),
		"a": ir.IRInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": \"<x>\"\n}\n", buf.String())
}

func TestOutputFormatter_WriteJSONEmptyList(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{JSON: true, Writer: buf}

	require.NoError(t, formatter.WriteJSON([]ir.RunRecord{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestOutputFormatter_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: buf, ErrWriter: errBuf, Verbose: true}

	formatter.Error("INVALID_PATTERN", "bad regex", "missing )")
	assert.Empty(t, buf.String())
	assert.Contains(t, errBuf.String(), "Error [INVALID_PATTERN]: bad regex")
	assert.Contains(t, errBuf.String(), "Details: missing )")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: buf}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, buf.String())

	formatter.Verbose = true
	formatter.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := WrapExitError(ExitFailure, "outer", errors.New("inner"))
	assert.Equal(t, "outer: inner", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	ReportError(&buf, WrapExitError(ExitCommandError, "failed to open database", errors.New("disk full")))
	assert.Equal(t, "Error: failed to open database: disk full\n", buf.String())

	buf.Reset()
	ReportError(&buf, NewExitError(ExitCommandError, "unknown query").MarkReported())
	assert.Empty(t, buf.String())

	buf.Reset()
	ReportError(&buf, nil)
	assert.Empty(t, buf.String())
}
