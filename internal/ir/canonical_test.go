package ir

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalRecord() RunRecord {
	return RunRecord{
		UniqueID: "r1",
		Script:   "/s.go",
		Command:  "c",
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Inputs:   []Entry{NewEntry("/i.csv")},
		Outputs:  []Entry{NewHashedEntry("/o.csv", "h1")},
	}
}

func TestCanonicalRunDocument(t *testing.T) {
	got, err := MarshalCanonical(minimalRecord())
	require.NoError(t, err)

	want := `{"command":"c","command_args":[],"date":"2024-01-01T00:00:00Z",` +
		`"inputs":["/i.csv"],"outputs":[["/o.csv","h1"]],"script":"/s.go","unique_id":"r1"}`
	assert.Equal(t, want, string(got))
}

func TestCanonicalExtraKeysSortWithKnownFields(t *testing.T) {
	rec := minimalRecord()
	rec.Extra = IRObject{
		"zeta":  IRInt(1),
		"Alpha": IRString("x"),
		"ä":     IRBool(true),
	}

	got, err := MarshalCanonical(rec)
	require.NoError(t, err)
	s := string(got)
	assert.True(t, strings.HasPrefix(s, `{"Alpha":"x","command":"c",`), s)
	assert.True(t, strings.HasSuffix(s, `"unique_id":"r1","zeta":1,"ä":true}`), s)
}

func TestCanonicalCustomValueKeysUseUTF16Order(t *testing.T) {
	// U+1F600 is a surrogate pair starting 0xD83D, which sorts before U+FF61
	// in UTF-16 even though its UTF-8 encoding sorts after.
	rec := minimalRecord()
	rec.CustomValues = map[string]string{"\uFF61": "half-width", "\U0001F600": "emoji"}

	got, err := MarshalCanonical(rec)
	require.NoError(t, err)
	s := string(got)
	assert.Less(t, strings.Index(s, "\U0001F600"), strings.Index(s, "\uFF61"))
}

func TestCanonicalPathStrings(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"html characters stay literal", "/data/<q&a>.csv", `"/data/<q&a>.csv"`},
		{"decomposed accents are composed", "/data/cafe\u0301.csv", "\"/data/caf\u00e9.csv\""},
		{"line separator stays literal", "/data/a\u2028b", "\"/data/a\u2028b\""},
		{"control characters are escaped", "/data/a\tb", `"/data/a\tb"`},
		{"quotes are escaped", `/data/"q".csv`, `"/data/\"q\".csv"`},
		{"escaped backslash before u2028 text", `C:\u2028`, `"C:\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(NewEntry(tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonicalNumbersInExtraRoundTrip(t *testing.T) {
	doc := []byte(`{"unique_id":"r1","ratio":0.10,"big":9007199254740993,"note":null}`)

	var rec RunRecord
	require.NoError(t, json.Unmarshal(doc, &rec))
	assert.Equal(t, IRNumber("0.10"), rec.Extra["ratio"])
	assert.Equal(t, IRInt(9007199254740993), rec.Extra["big"])
	assert.Equal(t, IRNull{}, rec.Extra["note"])

	first, err := MarshalCanonical(rec)
	require.NoError(t, err)
	assert.Contains(t, string(first), `"big":9007199254740993`)
	assert.Contains(t, string(first), `"note":null`)
	assert.Contains(t, string(first), `"ratio":0.10`)

	var again RunRecord
	require.NoError(t, json.Unmarshal(first, &again))
	second, err := MarshalCanonical(again)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "a stored document re-encodes byte for byte")
}

func TestCanonicalRejectsBadNumberLiterals(t *testing.T) {
	for _, lit := range []string{"1e", "NaN", "0x10", ""} {
		_, err := MarshalCanonical(IRObject{"ratio": IRNumber(lit)})
		assert.Error(t, err, lit)
	}
}

func TestCanonicalIndentForJSONOutput(t *testing.T) {
	got, err := MarshalCanonicalIndent(IRObject{
		"outputs": IRArray{IRArray{IRString("/o"), IRString("h")}},
		"author":  IRString("<ana>"),
	}, "  ")
	require.NoError(t, err)

	want := "{\n" +
		"  \"author\": \"<ana>\",\n" +
		"  \"outputs\": [\n" +
		"    [\n" +
		"      \"/o\",\n" +
		"      \"h\"\n" +
		"    ]\n" +
		"  ]\n" +
		"}"
	assert.Equal(t, want, string(got))
}

func TestCanonicalRecordSlice(t *testing.T) {
	empty, err := MarshalCanonical([]RunRecord{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	second := minimalRecord()
	second.UniqueID = "r2"
	got, err := MarshalCanonical([]RunRecord{minimalRecord(), second})
	require.NoError(t, err)
	s := string(got)
	assert.True(t, strings.HasPrefix(s, "[{"))
	assert.Less(t, strings.Index(s, `"r1"`), strings.Index(s, `"r2"`), "slice order is kept")
}

func TestCanonicalIsDeterministic(t *testing.T) {
	rec := sampleRecord()
	rec.Extra = IRObject{"k1": IRInt(1), "k2": IRInt(2), "k3": IRInt(3)}

	first, err := MarshalCanonical(rec)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(rec)
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestCanonicalPlainGoValues(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"rows":  []any{1, "x", nil},
		"ratio": 2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ratio":2.5,"rows":[1,"x",null]}`, string(got))

	_, err = MarshalCanonical(struct{ A int }{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
