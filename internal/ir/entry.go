package ir

import (
	"encoding/json"
	"fmt"
)

// Entry is one file touched by a run.
//
// On the wire an entry is either a bare path string (no digest known) or a
// two-element array [path, digest]. Both shapes are accepted when decoding and
// the shape is chosen by whether Hash is set when encoding.
//
// Decoding normalises: [path, ""] and [path, null] carry no digest and are
// written back as the bare path. Such entries never match a digest query in
// either shape.
type Entry struct {
	Path string
	Hash string
}

// NewEntry creates an entry without a digest.
func NewEntry(path string) Entry {
	return Entry{Path: path}
}

// NewHashedEntry creates an entry carrying the file's content digest.
func NewHashedEntry(path, hash string) Entry {
	return Entry{Path: path, Hash: hash}
}

// HasHash reports whether the entry carries a content digest.
func (e Entry) HasHash() bool {
	return e.Hash != ""
}

// String renders the entry the way run templates show it.
func (e Entry) String() string {
	if e.HasHash() {
		return fmt.Sprintf("%s (%s)", e.Path, e.Hash)
	}
	return e.Path
}

// ToIR converts the entry to its document shape.
func (e Entry) ToIR() IRValue {
	if e.HasHash() {
		return IRArray{IRString(e.Path), IRString(e.Hash)}
	}
	return IRString(e.Path)
}

// EntryFromIR decodes either document shape into an Entry.
func EntryFromIR(v IRValue) (Entry, error) {
	switch val := v.(type) {
	case IRString:
		return Entry{Path: string(val)}, nil
	case IRArray:
		if len(val) != 2 {
			return Entry{}, fmt.Errorf("entry array must have 2 elements, got %d", len(val))
		}
		path, ok := val[0].(IRString)
		if !ok {
			return Entry{}, fmt.Errorf("entry path must be a string, got %T", val[0])
		}
		switch hash := val[1].(type) {
		case IRString:
			return Entry{Path: string(path), Hash: string(hash)}, nil
		case IRNull:
			return Entry{Path: string(path)}, nil
		default:
			return Entry{}, fmt.Errorf("entry digest must be a string, got %T", val[1])
		}
	default:
		return Entry{}, fmt.Errorf("entry must be a string or [path, digest], got %T", v)
	}
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(e.ToIR())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	val, err := unmarshalIRValue(data)
	if err != nil {
		return err
	}
	entry, err := EntryFromIR(val)
	if err != nil {
		return err
	}
	*e = entry
	return nil
}

// entriesToIR converts a slice of entries to an IRArray, preserving order.
func entriesToIR(entries []Entry) IRArray {
	arr := make(IRArray, len(entries))
	for i, e := range entries {
		arr[i] = e.ToIR()
	}
	return arr
}

// entriesFromIR decodes an IRArray of entries, preserving order.
func entriesFromIR(v IRValue) ([]Entry, error) {
	if _, isNull := v.(IRNull); isNull || v == nil {
		return nil, nil
	}
	arr, ok := v.(IRArray)
	if !ok {
		return nil, fmt.Errorf("entries must be an array, got %T", v)
	}
	if len(arr) == 0 {
		return nil, nil
	}
	entries := make([]Entry, 0, len(arr))
	for i, elem := range arr {
		e, err := EntryFromIR(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

var (
	_ json.Marshaler   = Entry{}
	_ json.Unmarshaler = (*Entry)(nil)
)
