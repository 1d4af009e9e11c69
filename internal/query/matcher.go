package query

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roach88/provtrack/internal/ir"
)

// Matcher decides whether a run belongs to a result.
//
// This is a sealed interface: only DigestMatcher, PathMatcher,
// PatternMatcher and IDPrefixMatcher implement it, so callers can switch
// over the concrete types exhaustively.
type Matcher interface {
	Match(rec ir.RunRecord) bool
	matcherNode()
}

// DigestMatcher matches runs with a hash-bearing entry equal to Digest.
// Bare-path entries never match.
type DigestMatcher struct {
	Digest string
}

func (DigestMatcher) matcherNode() {}

// Match implements Matcher.
func (m DigestMatcher) Match(rec ir.RunRecord) bool {
	return anyEntry(rec, func(e ir.Entry) bool {
		return e.HasHash() && e.Hash == m.Digest
	})
}

// PathMatcher matches runs with an entry whose path equals Path exactly.
type PathMatcher struct {
	Path string
}

func (PathMatcher) matcherNode() {}

// Match implements Matcher.
func (m PathMatcher) Match(rec ir.RunRecord) bool {
	return anyEntry(rec, func(e ir.Entry) bool {
		return e.Path == m.Path
	})
}

// PatternMatcher matches runs with an entry path matching Pattern.
// Pattern is anchored at the start of the path by Compile.
type PatternMatcher struct {
	Pattern *regexp.Regexp
}

func (PatternMatcher) matcherNode() {}

// Match implements Matcher.
func (m PatternMatcher) Match(rec ir.RunRecord) bool {
	return anyEntry(rec, func(e ir.Entry) bool {
		return m.Pattern.MatchString(e.Path)
	})
}

// IDPrefixMatcher matches runs whose unique_id starts with Prefix.
type IDPrefixMatcher struct {
	Prefix string
}

func (IDPrefixMatcher) matcherNode() {}

// Match implements Matcher.
func (m IDPrefixMatcher) Match(rec ir.RunRecord) bool {
	return strings.HasPrefix(rec.UniqueID, m.Prefix)
}

// Compile builds the matcher for a request. The mode must be valid;
// Engine.Search reports unknown modes as an outcome before calling Compile.
func Compile(mode Mode, subject string) (Matcher, error) {
	if subject == "" {
		return nil, &QueryError{Code: ErrCodeEmptySubject, Message: "subject is required", Mode: mode}
	}

	switch mode {
	case ModeHash:
		digest, err := resolveDigest(subject)
		if err != nil {
			return nil, &QueryError{
				Code:    ErrCodeHashFailed,
				Message: err.Error(),
				Mode:    mode,
				Subject: subject,
				Err:     err,
			}
		}
		return DigestMatcher{Digest: digest}, nil

	case ModeFilepath:
		abs, err := filepath.Abs(subject)
		if err != nil {
			return nil, fmt.Errorf("absolute path of %s: %w", subject, err)
		}
		return PathMatcher{Path: abs}, nil

	case ModeFuzzy:
		return compilePattern(mode, subject, FuzzyPattern(subject))

	case ModeRegex:
		return compilePattern(mode, subject, subject)

	case ModeID:
		return IDPrefixMatcher{Prefix: subject}, nil

	default:
		return nil, fmt.Errorf("unknown query mode %q", mode)
	}
}

// FuzzyPattern wraps text so it matches any path containing it with at
// least one character on either side. The text itself is not escaped.
func FuzzyPattern(text string) string {
	return ".+" + text + ".+"
}

func compilePattern(mode Mode, subject, pattern string) (Matcher, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, &QueryError{
			Code:    ErrCodeInvalidPattern,
			Message: "invalid regular expression",
			Mode:    mode,
			Subject: subject,
			Err:     err,
		}
	}
	return PatternMatcher{Pattern: re}, nil
}

// resolveDigest hashes subject when it names a regular file and otherwise
// returns it unchanged as a literal digest.
func resolveDigest(subject string) (string, error) {
	info, err := os.Stat(subject)
	if err != nil || !info.Mode().IsRegular() {
		return subject, nil
	}
	return ir.HashFile(subject)
}

func anyEntry(rec ir.RunRecord, fn func(ir.Entry) bool) bool {
	for _, e := range rec.Outputs {
		if fn(e) {
			return true
		}
	}
	for _, e := range rec.Inputs {
		if fn(e) {
			return true
		}
	}
	return false
}
