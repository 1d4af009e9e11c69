package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// HashChunkSize is the read size used when streaming file content into the digest.
const HashChunkSize = 64 * 1024

// DigestLength is the length of a hex encoded digest.
const DigestLength = sha256.Size * 2

// ErrNotRegularFile is returned when hashing something that is not a regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// HashFile computes the content digest of the file at path.
//
// The file is streamed in HashChunkSize chunks so memory use stays flat for
// arbitrarily large files. Errors wrap the underlying fs error, so
// errors.Is(err, fs.ErrNotExist) works for missing files.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("hash %s: %w", path, ErrNotRegularFile)
	}

	digest, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return digest, nil
}

// HashReader digests everything r yields.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, HashChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes digests an in-memory buffer. Same bytes give the same digest as HashFile.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether s looks like a hex digest produced by this package.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
