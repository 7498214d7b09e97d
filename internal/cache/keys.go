package cache

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// DocumentKey identifies a document as seen by one rendering backend
type DocumentKey struct {
	// FileHash is the hex blake2b-256 digest of the file contents.
	FileHash string
	Backend  string
}

func (k DocumentKey) String() string {
	return "count:" + k.Backend + ":" + k.FileHash
}

// PageKey identifies one rendered page
type PageKey struct {
	DocumentKey
	DPIX          float64
	DPIY          float64
	Antialias     bool
	TextAntialias bool
	// Page is the 0-based page index.
	Page int
}

func (k PageKey) String() string {
	return fmt.Sprintf("page:%s:%s:%sx%s:%s%s:%d",
		k.Backend, k.FileHash,
		strconv.FormatFloat(k.DPIX, 'g', -1, 64),
		strconv.FormatFloat(k.DPIY, 'g', -1, 64),
		flag(k.Antialias), flag(k.TextAntialias),
		k.Page)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// HashFile returns the hex blake2b-256 digest of a file
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
