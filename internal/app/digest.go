package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/newsdigest/internal/model"
)

// DefaultOutputPath returns digest_<YYYY-MM-DD>.json for the day of now.
func DefaultOutputPath(now time.Time) string {
	return fmt.Sprintf("digest_%s.json", now.Format("2006-01-02"))
}

// WriteDigest writes result as indented UTF-8 JSON with non-ASCII and
// HTML characters left unescaped. It returns the number of bytes written.
func WriteDigest(path string, result model.DigestResult) (int, error) {
	data, err := EncodeDigest(result)
	if err != nil {
		return 0, err
	}
	if err := writeFile(path, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// EncodeDigest renders result in the digest file format.
func EncodeDigest(result model.DigestResult) ([]byte, error) {
	if result.Newsletters == nil {
		result.Newsletters = []model.SummaryRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("encoding digest: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadDigest loads a digest file written by WriteDigest.
func ReadDigest(path string) (model.DigestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DigestResult{}, fmt.Errorf("reading digest %s: %w", path, err)
	}
	var result model.DigestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return model.DigestResult{}, &model.ParseError{What: "digest " + path, Err: err}
	}
	return result, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
