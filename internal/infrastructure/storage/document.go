// Package storage persists the flat JSON documents (corpus, quota ledger,
// blacklist) and the sqlite summary cache. Document writes are atomic
// whole-file replacements, so a killed run leaves the previous state
// intact rather than a partial file.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/quota"
)

// readDocument decodes a JSON document; a missing file yields the zero
// value without error, so first runs start from an empty document.
func readDocument(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeDocument marshals v and replaces the file atomically:
// tmp file, fsync, rename.
func writeDocument(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".curator-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	success = true
	return nil
}

// CorpusFile stores the corpus document at a fixed path.
type CorpusFile struct {
	path string
}

var _ ports.CorpusStore = (*CorpusFile)(nil)

// NewCorpusFile wires the corpus document location.
func NewCorpusFile(path string) *CorpusFile {
	return &CorpusFile{path: path}
}

// Load reads the corpus; an absent file yields an empty corpus.
func (s *CorpusFile) Load() (domain.Corpus, error) {
	var c domain.Corpus
	if err := readDocument(s.path, &c); err != nil {
		return domain.Corpus{}, err
	}
	return c, nil
}

// Save replaces the corpus document atomically.
func (s *CorpusFile) Save(c domain.Corpus) error {
	return writeDocument(s.path, c)
}

// StatusFile stores the quota ledger document.
type StatusFile struct {
	path string
}

var _ ports.StatusStore = (*StatusFile)(nil)

// NewStatusFile wires the ledger document location.
func NewStatusFile(path string) *StatusFile {
	return &StatusFile{path: path}
}

// Load reads the ledger; an absent file yields a zero status.
func (s *StatusFile) Load() (quota.Status, error) {
	var st quota.Status
	if err := readDocument(s.path, &st); err != nil {
		return quota.Status{}, err
	}
	return st, nil
}

// Save replaces the ledger document atomically.
func (s *StatusFile) Save(st quota.Status) error {
	return writeDocument(s.path, st)
}

// BlacklistFile stores the moderation blacklist document.
type BlacklistFile struct {
	path string
}

var _ ports.BlacklistStore = (*BlacklistFile)(nil)

// NewBlacklistFile wires the blacklist document location.
func NewBlacklistFile(path string) *BlacklistFile {
	return &BlacklistFile{path: path}
}

// Load reads the blacklist; an absent file yields an empty list.
func (s *BlacklistFile) Load() (domain.Blacklist, error) {
	var b domain.Blacklist
	if err := readDocument(s.path, &b); err != nil {
		return domain.Blacklist{}, err
	}
	return b, nil
}

// Save replaces the blacklist document atomically.
func (s *BlacklistFile) Save(b domain.Blacklist) error {
	return writeDocument(s.path, b)
}
