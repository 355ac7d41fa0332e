package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"drivebank/internal/bank"
	"drivebank/internal/question"
)

// JSONStore persists the bank as a single JSON document: chapter identifier
// to ordered question list. Marshalling is deterministic (sorted chapter
// keys, stable indent), so saving an unchanged bank reproduces the file
// byte for byte.
type JSONStore struct {
	path string
}

// NewJSONStore constructs a store backed by the given file path.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	return &JSONStore{path: path}, nil
}

// Path returns the backing file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the stored bank. A missing file is an empty bank, not an error.
func (s *JSONStore) Load() (*bank.Bank, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return bank.New(), nil
		}
		return nil, fmt.Errorf("read question store: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	var chapters map[string][]storedQuestion
	if err := decoder.Decode(&chapters); err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("multiple documents are not supported")
		}
		return nil, &CorruptError{Path: s.path, Err: err}
	}

	loaded := bank.New()
	chapterIDs := make([]string, 0, len(chapters))
	for chapter := range chapters {
		chapterIDs = append(chapterIDs, chapter)
	}
	sort.Strings(chapterIDs)
	for _, chapter := range chapterIDs {
		for _, record := range chapters[chapter] {
			q, err := question.New(chapter, record.ID, record.Text, record.Options, record.CorrectAnswers, "")
			if err != nil {
				return nil, &CorruptError{Path: s.path, Err: err}
			}
			q.ImageRef = record.ImageRef
			loaded.AddOrUpdate(q)
		}
	}
	return loaded, nil
}

// Save writes the full bank using a temp file, fsync, and rename so a crash
// mid-save leaves either the old or the new content, never a partial write.
func (s *JSONStore) Save(b *bank.Bank) error {
	if b == nil {
		return fmt.Errorf("bank is nil")
	}
	chapters := map[string][]storedQuestion{}
	for _, chapter := range b.Chapters() {
		questions := b.Chapter(chapter)
		records := make([]storedQuestion, 0, len(questions))
		for _, q := range questions {
			records = append(records, storedQuestion{
				ID:             q.ID,
				Text:           q.Text,
				Options:        q.Options,
				CorrectAnswers: q.CorrectAnswers,
				ImageRef:       q.ImageRef,
			})
		}
		chapters[chapter] = records
	}
	payload, err := json.MarshalIndent(chapters, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal question store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, writeErr := file.Write(payload)
	syncErr := file.Sync()
	closeErr := file.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}
	if syncErr != nil {
		_ = os.Remove(tmpPath)
		return syncErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// storedQuestion is the on-disk shape of a single question. The chapter is
// carried by the enclosing map key; an absent image is omitted rather than
// stored as an empty string.
type storedQuestion struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answer"`
	ImageRef       string   `json:"image_ref,omitempty"`
}
