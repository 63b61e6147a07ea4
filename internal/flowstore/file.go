package flowstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vecinomarket/publicar-flow/internal/models"
)

// FileStore keeps the draft as one JSON file on disk, the CLI analogue of the
// web client's single localStorage key.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path. The parent directory is
// created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*models.VerificationDraft, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read draft: %w", err)
	}

	var draft models.VerificationDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		// Corrupt slot reads as empty.
		return nil, nil
	}
	return &draft, nil
}

func (s *FileStore) Save(d *models.VerificationDraft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

func (s *FileStore) Patch(p models.DraftPatch) error {
	draft, err := s.Load()
	if err != nil {
		return err
	}
	if draft == nil {
		return ErrNoActiveDraft
	}
	p.Apply(draft)
	return s.Save(draft)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
