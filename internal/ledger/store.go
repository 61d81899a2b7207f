package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Onnokh/bookr/internal/xdg"
)

// Storage holds the raw ledger document. Read returns nil data and no error
// when nothing has been written yet.
type Storage interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileStorage keeps the document in a single JSON file.
type FileStorage struct {
	Path string
}

// NewFileStorage returns a FileStorage at <data dir>/worklogs.json.
// Path: $XDG_DATA_HOME/bookr/worklogs.json or ~/.local/share/bookr/worklogs.json
func NewFileStorage() (*FileStorage, error) {
	dir, err := xdg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	return &FileStorage{Path: filepath.Join(dir, "worklogs.json")}, nil
}

func (f *FileStorage) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read worklog ledger: %w", err)
	}
	return data, nil
}

// Write replaces the file atomically via a temp file + os.Rename.
func (f *FileStorage) Write(data []byte) (err error) {
	dir := filepath.Dir(f.Path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to persist worklog ledger: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(dir, "worklogs-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist worklog ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist worklog ledger: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist worklog ledger: %w", err)
	}
	if err = os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("failed to persist worklog ledger: %w", err)
	}
	return nil
}

// MemoryStorage keeps the document in memory. ReadErr and WriteErr, when
// set, are returned instead of touching the data.
type MemoryStorage struct {
	mu       sync.Mutex
	data     []byte
	ReadErr  error
	WriteErr error
}

func (m *MemoryStorage) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}
