package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// Credentials persists the screen session across restarts.
type Credentials interface {
	// Load returns nil when no session is stored.
	Load() (*model.ScreenSession, error)
	Save(sess model.ScreenSession) error
	Clear() error
}

// CredentialFile keeps the session in a private JSON file.
type CredentialFile struct {
	path string
}

func NewCredentialFile(stateDir string) *CredentialFile {
	return &CredentialFile{path: filepath.Join(stateDir, "session.json")}
}

func (f *CredentialFile) Load() (*model.ScreenSession, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess model.ScreenSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.ScreenID == "" || sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

func (f *CredentialFile) Save(sess model.ScreenSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return writeAtomic(f.path, raw, 0o600)
}

func (f *CredentialFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
