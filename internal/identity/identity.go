// Package identity persists the anonymous user id that scopes history on
// the service.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wordsmith/internal/logging"
)

// Load returns the id stored at path, creating one when the file is missing
// or holds something that is not a UUID.
func Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		id := strings.TrimSpace(string(raw))
		if _, perr := uuid.Parse(id); perr == nil {
			return id, nil
		}
		logging.L().Warn("identity: stored id is not a uuid, regenerating", "path", path)
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read identity: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	logging.L().Info("identity: generated user id", "path", path)
	return id, nil
}
