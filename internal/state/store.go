package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	infraerrors "github.com/hayan-web/health-auto-blog-sub000/infrastructure/errors"
)

const filePerm = 0o644

// Load reads the document at path. A missing file yields New(); a file whose
// top level is not a JSON object is an error.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, infraerrors.WrapWithContextf(err, "read state %s", path)
	}

	var d Document
	if err = json.Unmarshal(b, &d); err != nil {
		return nil, infraerrors.WrapWithContextf(err, "decode state %s", path)
	}
	return &d, nil
}

// Save writes d to path atomically: the bytes go to a temporary file in the
// same directory, which is synced and then renamed over path.
func Save(path string, d *Document) (err error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return infraerrors.WrapWithContext(err, "encode state")
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return infraerrors.WrapWithContextf(err, "create state dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return infraerrors.WrapWithContext(err, "create temp state file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return infraerrors.WrapWithContext(err, "write temp state file")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return infraerrors.WrapWithContext(err, "sync temp state file")
	}
	if err = tmp.Close(); err != nil {
		return infraerrors.WrapWithContext(err, "close temp state file")
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return infraerrors.WrapWithContext(err, "chmod temp state file")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state %s: %w", path, err)
	}
	return nil
}
