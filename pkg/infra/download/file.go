package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// maxRenameAttempts bounds the "name (n).ext" search
const maxRenameAttempts = 1000

// Directory saves downloaded artifacts into a local directory
type Directory struct {
	dir       string
	overwrite bool
}

// Option is a functional option for Directory
type Option func(*Directory)

// WithOverwrite replaces an existing file instead of picking "name (n).ext"
func WithOverwrite() Option {
	return func(d *Directory) {
		d.overwrite = true
	}
}

// NewDirectory creates a sink writing to dir
func NewDirectory(dir string, opts ...Option) *Directory {
	d := &Directory{dir: dir}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Save writes data as name inside the directory and returns the written path.
// Only the base of name is used. An existing file is kept and the new one is
// saved as "name (1).ext", "name (2).ext" and so on, unless WithOverwrite is set.
func (d *Directory) Save(ctx context.Context, name string, data []byte) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", goerr.New("invalid download filename", goerr.V("name", name))
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create output directory", goerr.V("dir", d.dir))
	}

	if d.overwrite {
		path := filepath.Join(d.dir, base)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", goerr.Wrap(err, "failed to write download", goerr.V("path", path))
		}
		return path, nil
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 0; i < maxRenameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(d.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to create download file", goerr.V("path", path))
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", goerr.Wrap(err, "failed to write download", goerr.V("path", path))
		}
		if err := f.Close(); err != nil {
			return "", goerr.Wrap(err, "failed to close download", goerr.V("path", path))
		}

		if candidate != base {
			ctxlog.From(ctx).Debug("Download renamed to avoid overwrite",
				"requested", base,
				"saved_as", candidate,
			)
		}
		return path, nil
	}

	return "", goerr.New("no free filename for download", goerr.V("name", base), goerr.V("dir", d.dir))
}
