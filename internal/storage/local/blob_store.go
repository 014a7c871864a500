// Package local publishes rendered documents to the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/JakeFAU/lunchmenu/internal/menu"
)

const (
	// The display process may run as a different user, so the output is left open to everyone.
	dirMode  os.FileMode = 0o777
	fileMode os.FileMode = 0o666
)

// Publisher replaces a single document on disk. The new bytes are staged in a temp
// file next to the destination and renamed over it, so readers see either the
// previous document or the complete new one, and a failed write leaves the previous
// document in place. Only when the directory refuses a temp file is the document
// written over the destination directly.
type Publisher struct {
	fs     afero.Fs
	logger *zap.Logger
}

// New creates a Publisher over fsys. A nil fsys uses the operating system filesystem.
func New(fsys afero.Fs, logger *zap.Logger) *Publisher {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{fs: fsys, logger: logger}
}

// prepare makes sure the parent directory of path exists and is writable.
// Failures are logged; the write that follows reports the real error.
func (p *Publisher) prepare(path string) {
	dir := filepath.Dir(path)
	if err := p.fs.MkdirAll(dir, dirMode); err != nil {
		p.logger.Warn("could not create output directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	// #nosec G302 -- the output directory is shared with the display process.
	if err := p.fs.Chmod(dir, dirMode); err != nil {
		p.logger.Debug("could not relax output directory permissions", zap.String("dir", dir), zap.Error(err))
	}
}

// Publish writes document to path and verifies the result is a non-empty file.
func (p *Publisher) Publish(_ context.Context, path string, document []byte) (menu.PublishResult, error) {
	if strings.TrimSpace(path) == "" {
		return menu.PublishResult{}, &menu.PublishError{Path: path, Op: "validate", Err: errors.New("path is required")}
	}
	p.prepare(path)

	usedFallback := false
	tmpName, err := p.stage(path, document)
	switch {
	case err == nil:
		if err := p.replace(tmpName, path); err != nil {
			return menu.PublishResult{}, err
		}
	case errors.Is(err, fs.ErrPermission):
		p.logger.Warn("cannot stage temp file, writing document directly", zap.String("path", path), zap.Error(err))
		if err := p.writeDirect(path, document); err != nil {
			return menu.PublishResult{}, err
		}
		usedFallback = true
	default:
		return menu.PublishResult{}, err
	}

	// #nosec G302 -- the document must be readable by the display process.
	if err := p.fs.Chmod(path, fileMode); err != nil {
		p.logger.Debug("could not relax document permissions", zap.String("path", path), zap.Error(err))
	}

	size, err := p.verify(path)
	if err != nil {
		return menu.PublishResult{}, err
	}
	return menu.PublishResult{
		URI:          fmt.Sprintf("file://%s", path),
		Size:         size,
		UsedFallback: usedFallback,
	}, nil
}

// stage writes document to a temp file in the destination directory and returns its name.
func (p *Publisher) stage(path string, document []byte) (string, error) {
	tmp, err := afero.TempFile(p.fs, filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", &menu.PublishError{Path: path, Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(document); err != nil {
		_ = tmp.Close()
		_ = p.fs.Remove(tmpName)
		return "", &menu.PublishError{Path: path, Op: "write temp", Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = p.fs.Remove(tmpName)
		return "", &menu.PublishError{Path: path, Op: "close temp", Err: err}
	}
	return tmpName, nil
}

// replace renames tmpName over path. Filesystems that refuse to rename over an
// existing file get one more try after the stale document is removed.
func (p *Publisher) replace(tmpName, path string) error {
	// #nosec G302 -- a stale document may be owned with narrower permissions.
	_ = p.fs.Chmod(path, fileMode)
	err := p.fs.Rename(tmpName, path)
	if err == nil {
		return nil
	}
	p.logger.Debug("rename over existing document failed, removing it first", zap.String("path", path), zap.Error(err))
	p.removeExisting(path)
	if err := p.fs.Rename(tmpName, path); err != nil {
		_ = p.fs.Remove(tmpName)
		return &menu.PublishError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

func (p *Publisher) removeExisting(path string) {
	if _, err := p.fs.Stat(path); err != nil {
		return
	}
	if err := p.fs.Remove(path); err != nil {
		p.logger.Warn("could not remove existing document", zap.String("path", path), zap.Error(err))
		return
	}
	p.logger.Debug("removed existing document", zap.String("path", path))
}

// writeDirect overwrites path in place. It is only used when no temp file can be staged.
func (p *Publisher) writeDirect(path string, document []byte) error {
	// #nosec G302 -- a stale document may be owned with narrower permissions.
	_ = p.fs.Chmod(path, fileMode)
	if err := afero.WriteFile(p.fs, path, document, fileMode); err != nil {
		return &menu.PublishError{Path: path, Op: "write", Err: err}
	}
	return nil
}

func (p *Publisher) verify(path string) (int64, error) {
	info, err := p.fs.Stat(path)
	if err != nil {
		return 0, &menu.PublishError{Path: path, Op: "verify", Err: fmt.Errorf("document was not created: %w", err)}
	}
	if info.Size() == 0 {
		return 0, &menu.PublishError{Path: path, Op: "verify", Err: errors.New("document is empty (0 bytes)")}
	}
	return info.Size(), nil
}
