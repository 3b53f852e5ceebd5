// Package storage provides artifact storage providers backed by the local
// filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
	"github.com/goliatone/go-blog/pkg/storage"
)

var (
	// ErrUnsupportedOperation is returned for operation names the provider does not know.
	ErrUnsupportedOperation = errors.New("storage: unsupported operation")
	// ErrReadOnly is returned for mutating operations on a read-only provider.
	ErrReadOnly = errors.New("storage: provider is read-only")
	// ErrInvalidArguments is returned when an operation receives malformed arguments.
	ErrInvalidArguments = errors.New("storage: invalid arguments")
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// FileSystemAdapter persists generator artifacts under a root directory.
// Relative paths resolve against the root; absolute paths are used as-is.
type FileSystemAdapter struct {
	root     string
	readOnly bool
}

var _ interfaces.StorageProvider = (*FileSystemAdapter)(nil)

// NewFileSystemAdapter returns a provider rooted at cfg.Root. An empty root
// resolves relative paths against the working directory.
func NewFileSystemAdapter(cfg storage.Config) *FileSystemAdapter {
	return &FileSystemAdapter{
		root:     strings.TrimSpace(cfg.Root),
		readOnly: cfg.ReadOnly,
	}
}

// Query supports storage.OpRead which yields a single []byte row with the
// file content, or no rows when the file does not exist.
func (a *FileSystemAdapter) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query != storage.OpRead {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
	target, err := a.pathArg(args)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &fileRows{}, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", target, err)
	}
	return &fileRows{data: [][]byte{data}}, nil
}

// Exec runs storage.OpEnsureDir, storage.OpWrite and storage.OpRemove.
func (a *FileSystemAdapter) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch query {
	case storage.OpEnsureDir, storage.OpWrite, storage.OpRemove:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
	if a.readOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, query)
	}
	target, err := a.pathArg(args)
	if err != nil {
		return nil, err
	}

	switch query {
	case storage.OpEnsureDir:
		if err := os.MkdirAll(target, dirPerm); err != nil {
			return nil, fmt.Errorf("storage: mkdir %s: %w", target, err)
		}
		return result(1), nil
	case storage.OpWrite:
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: write requires a reader", ErrInvalidArguments)
		}
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return nil, fmt.Errorf("%w: write requires a reader, got %T", ErrInvalidArguments, args[1])
		}
		if err := writeAtomic(target, reader); err != nil {
			return nil, err
		}
		return result(1), nil
	default:
		if err := os.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return result(0), nil
			}
			return nil, fmt.Errorf("storage: remove %s: %w", target, err)
		}
		return result(1), nil
	}
}

func (a *FileSystemAdapter) pathArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: path is required", ErrInvalidArguments)
	}
	raw, ok := args[0].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: path must be a non-empty string", ErrInvalidArguments)
	}
	target := filepath.FromSlash(strings.TrimSpace(raw))
	if filepath.IsAbs(target) || a.root == "" {
		return filepath.Clean(target), nil
	}
	return filepath.Join(a.root, target), nil
}

// writeAtomic writes into a temporary sibling and renames it over target so
// readers never observe a partial feed.
func writeAtomic(target string, reader io.Reader) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("storage: create temp for %s: %w", target, err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: close %s: %w", target, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: chmod %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: rename %s: %w", target, err)
	}
	return nil
}

type result int64

func (r result) RowsAffected() (int64, error) { return int64(r), nil }

type fileRows struct {
	data  [][]byte
	index int
}

func (r *fileRows) Next() bool {
	if r.index >= len(r.data) {
		return false
	}
	r.index++
	return true
}

func (r *fileRows) Scan(dest ...any) error {
	if r.index == 0 || r.index > len(r.data) {
		return errors.New("storage: scan without next")
	}
	if len(dest) == 0 {
		return errors.New("storage: missing scan destination")
	}
	value := r.data[r.index-1]
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], value...)
	case *string:
		*target = string(value)
	default:
		return fmt.Errorf("storage: unsupported scan type %T", dest[0])
	}
	return nil
}

func (r *fileRows) Close() error { return nil }
