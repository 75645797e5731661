// Package rotate provides a size-bounded log file writer that rolls the
// current file into numbered backups.
//
// With path "app.log" and three backups the files on disk are app.log,
// app.log.1 (newest backup), app.log.2 and app.log.3 (oldest). When
// compression is on, backups carry a ".gz" suffix.
package rotate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/filechanger/filechanger/pkg/fsutil"
)

const (
	DefaultMaxSize    = 1 << 20
	DefaultMaxBackups = 5
)

// Options controls rotation.
type Options struct {
	// MaxSize is the byte size a write may not push the file past.
	// Zero or less disables rotation.
	MaxSize int64
	// MaxBackups bounds the number of numbered backups kept. Zero truncates
	// the file on rotation instead of keeping a backup.
	MaxBackups int
	// Compress gzips backups.
	Compress bool
}

// Writer is an io.WriteCloser appending to a file that rotates by size.
// It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	path string
	opts Options
	file *os.File
	size int64
}

// Open opens path for appending, creating it and its parent directory if
// needed.
func Open(path string, opts Options) (*Writer, error) {
	if opts.MaxBackups < 0 {
		return nil, fmt.Errorf("rotate: negative backup count %d", opts.MaxBackups)
	}
	w := &Writer{path: path, opts: opts}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) open() error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("rotate: create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("rotate: open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("rotate: stat: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Path returns the active file path.
func (w *Writer) Path() string {
	return w.path
}

// Write appends p, rotating first when p would take the file past MaxSize.
// A write larger than MaxSize goes whole into a fresh file. If rotation
// fails, p is still appended to the active file and the rotation error is
// returned.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	var rerr error
	if w.opts.MaxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.opts.MaxSize {
		if rerr = w.rotate(); rerr != nil && w.file == nil {
			return 0, rerr
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	if err == nil {
		err = rerr
	}
	return n, err
}

// Close closes the active file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// rotate rolls the active file into the backups and reopens it. When
// rolling fails the active file is reopened anyway so later writes keep
// appending to it.
func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("rotate: close: %w", err)
	}
	w.file = nil

	if err := w.roll(); err != nil {
		if oerr := w.open(); oerr != nil {
			return errors.Join(err, oerr)
		}
		return err
	}
	return w.open()
}

func (w *Writer) roll() error {
	if w.opts.MaxBackups == 0 {
		if err := os.Truncate(w.path, 0); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rotate: truncate: %w", err)
		}
		return nil
	}

	for _, name := range backupVariants(w.path, w.opts.MaxBackups) {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("rotate: remove oldest: %w", err)
		}
	}
	for i := w.opts.MaxBackups - 1; i >= 1; i-- {
		for _, name := range backupVariants(w.path, i) {
			next := backupName(w.path, i+1, filepath.Ext(name) == ".gz")
			if err := os.Rename(name, next); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("rotate: shift backup: %w", err)
			}
		}
	}

	if w.opts.Compress {
		if err := compressFile(w.path, backupName(w.path, 1, true)); err != nil {
			return err
		}
		if err := os.Remove(w.path); err != nil {
			return fmt.Errorf("rotate: remove compressed source: %w", err)
		}
	} else if err := os.Rename(w.path, backupName(w.path, 1, false)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate: roll current: %w", err)
	}

	if err := fsutil.FsyncDir(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("rotate: %w", err)
	}
	return nil
}

func compressFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("rotate: open for compress: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("rotate: create backup: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("rotate: close backup: %w", cerr)
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err := io.Copy(zw, in); err != nil {
		return fmt.Errorf("rotate: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("rotate: compress: %w", err)
	}
	return out.Sync()
}

func backupName(path string, n int, compressed bool) string {
	name := path + "." + strconv.Itoa(n)
	if compressed {
		name += ".gz"
	}
	return name
}

func backupVariants(path string, n int) []string {
	return []string{backupName(path, n, false), backupName(path, n, true)}
}

// Backups returns the existing backups of path, newest first.
func Backups(path string, maxBackups int) []string {
	var out []string
	for i := 1; i <= maxBackups; i++ {
		for _, name := range backupVariants(path, i) {
			if _, err := os.Stat(name); err == nil {
				out = append(out, name)
			}
		}
	}
	return out
}

// IsBackupOf reports whether name is path itself or one of its numbered
// backups within maxBackups.
func IsBackupOf(path, name string, maxBackups int) bool {
	path, name = filepath.Clean(path), filepath.Clean(name)
	if name == path {
		return true
	}
	for i := 1; i <= maxBackups; i++ {
		for _, b := range backupVariants(path, i) {
			if name == b {
				return true
			}
		}
	}
	return false
}

// OpenBackup opens a log file or backup for reading, decompressing ".gz"
// backups transparently.
func OpenBackup(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(name) != ".gz" {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rotate: open gzip %s: %w", name, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.f.Close())
}
