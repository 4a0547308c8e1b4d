package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lucky89144/DataHawk/internal/model"
)

// Sink receives findings. Implementations must be safe for concurrent use.
type Sink interface {
	// Write persists one finding.
	Write(f model.Finding) error
	// Close flushes and releases resources.
	Close() error
}

// FilePrefix is the prefix of every results file name.
const FilePrefix = "datahawk_results_"

// WriteError reports a failure to persist a finding.
type WriteError struct {
	// Path is the file (or store) the write was aimed at.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// ErrClosed is wrapped in a WriteError when writing to a closed sink.
var ErrClosed = errors.New("sink is closed")

// FileName returns the results file name for a seed URL:
// datahawk_results_<host>.<ext>, with dots (and a port colon) in the host
// replaced by underscores.
func FileName(seedURL string, format Format) (string, error) {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse seed URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("seed URL %q has no host", seedURL)
	}
	host := strings.NewReplacer(".", "_", ":", "_").Replace(strings.ToLower(u.Host))
	return FilePrefix + host + "." + format.Extension(), nil
}

// FileSink appends encoded findings to one file.
type FileSink struct {
	mu     sync.Mutex
	path   string
	format Format
	file   *os.File
	count  int64
}

// OpenFile opens (creating if needed) path for appending in format.
// Appending lets a resumed crawl continue the same file.
func OpenFile(path string, format Format) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &FileSink{path: path, format: format, file: file}, nil
}

// Write implements Sink. The record is encoded before the lock is taken.
func (s *FileSink) Write(f model.Finding) error {
	record, err := s.format.Encode(f)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return &WriteError{Path: s.path, Err: ErrClosed}
	}
	if _, err := s.file.Write(record); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	s.count++
	return nil
}

// Close implements Sink. It is safe to call more than once.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Path returns the file path.
func (s *FileSink) Path() string {
	return s.path
}

// Count returns how many findings were written by this sink.
func (s *FileSink) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// OpenSeedFile opens the single results file of a crawl in dir. The name
// comes from the first seed's host; findings from every other seed and
// host go to the same file.
func OpenSeedFile(dir string, format Format, seeds []string) (*FileSink, error) {
	if len(seeds) == 0 {
		return nil, errors.New("no seed URLs")
	}
	name, err := FileName(seeds[0], format)
	if err != nil {
		return nil, err
	}
	return OpenFile(filepath.Join(dir, name), format)
}

// Tee writes to a primary sink and mirrors to secondaries.
// Only primary failures are returned; secondary failures are logged.
type Tee struct {
	primary     Sink
	secondaries []Sink
	logger      *slog.Logger
}

// NewTee creates a Tee. A nil logger uses slog.Default().
func NewTee(logger *slog.Logger, primary Sink, secondaries ...Sink) *Tee {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tee{primary: primary, secondaries: secondaries, logger: logger}
}

// Write implements Sink.
func (t *Tee) Write(f model.Finding) error {
	if err := t.primary.Write(f); err != nil {
		return err
	}
	for _, s := range t.secondaries {
		if err := s.Write(f); err != nil {
			t.logger.Warn("failed to mirror finding", "error", err)
		}
	}
	return nil
}

// Close closes all sinks and joins their errors.
func (t *Tee) Close() error {
	errs := []error{t.primary.Close()}
	for _, s := range t.secondaries {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
