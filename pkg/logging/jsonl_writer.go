package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fonline/fodev/internal/errx"
)

// Stdout names the standard output as an event log destination.
const Stdout = "-"

// JSONLWriter writes events one JSON object per line, either appending to a
// file or streaming to a writer it does not own.
type JSONLWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	flush  func() error
}

// NewJSONLWriter opens path for appending, creating the file and its parent
// directory when needed. Stdout streams to os.Stdout instead.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if path == Stdout {
		return NewStreamWriter(os.Stdout), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errx.Wrap(ErrCreateLogFile, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errx.Wrap(ErrCreateLogFile, err)
	}
	return &JSONLWriter{enc: json.NewEncoder(f), closer: f, flush: f.Sync}, nil
}

// NewStreamWriter writes to w. Closing the writer leaves w open.
func NewStreamWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{enc: json.NewEncoder(w)}
}

func (w *JSONLWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return errx.With(ErrWriteEvent, ": writer closed")
	}
	if err := w.enc.Encode(event); err != nil {
		return errx.Wrap(ErrWriteEvent, err)
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enc = nil
	if w.closer == nil {
		return nil
	}
	_ = w.flush()
	err := w.closer.Close()
	w.closer = nil
	if err != nil {
		return errx.Wrap(ErrCloseWriter, err)
	}
	return nil
}
