// Package eventlog is the append-only store of every captured probe request.
package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wifitracker/internal/logger"
	"wifitracker/pkg/models"
)

const maxLineSize = 1 << 20

// Log appends probe requests to a JSON lines file.
type Log struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// Open opens or creates the log at path. A trailing partial line left by an
// interrupted write is terminated so that later appends start on a fresh line.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create event log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	if err := sealTail(f); err != nil {
		f.Close()
		return nil, err
	}

	logger.Infof("Event log opened: %s", path)
	return &Log{path: path, file: f}, nil
}

func sealTail(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat event log: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read event log tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	logger.Warnf("Event log %s ends with a partial record; sealing it", f.Name())
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("seal event log tail: %w", err)
	}
	return nil
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

// Append writes one request as a single line and syncs it to disk.
func (l *Log) Append(req models.ProbeRequest) error {
	line, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode probe request: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.New("event log is closed")
	}
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to append probe request: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event log: %w", err)
	}
	return nil
}

// ReadAllBefore returns the requests captured strictly before t, in append
// order. Each iteration re-reads the file from the start. Malformed and
// oversized lines are logged and skipped; only I/O failures are yielded as
// errors, after which the sequence ends. A missing file is an empty log.
func (l *Log) ReadAllBefore(t time.Time) iter.Seq2[models.ProbeRequest, error] {
	return ReadFileBefore(l.path, t)
}

// ReadFileBefore is ReadAllBefore over an arbitrary log file.
func ReadFileBefore(path string, t time.Time) iter.Seq2[models.ProbeRequest, error] {
	return func(yield func(models.ProbeRequest, error) bool) {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			yield(models.ProbeRequest{}, fmt.Errorf("open event log: %w", err))
			return
		}
		defer f.Close()

		if err := scan(f, path, t, yield); err != nil {
			yield(models.ProbeRequest{}, err)
		}
	}
}

func scan(r io.Reader, path string, t time.Time, yield func(models.ProbeRequest, error) bool) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var buf []byte
	lineNo := 0
	for {
		line, tooLong, err := readLine(br, buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read event log: %w", err)
		}
		buf = line[:0]
		if err == nil || tooLong || len(line) > 0 {
			lineNo++
		}

		switch {
		case tooLong:
			logger.Warnf("Skipping oversized event log record %s:%d (over %d bytes)", path, lineNo, maxLineSize)
		case len(bytes.TrimSpace(line)) > 0:
			var req models.ProbeRequest
			if uerr := json.Unmarshal(line, &req); uerr != nil {
				logger.Warnf("Skipping malformed event log record %s:%d: %v", path, lineNo, uerr)
			} else if req.CaptureTime.Before(t) && !yield(req, nil) {
				return nil
			}
		}

		if err != nil {
			return nil
		}
	}
}

// readLine returns the next line without its terminator, reusing buf. A line
// longer than maxLineSize is consumed up to its newline and reported with
// tooLong set. At end of file err is io.EOF and line holds any unterminated
// remainder.
func readLine(br *bufio.Reader, buf []byte) (line []byte, tooLong bool, err error) {
	buf = buf[:0]
	for {
		chunk, rerr := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize+1 {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimRight(buf, "\r\n"), tooLong, rerr
	}
}

// Close closes the log file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
