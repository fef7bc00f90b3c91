// Package sink persists verified organization records
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"sync"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/logger"
	"verifiedorgs/internal/services/harvest/domain"
)

// CSV appends one row per record to the result dataset.
// Appends are mutually exclusive and each row is flushed and fsynced before return
type CSV struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	path    string
	written int64
	closed  bool
	log     logger.Logger
}

var _ domain.Sink = (*CSV)(nil)

// OpenCSV opens path for append, repairing a torn trailing row and writing the
// header when the file is new or empty
func OpenCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open dataset %s", path)
	}
	s := &CSV{
		f:    f,
		w:    csv.NewWriter(f),
		path: path,
		log:  *logger.Named("sink"),
	}

	size, err := s.repairTail()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if size == 0 {
		if err := s.writeRow(domain.Columns); err != nil {
			_ = f.Close()
			return nil, err
		}
		s.log.Info().Str("path", path).Msg("dataset created with header")
	}
	return s, nil
}

// repairTail truncates bytes after the last newline, left behind by an interrupted write
func (s *CSV) repairTail() (int64, error) {
	st, err := s.f.Stat()
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "stat dataset %s", s.path)
	}
	size := st.Size()
	if size == 0 {
		return 0, nil
	}

	keep, err := lastNewlineEnd(s.f, size)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "scan dataset tail %s", s.path)
	}
	if keep == size {
		return size, nil
	}
	if err := s.f.Truncate(keep); err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "truncate torn row %s", s.path)
	}
	if err := s.f.Sync(); err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "sync dataset %s", s.path)
	}
	s.log.Warn().
		Str("path", s.path).
		Int64("dropped_bytes", size-keep).
		Msg("truncated torn trailing row")
	return keep, nil
}

// lastNewlineEnd returns the offset just past the last '\n', or 0 if there is none
func lastNewlineEnd(r io.ReaderAt, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)
	end := size
	for end > 0 {
		start := max(end-chunk, 0)
		b := buf[:end-start]
		if _, err := r.ReadAt(b, start); err != nil && err != io.EOF {
			return 0, err
		}
		if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// writeRow writes one row and forces it to stable storage; caller holds mu or owns s
func (s *CSV) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "write row %s", s.path)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "flush row %s", s.path)
	}
	if err := s.f.Sync(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "sync row %s", s.path)
	}
	return nil
}

// Append writes rec as one durable row
func (s *CSV) Append(ctx context.Context, rec domain.OrganizationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return perr.IOf("append to closed dataset %s", s.path)
	}
	if err := s.writeRow(rec.Row()); err != nil {
		return err
	}
	s.written++
	return nil
}

// Written is the number of rows appended through this sink
func (s *CSV) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Path is the dataset location
func (s *CSV) Path() string { return s.path }

// Close flushes and releases the file; later calls are no-ops
func (s *CSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.f.Close()
		return perr.Wrapf(err, perr.ErrorCodeIO, "flush dataset %s", s.path)
	}
	if err := s.f.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "close dataset %s", s.path)
	}
	return nil
}
