// Package seed reads the organization seed list as a serialized forward-only cursor
package seed

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/platform/logger"
	"verifiedorgs/internal/services/harvest/domain"
)

// Seed file layout: header row, then handle in column 0 and numeric id in column 1
const (
	handleColumn = 0
	idColumn     = 1
)

// Stats counts what the cursor has done so far
type Stats struct {
	Dispensed int64 `json:"dispensed"`
	Skipped   int64 `json:"skipped"`
	Malformed int64 `json:"malformed"`
}

// Cursor dispenses candidates whose id is above the checkpoint, in file order.
// Next is mutex-serialized so concurrent workers get disjoint candidates
type Cursor struct {
	mu         sync.Mutex
	f          *os.File
	r          *csv.Reader
	checkpoint int64
	pending    *domain.Candidate
	done       bool
	stats      Stats
	log        logger.Logger
}

var _ domain.Cursor = (*Cursor)(nil)

// Open opens path and positions the cursor on the first candidate with id > checkpoint
func Open(path string, checkpoint int64) (*Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open seed %s", path)
	}

	br := bufio.NewReader(f)
	if first3, _ := br.Peek(3); len(first3) == 3 && first3[0] == 0xEF && first3[1] == 0xBB && first3[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	c := &Cursor{
		f:          f,
		r:          r,
		checkpoint: checkpoint,
		log:        *logger.Named("seed"),
	}

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			c.finish()
			return c, nil
		}
		_ = f.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "read seed header %s", path)
	}

	first, ok, err := c.read()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if ok {
		c.pending = &first
	}
	c.log.Info().
		Int64("checkpoint", checkpoint).
		Int64("skipped", c.stats.Skipped).
		Int64("first_id", first.ID).
		Str("first_handle", first.Handle).
		Bool("exhausted", !ok).
		Msg("seed cursor positioned")
	return c, nil
}

// Next returns the next candidate, or ok=false once the seed is exhausted.
// An I/O error is returned as-is and leaves the cursor where it was
func (c *Cursor) Next() (domain.Candidate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		cand := *c.pending
		c.pending = nil
		c.stats.Dispensed++
		return cand, true, nil
	}
	cand, ok, err := c.read()
	if err != nil || !ok {
		return domain.Candidate{}, false, err
	}
	c.stats.Dispensed++
	return cand, true, nil
}

// read pulls rows until one qualifies; caller holds mu or owns c exclusively
func (c *Cursor) read() (domain.Candidate, bool, error) {
	for !c.done {
		row, err := c.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.finish()
				return domain.Candidate{}, false, nil
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				c.stats.Malformed++
				c.log.Warn().Err(err).Int("line", pe.Line).Msg("skipping malformed seed row")
				continue
			}
			return domain.Candidate{}, false, perr.Wrap(err, perr.ErrorCodeIO, "read seed row")
		}

		cand, ok := parse(row)
		if !ok {
			line, _ := c.r.FieldPos(0)
			c.stats.Malformed++
			c.log.Warn().Int("line", line).Strs("row", row).Msg("skipping malformed seed row")
			continue
		}
		if cand.ID <= c.checkpoint {
			c.stats.Skipped++
			continue
		}
		return cand, true, nil
	}
	return domain.Candidate{}, false, nil
}

func parse(row []string) (domain.Candidate, bool) {
	if len(row) <= idColumn {
		return domain.Candidate{}, false
	}
	handle := strings.TrimSpace(row[handleColumn])
	id, err := strconv.ParseInt(strings.TrimSpace(row[idColumn]), 10, 64)
	if handle == "" || err != nil {
		return domain.Candidate{}, false
	}
	return domain.Candidate{ID: id, Handle: handle}, true
}

// finish marks the cursor exhausted and releases the file
func (c *Cursor) finish() {
	if c.done {
		return
	}
	c.done = true
	if err := c.f.Close(); err != nil {
		c.log.Warn().Err(err).Msg("close seed failed")
	}
}

// Stats returns a copy of the counters
func (c *Cursor) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close releases the seed file; safe to call after exhaustion
func (c *Cursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finish()
	return nil
}
