// Package checkpoint derives the resume point from the tail of the result dataset
package checkpoint

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"

	perr "verifiedorgs/internal/platform/errors"
	"verifiedorgs/internal/services/harvest/domain"
)

const (
	chunkSize       = 4096
	defaultMaxTail  = 1 << 20
	defaultMaxLines = 64
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Reader finds the id of the last complete row without loading the whole file.
// It reads backward from EOF and tries line boundaries nearest the end first
type Reader struct {
	// MaxLines bounds how many line boundaries are tried before giving up
	MaxLines int
	// MaxTail bounds how many bytes are read from the end of the file
	MaxTail int64
}

var _ domain.CheckpointReader = Reader{}

// Read returns the checkpoint for path using default bounds
func Read(path string) (int64, error) { return Reader{}.Read(path) }

// Read returns the id in the last complete row of path.
// A missing, empty, or header-only file yields 0
func (r Reader) Read(path string) (int64, error) {
	maxLines := r.MaxLines
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	maxTail := r.MaxTail
	if maxTail <= 0 {
		maxTail = defaultMaxTail
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "open dataset %s", path)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeIO, "stat dataset %s", path)
	}
	size := st.Size()
	if size == 0 {
		return 0, nil
	}

	window := min(int64(chunkSize), size)
	for {
		tail := make([]byte, window)
		if _, err := f.ReadAt(tail, size-window); err != nil && !errors.Is(err, io.EOF) {
			return 0, perr.Wrapf(err, perr.ErrorCodeIO, "read dataset tail %s", path)
		}
		atStart := window == size

		id, found, tried := scan(tail, atStart, maxLines)
		if found {
			return id, nil
		}
		if tried >= maxLines || atStart || window >= maxTail {
			if atStart && tried == 0 {
				// a single unterminated line is not a complete row
				return 0, nil
			}
			return 0, perr.Schemaf("no complete row in the last %d lines of %s", tried, path)
		}
		window = min(window*2, size, maxTail)
	}
}

// scan tries each line start in tail, nearest the end first.
// Bytes after the last newline are a torn write and are ignored
func scan(tail []byte, atStart bool, maxLines int) (id int64, found bool, tried int) {
	end := bytes.LastIndexByte(tail, '\n')
	if end < 0 {
		return 0, false, 0
	}
	data := tail[:end+1]

	// candidate starts: just after each newline before the final one, then BOF
	pos := end
	for tried < maxLines {
		prev := bytes.LastIndexByte(data[:pos], '\n')
		start := prev + 1
		if prev < 0 {
			if !atStart {
				return 0, false, tried
			}
			start = 0
		}
		tried++
		if id, ok := parseLast(data[start:], start == 0 && atStart); ok {
			return id, true, tried
		}
		if prev < 0 {
			return 0, false, tried
		}
		pos = prev
	}
	return 0, false, tried
}

// parseLast parses seg as CSV and returns the id of its final record.
// A header as the final record means the dataset has no rows yet
func parseLast(seg []byte, fromBOF bool) (int64, bool) {
	if fromBOF {
		seg = bytes.TrimPrefix(seg, bom)
	}
	cr := csv.NewReader(bytes.NewReader(seg))
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil || len(recs) == 0 {
		return 0, false
	}
	last := recs[len(recs)-1]
	if isHeader(last) {
		return 0, true
	}
	if len(last) <= domain.IDColumn {
		return 0, false
	}
	id, err := strconv.ParseInt(last[domain.IDColumn], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func isHeader(rec []string) bool {
	return len(rec) > domain.IDColumn &&
		rec[0] == domain.Columns[0] &&
		rec[domain.IDColumn] == domain.Columns[domain.IDColumn]
}
