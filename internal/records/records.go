// Package records manages the append-only historical fare log: one JSON
// record per line, keyed by timestamp and route, shared with the display
// layer and replayed to bootstrap the scheduler archive.
package records

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Record is one observed fare. Timestamp is "YYYY-MM-DD-HH" (legacy rows may
// carry a bare "YYYY-MM-DD" in Date instead).
type Record struct {
	Timestamp      string  `json:"datetime,omitempty"`
	Date           string  `json:"date,omitempty"`
	Origin         string  `json:"departure"`
	Dest           string  `json:"destination"`
	Company        string  `json:"company"`
	DurationOut    string  `json:"duration_out"`
	DurationReturn string  `json:"duration_return"`
	Price          float64 `json:"price"`
	Depart         string  `json:"dep_date,omitempty"`
	Return         string  `json:"arrival_date,omitempty"`
}

// When returns the record's timestamp, preferring the hourly field.
func (r Record) When() string {
	if r.Timestamp != "" {
		return r.Timestamp
	}
	return r.Date
}

// Log reads and writes the fare record file.
type Log struct {
	path string
}

// NewLog creates a log manager for the given path, creating the file (and
// its directory) if missing so the display layer always finds it.
func NewLog(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "records: create dir %s", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "records: open %s", path)
	}
	f.Close()
	return &Log{path: path}, nil
}

// Path returns the backing file path.
func (l *Log) Path() string { return l.path }

// All returns every parseable record in file order. Malformed lines are
// skipped, not fatal.
func (l *Log) All() ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "records: open %s", l.path)
	}
	defer f.Close()

	var out []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "records: scan log")
	}
	return out, nil
}

// Save upserts the record for its timestamp: an existing record for the same
// timestamp is replaced only when the new price is lower, so the log keeps
// the cheapest fare seen per slot.
func (l *Log) Save(rec Record) error {
	existing, err := l.All()
	if err != nil {
		return err
	}

	kept := make([]Record, 0, len(existing)+1)
	for _, old := range existing {
		if old.When() == rec.When() {
			if old.Price <= rec.Price {
				// Cheaper fare already on file for this slot.
				return nil
			}
			continue
		}
		kept = append(kept, old)
	}
	kept = append(kept, rec)

	return l.rewrite(kept)
}

// Get returns the record for the given timestamp, or nil.
func (l *Log) Get(timestamp string) (*Record, error) {
	all, err := l.All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].When() == timestamp {
			return &all[i], nil
		}
	}
	return nil, nil
}

// GlobalBest returns the lowest price ever recorded, or 0 when the log holds
// nothing usable.
func (l *Log) GlobalBest() (float64, error) {
	all, err := l.All()
	if err != nil {
		return 0, err
	}
	best := 0.0
	for _, rec := range all {
		if rec.Price <= 0 {
			continue
		}
		if best == 0 || rec.Price < best {
			best = rec.Price
		}
	}
	return best, nil
}

// rewrite replaces the log atomically, same temp-and-rename discipline as
// the archive store.
func (l *Log) rewrite(recs []Record) error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "records: create temp")
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return eris.Wrap(err, "records: marshal record")
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "records: flush log")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "records: close temp")
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "records: replace log")
	}

	zap.L().Debug("records: log rewritten", zap.Int("count", len(recs)))
	return nil
}
