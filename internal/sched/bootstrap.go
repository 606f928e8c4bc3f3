package sched

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// HistoricalRecord is one probe result replayed from the fare record log.
// Timestamp is either "YYYY-MM-DD-HH" or "YYYY-MM-DD".
type HistoricalRecord struct {
	Timestamp string
	Origin    string
	Dest      string
	Depart    string
	Return    string
	Price     float64
}

const tsFormat = "2006-01-02-15"

// normalizeTimestamp pads a bare date with hour 00 so that all watermarks
// compare lexicographically. Returns "" for unparseable input.
func normalizeTimestamp(ts string) string {
	if _, err := time.Parse(tsFormat, ts); err == nil {
		return ts
	}
	if t, err := time.Parse(dayFormat, ts); err == nil {
		return t.Format(dayFormat) + "-00"
	}
	return ""
}

// Bootstrap incrementally replays historical records into the archive in
// chronological order, using each record's calendar day as the observation
// day so discounted forgetting applies across the replayed span. Only
// records strictly newer than the archive's watermark are ingested, and the
// watermark advances to the newest replayed timestamp, so repeated calls
// across restarts are safe and cheap. Returns the number of records
// replayed.
func (a *Archive) Bootstrap(records []HistoricalRecord) int {
	type row struct {
		ts  string
		rec HistoricalRecord
	}

	var rows []row
	for _, rec := range records {
		ts := normalizeTimestamp(rec.Timestamp)
		if ts == "" {
			continue
		}
		if a.LastBootstrapTS != "" && ts <= a.LastBootstrapTS {
			continue
		}
		if rec.Origin == "" || rec.Dest == "" || rec.Depart == "" || rec.Return == "" {
			continue
		}
		if !(rec.Price > 0) {
			continue
		}
		rows = append(rows, row{ts: ts, rec: rec})
	}
	if len(rows) == 0 {
		return 0
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts < rows[j].ts })

	for _, r := range rows {
		day := r.ts[:len(dayFormat)]
		arm := Arm{Origin: r.rec.Origin, Dest: r.rec.Dest, Depart: r.rec.Depart, Return: r.rec.Return}
		a.AddObservation(arm.Key(), r.rec.Price, day)
	}
	a.LastBootstrapTS = rows[len(rows)-1].ts

	zap.L().Info("archive: bootstrap replayed records",
		zap.Int("count", len(rows)),
		zap.String("watermark", a.LastBootstrapTS),
	)
	return len(rows)
}
