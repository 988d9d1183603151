// Package transpose implements the Panel Transposer (C4): converting
// per-security exposure series into per-date cross sections, streaming so
// memory stays O(securities × factors) rather than O(securities × dates ×
// factors).
package transpose

import (
	"sort"
	"time"

	"github.com/aristath/barramodel/internal/factors"
)

// CrossSection is one TradingDay's worth of exposures, one row per
// security.
type CrossSection struct {
	Date time.Time
	Rows []factors.Exposure
}

// cursor walks one security's exposure series (already sorted ascending
// by date by the Exposure Builder) one row at a time.
type cursor struct {
	series []factors.Exposure
	pos    int
}

func (c *cursor) done() bool { return c.pos >= len(c.series) }

func (c *cursor) date() time.Time { return c.series[c.pos].Date }

// Stream performs a k-way merge of every security's exposure series by
// date and calls emit once per TradingDay present in at least one series,
// ascending. Only one CrossSection is ever live at a time — the caller
// is expected to publish and discard it before Stream produces the
// next — so memory stays O(securities × factors): a cursor per security
// plus the current date's rows, never the full by-date fan-out held at
// once. Stream stops and returns emit's error the first time it fails.
func Stream(bySecurity map[string][]factors.Exposure, emit func(CrossSection) error) error {
	cursors := make([]*cursor, 0, len(bySecurity))
	for _, series := range bySecurity {
		if len(series) == 0 {
			continue
		}
		cursors = append(cursors, &cursor{series: series})
	}

	for {
		next, ok := earliestDate(cursors)
		if !ok {
			return nil
		}

		var rows []factors.Exposure
		for _, c := range cursors {
			if !c.done() && c.date().Equal(next) {
				rows = append(rows, c.series[c.pos])
				c.pos++
			}
		}
		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Security < rows[j].Security })

		if err := emit(CrossSection{Date: next, Rows: rows}); err != nil {
			return err
		}
	}
}

func earliestDate(cursors []*cursor) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, c := range cursors {
		if c.done() {
			continue
		}
		if !found || c.date().Before(earliest) {
			earliest = c.date()
			found = true
		}
	}
	return earliest, found
}
