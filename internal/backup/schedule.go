package backup

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/thespacelab/expenseledger/internal/models"
)

// nextScheduled computes the first occurrence of the configured time of day
// that is at least one cadence interval after the last backup. The caller
// compares it against now: the backup is due iff that instant has passed.
//
// last is epoch zero when no backup has ever run, which makes the first
// scheduled backup due immediately.
func nextScheduled(last time.Time, freq models.BackupFrequency, backupTime string) time.Time {
	var earliest time.Time
	switch freq {
	case models.FrequencyWeekly:
		earliest = last.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		earliest = addMonthClamped(last)
	default: // daily
		earliest = last.AddDate(0, 0, 1)
	}

	hour, minute := parseBackupTime(backupTime)
	next := time.Date(earliest.Year(), earliest.Month(), earliest.Day(),
		hour, minute, 0, 0, earliest.Location())
	if next.Before(earliest) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// addMonthClamped advances t by one calendar month, clamping the day to the
// target month's length (Jan 31 -> Feb 28). time.AddDate would normalize
// the overflow into March instead.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month+1, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// parseBackupTime parses "HH:mm". A malformed value falls back to the
// default backup time rather than failing the due computation.
func parseBackupTime(s string) (hour, minute int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 2 {
		h, errH := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		if errH == nil && errM == nil && h >= 0 && h < 24 && m >= 0 && m < 60 {
			return h, m
		}
	}
	slog.Warn("invalid backup time, using default", "value", s)
	return 9, 0
}
