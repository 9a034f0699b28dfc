package relapse

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

// ParseReleaseTime parses an ISO-8601 style date time. Values without an
// offset are read as UTC; values with one are converted to UTC.
func ParseReleaseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse release time: %w: empty value", ErrInvalidInput)
	}

	if t, ok := parseBasicISO(s); ok {
		return t, nil
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

// basicISOLayouts are ISO-8601 basic (separator free) forms such as
// 20990101T000000, which dateparse does not recognise.
var basicISOLayouts = []string{
	"20060102T150405.999999999Z07:00",
	"20060102T150405.999999999Z0700",
	"20060102T150405.999999999",
	"20060102T1504Z07:00",
	"20060102T1504Z0700",
	"20060102T1504",
}

func parseBasicISO(s string) (time.Time, bool) {
	for _, layout := range basicISOLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FileExtension returns the extension of the last path segment of filename,
// including the dot. Leading dots of the segment never start an extension,
// so ".bashrc" has none.
func FileExtension(filename string) string {
	base := filename[strings.LastIndex(filename, "/")+1:]

	dot := strings.LastIndex(base, ".")
	if dot <= 0 {
		return ""
	}

	if strings.TrimLeft(base[:dot], ".") == "" {
		return ""
	}

	return base[dot:]
}

// BuildStorageKey returns a fresh key of the form photos/<user>/<uuid><ext>.
func BuildStorageKey(userID, filename string) string {
	return "photos/" + userID + "/" + uuid.NewString() + FileExtension(filename)
}

// FormatTimestamp renders t in UTC without an offset, adding microseconds
// only when they are non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	s := t.Format("2006-01-02T15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}
