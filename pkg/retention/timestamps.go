package retention

import (
	"strings"
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999", // no offset, read as UTC
}

// ParseTimestamp parses an ISO-8601 date-time as reported by the repository manager.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ExtractTimestamps derives the effective last-modified and last-download
// instants of a component from its assets. ok is false when no asset carries a
// parseable lastModified. Unparseable values are ignored per asset.
func ExtractTimestamps(assets []model.Asset) (lastModified time.Time, lastDownload *time.Time, ok bool) {
	for _, a := range assets {
		if t, parsed := ParseTimestamp(a.LastModified); parsed {
			if !ok || t.After(lastModified) {
				lastModified = t
			}
			ok = true
		}
		if t, parsed := ParseTimestamp(a.LastDownloaded); parsed {
			if lastDownload == nil || t.After(*lastDownload) {
				d := t
				lastDownload = &d
			}
		}
	}
	return lastModified, lastDownload, ok
}

// elapsedDays counts whole days between then and now; future instants count as 0.
func elapsedDays(now, then time.Time) int {
	d := now.Sub(then)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
