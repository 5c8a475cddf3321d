package retention

import (
	"fmt"
	"strings"
	"time"
)

// Reasons attached to verdicts.
const (
	ReasonRetention       = "within retention window"
	ReasonDownloaded      = "recently downloaded"
	ReasonNoFallback      = "no fallback rule configured — kept by default"
	ReasonLatest          = "latest is never deleted"
	ReasonNeverDownloaded = "never downloaded"
	ReasonNoProtection    = "no protection configured"
)

// decide applies reserved-slot, retention-window and recent-download
// protection in that order to the entry at position pos of g.
func decide(g *group, pos int, e *entry, now time.Time) (keep bool, reason string) {
	p := g.policy
	if g.noMatch && p.IsEmpty() {
		return true, ReasonNoFallback
	}

	if p.Reserved != nil && pos < *p.Reserved {
		return true, fmt.Sprintf("reserved (position %d/%d)", pos+1, *p.Reserved)
	}

	age := elapsedDays(now, e.lastModified)
	if p.RetentionDays != nil && age <= *p.RetentionDays {
		return true, ReasonRetention
	}

	var sinceDownload int
	if e.lastDownload != nil {
		sinceDownload = elapsedDays(now, *e.lastDownload)
		if p.MinDaysSinceLastDownload != nil && sinceDownload <= *p.MinDaysSinceLastDownload {
			return true, ReasonDownloaded
		}
	}

	var exceeded []string
	if p.Reserved != nil {
		exceeded = append(exceeded, fmt.Sprintf("not in reserved range (position %d/%d)", pos+1, *p.Reserved))
	}
	if p.RetentionDays != nil {
		exceeded = append(exceeded, fmt.Sprintf("age %dd exceeds retention %dd", age, *p.RetentionDays))
	}
	if p.MinDaysSinceLastDownload != nil {
		if e.lastDownload == nil {
			exceeded = append(exceeded, ReasonNeverDownloaded)
		} else {
			exceeded = append(exceeded, fmt.Sprintf("last downloaded %dd ago exceeds minimum %dd",
				sinceDownload, *p.MinDaysSinceLastDownload))
		}
	}
	if len(exceeded) == 0 {
		return false, ReasonNoProtection
	}
	return false, strings.Join(exceeded, "; ")
}
