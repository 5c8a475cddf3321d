package retention

import (
	"slices"
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/hashicorp/go-version"
)

// entry is a component prepared for grouping, with its derived fields cached
// for the duration of one evaluation call.
type entry struct {
	component    model.Component
	lastModified time.Time
	lastDownload *time.Time
	match        Match
	mavenType    model.MavenType
}

type groupKey struct {
	name      string
	pattern   string
	mavenType model.MavenType
	noMatch   bool
}

type group struct {
	key     groupKey
	policy  Policy
	noMatch bool
	entries []*entry
}

// groupEntries buckets entries by (name, pattern[, maven type]) and sorts each
// bucket newest first. No-match entries never share a bucket with a rule,
// even one whose pattern text is "no-match". With poolNoMatch set, no-match entries share a single
// bucket per maven type regardless of name. Groups keep first-encounter order.
func groupEntries(entries []*entry, poolNoMatch bool) []*group {
	index := make(map[groupKey]*group)
	var groups []*group
	for _, e := range entries {
		key := groupKey{name: e.component.Name, pattern: e.match.Pattern, mavenType: e.mavenType, noMatch: e.match.NoMatch}
		if poolNoMatch && e.match.NoMatch {
			key.name = ""
		}
		g, ok := index[key]
		if !ok {
			g = &group{key: key, policy: e.match.Policy, noMatch: e.match.NoMatch}
			index[key] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, e)
	}
	for _, g := range groups {
		sortNewestFirst(g.entries)
	}
	return groups
}

// sortNewestFirst orders by lastModified descending. Within a run of equal
// timestamps, entries are ordered by version descending when every version in
// the run parses; otherwise the run keeps encounter order.
func sortNewestFirst(entries []*entry) {
	slices.SortStableFunc(entries, func(a, b *entry) int {
		return b.lastModified.Compare(a.lastModified)
	})
	for start := 0; start < len(entries); {
		end := start + 1
		for end < len(entries) && entries[end].lastModified.Equal(entries[start].lastModified) {
			end++
		}
		if end-start > 1 {
			orderTiedByVersion(entries[start:end])
		}
		start = end
	}
}

func orderTiedByVersion(run []*entry) {
	versions := make(map[*entry]*version.Version, len(run))
	for _, e := range run {
		v, err := version.NewVersion(e.component.Version)
		if err != nil {
			return
		}
		versions[e] = v
	}
	slices.SortStableFunc(run, func(a, b *entry) int {
		return versions[b].Compare(versions[a])
	})
}
