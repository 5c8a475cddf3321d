package retention

import (
	"fmt"
	"testing"
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_DevScenario(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{
		Pattern: "^dev-",
		Policy:  Policy{RetentionDays: Days(7), Reserved: Days(1), MinDaysSinceLastDownload: Days(3)},
	}}}
	components := []model.Component{
		component("pkg", "dev-1", 10, 5),
		component("pkg", "dev-2", 1, 0),
	}

	res, err := newTestEvaluator().Evaluate(components, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"dev-1"}, versions(res.Deleted))
	assert.Equal(t, []string{"dev-2"}, versions(res.Kept))

	kept := res.Kept[0]
	assert.Equal(t, "reserved (position 1/1)", kept.Reason)
	assert.Equal(t, "^dev-", kept.MatchedPattern)
	assert.Equal(t, 0, kept.Position)
	assert.Equal(t, 2, kept.GroupSize)

	del := res.Deleted[0]
	assert.True(t, del.WillDelete)
	assert.Equal(t, 1, del.Position)
	assert.Equal(t,
		"not in reserved range (position 2/1); age 10d exceeds retention 7d; last downloaded 5d ago exceeds minimum 3d",
		del.Reason)
}

func TestEvaluate_RawScenario(t *testing.T) {
	assets := []model.Asset{
		{ID: "f1", Path: "a/b/file1.zip", LastModified: "2024-01-01T00:00:00Z"},
		{ID: "f2", Path: "a/b/file2.zip", LastModified: "2024-02-01T00:00:00Z"},
	}
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(1)}}}}

	res, err := newTestEvaluator().Evaluate(SynthesizeRawComponents("raw", assets), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"file1.zip"}, versions(res.Deleted))
	assert.Equal(t, []string{"file2.zip"}, versions(res.Kept))
	assert.Equal(t, "a/b", res.Deleted[0].Component.Name)
	assert.Equal(t, "not in reserved range (position 2/1)", res.Deleted[0].Reason)
}

func TestEvaluate_PriorityOrder(t *testing.T) {
	policy := Policy{RetentionDays: Days(7), Reserved: Days(1), MinDaysSinceLastDownload: Days(3)}
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: policy}}}

	components := []model.Component{
		component("app", "v4", 100, -1),
		component("app", "v1", 1, -1),
		component("app", "v2", 5, -1),
		component("app", "v3", 30, 2),
	}

	res, err := newTestEvaluator().Evaluate(components, cfg)
	require.NoError(t, err)

	tests := map[string]struct {
		del    bool
		reason string
	}{
		"v1": {false, "reserved (position 1/1)"},
		"v2": {false, ReasonRetention},
		"v3": {false, ReasonDownloaded},
		"v4": {true, "not in reserved range (position 4/1); age 100d exceeds retention 7d; never downloaded"},
	}
	for ver, want := range tests {
		v, ok := byVersion(res, ver)
		require.True(t, ok, ver)
		assert.Equal(t, want.del, v.WillDelete, ver)
		assert.Equal(t, want.reason, v.Reason, ver)
	}
}

func TestEvaluate_RetentionBoundary(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{RetentionDays: Days(7)}}}}
	res, err := newTestEvaluator().Evaluate([]model.Component{
		component("lib", "at-boundary", 7, -1),
		component("lib", "past-boundary", 8, -1),
	}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"at-boundary"}, versions(res.Kept))
	assert.Equal(t, []string{"past-boundary"}, versions(res.Deleted))
	assert.Equal(t, "age 8d exceeds retention 7d", res.Deleted[0].Reason)
}

func TestEvaluate_DownloadBoundary(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{MinDaysSinceLastDownload: Days(3)}}}}
	res, err := newTestEvaluator().Evaluate([]model.Component{
		component("lib", "at-boundary", 50, 3),
		component("lib", "past-boundary", 50, 4),
		component("lib", "never", 50, -1),
	}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"at-boundary"}, versions(res.Kept))
	assert.ElementsMatch(t, []string{"past-boundary", "never"}, versions(res.Deleted))

	v, _ := byVersion(res, "never")
	assert.Equal(t, ReasonNeverDownloaded, v.Reason)
	v, _ = byVersion(res, "past-boundary")
	assert.Equal(t, "last downloaded 4d ago exceeds minimum 3d", v.Reason)
}

func TestEvaluate_ReservedMonotonicity(t *testing.T) {
	for size := 0; size <= 6; size++ {
		for n := 0; n <= 7; n++ {
			t.Run(fmt.Sprintf("size=%d/reserved=%d", size, n), func(t *testing.T) {
				var components []model.Component
				for i := 0; i < size; i++ {
					// older versions are listed first to make sure sorting, not input order, decides
					components = append(components, component("grp", fmt.Sprintf("b%d", i), 100+size-i, -1))
				}
				cfg := RuleConfig{Rules: []Rule{{
					Pattern: ".*",
					Policy:  Policy{Reserved: Days(n), RetentionDays: Days(1), MinDaysSinceLastDownload: Days(1)},
				}}}

				res, err := newTestEvaluator().Evaluate(components, cfg)
				require.NoError(t, err)

				want := min(n, size)
				assert.Len(t, res.Kept, want)
				assert.Len(t, res.Deleted, size-want)
				for _, v := range res.Kept {
					assert.Less(t, v.Position, n)
				}
				kept := versions(res.Kept)
				for i := 0; i < want; i++ {
					assert.Contains(t, kept, fmt.Sprintf("b%d", size-1-i))
				}
			})
		}
	}
}

func TestEvaluate_GroupsByNameAndPattern(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{
		{Pattern: "^dev-", Policy: Policy{Reserved: Days(1)}},
		{Pattern: "^rel-", Policy: Policy{Reserved: Days(1)}},
	}}
	res, err := newTestEvaluator().Evaluate([]model.Component{
		component("a", "dev-1", 10, -1),
		component("a", "dev-2", 9, -1),
		component("a", "rel-1", 30, -1),
		component("b", "dev-1", 40, -1),
	}, cfg)
	require.NoError(t, err)

	// each (name, pattern) group keeps its own newest
	assert.ElementsMatch(t, []string{"dev-2", "rel-1", "dev-1"}, versions(res.Kept))
	require.Len(t, res.Deleted, 1)
	assert.Equal(t, "a", res.Deleted[0].Component.Name)
	assert.Equal(t, "dev-1", res.Deleted[0].Component.Version)
}

func TestEvaluate_NoMatchGroupedPerNameOutsideMaven(t *testing.T) {
	cfg := RuleConfig{
		Rules:   []Rule{{Pattern: "^dev-", Policy: Policy{Reserved: Days(5)}}},
		NoMatch: Policy{Reserved: Days(1)},
	}
	res, err := newTestEvaluator().Evaluate([]model.Component{
		component("a", "1.0", 10, -1),
		component("a", "2.0", 5, -1),
		component("b", "1.0", 20, -1),
	}, cfg)
	require.NoError(t, err)

	require.Len(t, res.Deleted, 1)
	assert.Equal(t, "a@1.0", res.Deleted[0].Component.Key())
	assert.Equal(t, NoMatchPattern, res.Deleted[0].MatchedPattern)
}

func TestEvaluate_NoMatchSafetyDefault(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: "^never$", Policy: Policy{Reserved: Days(0)}}}}
	var components []model.Component
	for i := 0; i < 10; i++ {
		components = append(components, component(fmt.Sprintf("n%d", i%3), fmt.Sprintf("1.%d", i), 400+i, -1))
	}

	res, err := newTestEvaluator().Evaluate(components, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Deleted)
	require.Len(t, res.Kept, 10)
	for _, v := range res.Kept {
		assert.Equal(t, ReasonNoFallback, v.Reason)
		assert.Equal(t, NoMatchPattern, v.MatchedPattern)
	}
}

func TestEvaluate_NoMatchNeverSharesGroupWithRule(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: NoMatchPattern, Policy: Policy{RetentionDays: Days(1)}}}}
	matched := component("pkg", "no-match-a", 0, -1)
	unmatched := component("pkg", "1.0", 100, -1)

	for name, components := range map[string][]model.Component{
		"rule first":     {matched, unmatched},
		"fallback first": {unmatched, matched},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := newTestEvaluator().Evaluate(components, cfg)
			require.NoError(t, err)
			assert.Empty(t, res.Deleted)

			v, ok := byVersion(res, "1.0")
			require.True(t, ok)
			assert.Equal(t, ReasonNoFallback, v.Reason)
			assert.Equal(t, 1, v.GroupSize)

			v, ok = byVersion(res, "no-match-a")
			require.True(t, ok)
			assert.Equal(t, ReasonRetention, v.Reason)
		})
	}
}

func TestEvaluate_LatestNeverDeleted(t *testing.T) {
	configs := []RuleConfig{
		{Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(0)}}}},
		{Rules: []Rule{{Pattern: "latest", Policy: Policy{RetentionDays: Days(0)}}}},
		{NoMatch: Policy{Reserved: Days(0), RetentionDays: Days(0), MinDaysSinceLastDownload: Days(0)}},
	}
	for i, cfg := range configs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			res, err := newTestEvaluator().Evaluate([]model.Component{
				component("img", "latest", 900, -1),
				component("img", "1.0", 2, -1),
			}, cfg)
			require.NoError(t, err)
			for _, v := range res.Deleted {
				assert.NotEqual(t, "latest", v.Component.Version)
			}
			v, ok := byVersion(res, "latest")
			require.True(t, ok)
			assert.Equal(t, ReasonLatest, v.Reason)
			assert.Zero(t, v.GroupSize)
		})
	}
}

func TestEvaluate_LatestDoesNotConsumeReservedSlot(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(1)}}}}
	res, err := newTestEvaluator().Evaluate([]model.Component{
		component("img", "latest", 0, -1),
		component("img", "2.0", 5, -1),
		component("img", "1.0", 10, -1),
	}, cfg)
	require.NoError(t, err)

	v, _ := byVersion(res, "2.0")
	assert.False(t, v.WillDelete)
	assert.Equal(t, "reserved (position 1/1)", v.Reason)
	assert.Equal(t, []string{"1.0"}, versions(res.Deleted))
}

func TestEvaluate_SkipsUnusableComponents(t *testing.T) {
	good := component("lib", "1.0", 1, -1)
	noAssets := model.Component{ID: "x", Name: "lib", Version: "2.0"}
	noName := component("", "3.0", 1, -1)
	noVersion := component("lib", "", 1, -1)
	badTime := component("lib", "4.0", 1, -1)
	badTime.Assets[0].LastModified = "not-a-date"

	res, err := newTestEvaluator().Evaluate(
		[]model.Component{good, noAssets, noName, noVersion, badTime},
		RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(0)}}}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"1.0"}, versions(res.Deleted))
	assert.Empty(t, res.Kept)
	require.Len(t, res.Skipped, 4)
	reasons := make([]string, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		reasons = append(reasons, s.Reason)
	}
	assert.Equal(t, []string{"no assets", "missing name", "missing version", "no parseable lastModified"}, reasons)
}

func TestEvaluate_MultiAssetComponentUsesNewestAsset(t *testing.T) {
	c := component("lib", "1.0", 30, -1)
	c.Assets = append(c.Assets, model.Asset{ID: "pom", LastModified: daysAgo(2), LastDownloaded: "bogus"})
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{RetentionDays: Days(7)}}}}

	res, err := newTestEvaluator().Evaluate([]model.Component{c}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Kept, 1)
	assert.Equal(t, ReasonRetention, res.Kept[0].Reason)
	assert.Nil(t, res.Kept[0].LastDownload)
}

func TestEvaluate_MatchedRuleWithoutThresholdsDeletes(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*"}}}
	res, err := newTestEvaluator().Evaluate([]model.Component{component("lib", "1.0", 1, 0)}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Deleted, 1)
	assert.Equal(t, ReasonNoProtection, res.Deleted[0].Reason)
}

func TestEvaluate_TieBreak(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(1)}}}}

	t.Run("parseable versions order by version", func(t *testing.T) {
		res, err := newTestEvaluator().Evaluate([]model.Component{
			component("lib", "1.2.0", 5, -1),
			component("lib", "1.10.0", 5, -1),
			component("lib", "1.9.0", 5, -1),
		}, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"1.10.0"}, versions(res.Kept))
		assert.Equal(t, []string{"1.9.0", "1.2.0"}, versions(res.Deleted))
	})

	t.Run("unparseable versions keep encounter order", func(t *testing.T) {
		res, err := newTestEvaluator().Evaluate([]model.Component{
			component("lib", "build-b", 5, -1),
			component("lib", "build-a", 5, -1),
			component("lib", "1.0.0", 5, -1),
		}, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"build-b"}, versions(res.Kept))
		assert.Equal(t, []string{"build-a", "1.0.0"}, versions(res.Deleted))
	})
}

func TestEvaluate_Idempotent(t *testing.T) {
	cfg := RuleConfig{
		Rules: []Rule{
			{Pattern: "^dev-", Policy: Policy{RetentionDays: Days(7), Reserved: Days(2)}},
			{Pattern: ".*", Policy: Policy{MinDaysSinceLastDownload: Days(10)}},
		},
		NoMatch: Policy{Reserved: Days(1)},
	}
	var components []model.Component
	for i := 0; i < 20; i++ {
		components = append(components, component(fmt.Sprintf("p%d", i%4), fmt.Sprintf("dev-%d", i), i*3, i%5*4-1))
		components = append(components, component(fmt.Sprintf("p%d", i%4), fmt.Sprintf("1.%d.0", i), i*2, i%7*3-1))
	}

	ev := newTestEvaluator()
	first, err := ev.Evaluate(components, cfg)
	require.NoError(t, err)
	second, err := ev.Evaluate(components, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluate_InvalidPattern(t *testing.T) {
	_, err := newTestEvaluator().Evaluate(nil, RuleConfig{Rules: []Rule{{Pattern: "*bad"}}})
	assert.Error(t, err)
}

func TestEvaluateMaven(t *testing.T) {
	cfg := MavenRuleConfig{
		Snapshot: RuleConfig{
			Rules:   []Rule{{Pattern: "^1\\.", Policy: Policy{Reserved: Days(1)}}},
			NoMatch: Policy{RetentionDays: Days(3)},
		},
		Release: RuleConfig{
			Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(2)}}},
		},
	}
	components := []model.Component{
		component("org.acme:core", "1.0-20250829.123456-1", 10, -1),
		component("org.acme:core", "1.1-SNAPSHOT", 2, -1),
		component("org.acme:core", "1.0.0", 40, -1),
		component("org.acme:core", "1.1.0", 30, -1),
		component("org.acme:core", "1.2.0", 20, -1),
		component("org.acme:core", "2.0-SNAPSHOT", 10, -1),
		component("org.acme:api", "2.1-SNAPSHOT", 1, -1),
	}

	res, err := newTestEvaluator().EvaluateMaven(components, cfg)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"1.0-20250829.123456-1", "1.0.0", "2.0-SNAPSHOT"}, versions(res.Deleted))

	v, _ := byVersion(res, "1.1-SNAPSHOT")
	assert.Equal(t, model.MavenSnapshot, v.MavenType)
	assert.Equal(t, "reserved (position 1/1)", v.Reason)

	v, _ = byVersion(res, "1.2.0")
	assert.Equal(t, model.MavenRelease, v.MavenType)

	// no-match snapshots of both artifacts share one pool
	v, _ = byVersion(res, "2.1-SNAPSHOT")
	assert.Equal(t, NoMatchPattern, v.MatchedPattern)
	assert.Equal(t, 2, v.GroupSize)
	assert.Equal(t, ReasonRetention, v.Reason)
}

func TestEvaluateMaven_NoMatchPooledAcrossNames(t *testing.T) {
	cfg := MavenRuleConfig{
		Release: RuleConfig{NoMatch: Policy{Reserved: Days(1)}},
	}
	res, err := newTestEvaluator().EvaluateMaven([]model.Component{
		component("g:a", "1.0", 10, -1),
		component("g:b", "1.0", 5, -1),
		component("g:c", "1.0", 20, -1),
	}, cfg)
	require.NoError(t, err)

	require.Len(t, res.Kept, 1)
	assert.Equal(t, "g:b", res.Kept[0].Component.Name)
	assert.Len(t, res.Deleted, 2)
}

func TestEvaluateMaven_SnapshotFallbackIndependentOfRelease(t *testing.T) {
	cfg := MavenRuleConfig{
		Release: RuleConfig{NoMatch: Policy{Reserved: Days(0)}},
	}
	res, err := newTestEvaluator().EvaluateMaven([]model.Component{
		component("g:a", "1.0-SNAPSHOT", 500, -1),
		component("g:a", "1.0", 500, -1),
	}, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"1.0"}, versions(res.Deleted))
	v, _ := byVersion(res, "1.0-SNAPSHOT")
	assert.Equal(t, ReasonNoFallback, v.Reason)
}

func TestEvaluateMaven_LatestIsEvaluated(t *testing.T) {
	cfg := MavenRuleConfig{Release: RuleConfig{NoMatch: Policy{Reserved: Days(0)}}}
	res, err := newTestEvaluator().EvaluateMaven([]model.Component{component("g:a", "latest", 5, -1)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"latest"}, versions(res.Deleted))
}

func TestNewEvaluator_Clock(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return testNow
	}
	ev := NewEvaluator(WithClock(clock))
	_, err := ev.Evaluate(nil, RuleConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewEvaluator_DefaultPatternCache(t *testing.T) {
	ev := NewEvaluator()
	require.NotNil(t, ev.patterns)
	_, err := ev.Evaluate([]model.Component{component("a", "1.0", 1, -1)},
		RuleConfig{Rules: []Rule{{Pattern: ".*", Policy: Policy{Reserved: Days(1)}}}})
	require.NoError(t, err)
	assert.Equal(t, 1, ev.patterns.Len())
}
