package retention

import (
	"testing"

	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *PatternCache {
	t.Helper()
	c, err := NewPatternCache(8)
	require.NoError(t, err)
	return c
}

func TestMatchVersion_LongestPatternWins(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{
		{Pattern: ".*", Policy: Policy{Reserved: Days(10)}},
		{Pattern: "^dev-", Policy: Policy{Reserved: Days(2)}},
		{Pattern: "^dev-feature", Policy: Policy{Reserved: Days(1)}},
	}}

	m, err := MatchVersion("dev-feature-42", cfg, newCache(t))
	require.NoError(t, err)
	assert.Equal(t, "^dev-feature", m.Pattern)
	assert.Equal(t, 1, *m.Policy.Reserved)
	assert.False(t, m.NoMatch)

	m, err = MatchVersion("dev-7", cfg, newCache(t))
	require.NoError(t, err)
	assert.Equal(t, "^dev-", m.Pattern)

	m, err = MatchVersion("1.2.3", cfg, newCache(t))
	require.NoError(t, err)
	assert.Equal(t, ".*", m.Pattern)
}

func TestMatchVersion_EqualLengthKeepsConfiguredOrder(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{
		{Pattern: "^rc", Policy: Policy{Reserved: Days(1)}},
		{Pattern: "c-1", Policy: Policy{Reserved: Days(2)}},
	}}
	m, err := MatchVersion("rc-1", cfg, newCache(t))
	require.NoError(t, err)
	assert.Equal(t, "^rc", m.Pattern)
}

func TestMatchVersion_CaseInsensitive(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: "^release-", Policy: Policy{Reserved: Days(3)}}}}
	m, err := MatchVersion("RELEASE-1.0", cfg, newCache(t))
	require.NoError(t, err)
	assert.Equal(t, "^release-", m.Pattern)
}

func TestMatchVersion_NoMatchFallback(t *testing.T) {
	cfg := RuleConfig{
		Rules:   []Rule{{Pattern: "^dev-", Policy: Policy{Reserved: Days(1)}}},
		NoMatch: Policy{RetentionDays: Days(30)},
	}
	m, err := MatchVersion("1.0.0", cfg, newCache(t))
	require.NoError(t, err)
	assert.True(t, m.NoMatch)
	assert.Equal(t, NoMatchPattern, m.Pattern)
	assert.Equal(t, 30, *m.Policy.RetentionDays)
	assert.Nil(t, m.Policy.Reserved)
}

func TestMatchVersion_InvalidPattern(t *testing.T) {
	cfg := RuleConfig{Rules: []Rule{{Pattern: "([a-z", Policy: Policy{Reserved: Days(1)}}}}
	_, err := MatchVersion("abc", cfg, newCache(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, errutils.ErrInvalidPattern)
}

func TestPatternCache_ReusesCompiled(t *testing.T) {
	c := newCache(t)
	a, err := c.Compile("^v")
	require.NoError(t, err)
	b, err := c.Compile("^v")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Len())
}

func TestPatternCache_Bounded(t *testing.T) {
	c, err := NewPatternCache(2)
	require.NoError(t, err)
	for _, p := range []string{"a", "b", "c"} {
		_, err := c.Compile(p)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}
