package retention

import (
	"regexp"
	"unicode/utf8"

	"github.com/glorpus-work/reposweep/pkg/errutils"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize bounds the number of compiled patterns kept by a PatternCache.
const DefaultPatternCacheSize = 256

// PatternCache keeps compiled rule patterns. It is safe for concurrent use and
// may be shared by evaluators that run against different rule sets, since
// entries are keyed by the pattern text only.
type PatternCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewPatternCache creates a cache holding at most size compiled patterns.
func NewPatternCache(size int) (*PatternCache, error) {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, err
	}
	return &PatternCache{cache: c}, nil
}

// Compile returns the case-insensitive regexp for pattern.
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, errutils.ErrInvalidPatternWithDetails(pattern, err)
	}
	c.cache.Add(pattern, re)
	return re, nil
}

// Len returns the number of cached patterns.
func (c *PatternCache) Len() int {
	return c.cache.Len()
}

// Match is the outcome of matching one version against a rule set.
type Match struct {
	Pattern string
	Policy  Policy
	NoMatch bool
}

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
	size int
}

// ruleSet is a RuleConfig with its patterns compiled.
type ruleSet struct {
	rules   []compiledRule
	noMatch Policy
}

func compileRuleSet(cfg RuleConfig, cache *PatternCache) (*ruleSet, error) {
	rs := &ruleSet{noMatch: cfg.NoMatch, rules: make([]compiledRule, 0, len(cfg.Rules))}
	for _, r := range cfg.Rules {
		re, err := cache.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		rs.rules = append(rs.rules, compiledRule{rule: r, re: re, size: utf8.RuneCountInString(r.Pattern)})
	}
	return rs, nil
}

// match picks the longest matching pattern. Equal lengths keep the earlier rule.
func (rs *ruleSet) match(version string) Match {
	best := -1
	for i, cr := range rs.rules {
		if !cr.re.MatchString(version) {
			continue
		}
		if best < 0 || cr.size > rs.rules[best].size {
			best = i
		}
	}
	if best < 0 {
		return Match{Pattern: NoMatchPattern, Policy: rs.noMatch, NoMatch: true}
	}
	return Match{Pattern: rs.rules[best].rule.Pattern, Policy: rs.rules[best].rule.Policy}
}

// MatchVersion matches a single version against cfg.
func MatchVersion(version string, cfg RuleConfig, cache *PatternCache) (Match, error) {
	rs, err := compileRuleSet(cfg, cache)
	if err != nil {
		return Match{}, err
	}
	return rs.match(version), nil
}
