package retention

// NoMatchPattern is the pattern name reported for components that matched no rule.
const NoMatchPattern = "no-match"

// LatestVersion is never evaluated for deletion outside Maven repositories.
const LatestVersion = "latest"

// Policy holds the thresholds of a rule. A nil field is not configured.
type Policy struct {
	RetentionDays            *int `yaml:"retention_days,omitempty" json:"retention_days,omitempty"`
	Reserved                 *int `yaml:"reserved,omitempty" json:"reserved,omitempty"`
	MinDaysSinceLastDownload *int `yaml:"min_days_since_last_download,omitempty" json:"min_days_since_last_download,omitempty"`
}

// IsEmpty reports whether no threshold is configured.
func (p Policy) IsEmpty() bool {
	return p.RetentionDays == nil && p.Reserved == nil && p.MinDaysSinceLastDownload == nil
}

// Rule binds a version regex to a policy.
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Policy  `yaml:",inline"`
}

// RuleConfig is an ordered rule list plus the policy applied when nothing matches.
type RuleConfig struct {
	Rules   []Rule `yaml:"rules,omitempty" json:"rules,omitempty"`
	NoMatch Policy `yaml:"no_match,omitempty" json:"no_match,omitempty"`
}

// MavenRuleConfig carries the two independent rule sets of a Maven repository.
type MavenRuleConfig struct {
	Snapshot RuleConfig `yaml:"snapshot" json:"snapshot"`
	Release  RuleConfig `yaml:"release" json:"release"`
}

// Days returns a pointer to n, for building policies in code.
func Days(n int) *int {
	return &n
}
