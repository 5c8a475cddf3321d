package retention

import (
	"regexp"
	"strings"

	"github.com/glorpus-work/reposweep/pkg/model"
)

// uniqueSnapshot matches the unique-timestamp snapshot suffix, e.g. 1.0-20250829.123456-1.
var uniqueSnapshot = regexp.MustCompile(`-\d{8}\.\d{6}-\d+$`)

// ClassifyMaven reports whether a Maven version is a snapshot or a release.
func ClassifyMaven(version string) model.MavenType {
	if strings.Contains(strings.ToLower(version), "snapshot") || uniqueSnapshot.MatchString(version) {
		return model.MavenSnapshot
	}
	return model.MavenRelease
}
