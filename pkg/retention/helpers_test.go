package retention

import (
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
)

var testNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour).Format(time.RFC3339)
}

// component builds a single-asset component; downloaded < 0 means never downloaded.
func component(name, version string, modified, downloaded int) model.Component {
	a := model.Asset{ID: name + "/" + version, LastModified: daysAgo(modified)}
	if downloaded >= 0 {
		a.LastDownloaded = daysAgo(downloaded)
	}
	return model.Component{
		ID:      name + ":" + version,
		Name:    name,
		Version: version,
		Format:  model.FormatDocker,
		Assets:  []model.Asset{a},
	}
}

func versions(vs []model.Verdict) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Component.Version)
	}
	return out
}

func byVersion(r *model.EvaluationResult, version string) (model.Verdict, bool) {
	for _, v := range r.All() {
		if v.Component.Version == version {
			return v, true
		}
	}
	return model.Verdict{}, false
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(WithNow(testNow))
}
