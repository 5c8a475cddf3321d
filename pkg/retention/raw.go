package retention

import (
	"strings"

	"github.com/glorpus-work/reposweep/pkg/model"
)

// SynthesizeRawComponents turns raw-repository assets into components: the
// parent folder becomes the name and the file name the version. Assets at the
// repository root, and folder entries, yield nothing.
func SynthesizeRawComponents(repository string, assets []model.Asset) []model.Component {
	components := make([]model.Component, 0, len(assets))
	for _, a := range assets {
		p := strings.TrimPrefix(a.Path, "/")
		i := strings.LastIndex(p, "/")
		if i <= 0 || i == len(p)-1 {
			continue
		}
		components = append(components, model.Component{
			ID:         a.ID,
			Repository: repository,
			Format:     model.FormatRaw,
			Name:       p[:i],
			Version:    p[i+1:],
			Assets:     []model.Asset{a},
		})
	}
	return components
}
