// Package model provides the data structures shared by the repository listing,
// retention evaluation and deletion layers of reposweep.
package model

import (
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// Format identifies the storage format of a repository.
type Format string

// Supported repository formats.
const (
	FormatRaw    Format = "raw"
	FormatDocker Format = "docker"
	FormatMaven  Format = "maven2"
)

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatRaw, FormatDocker, FormatMaven:
		return true
	default:
		return false
	}
}

// ValidFormats returns the list of supported formats.
func ValidFormats() []string {
	return []string{string(FormatRaw), string(FormatDocker), string(FormatMaven)}
}

// Asset is one physical blob backing a component version.
// Timestamps are kept as the strings the repository manager reported;
// parsing happens during evaluation so that a malformed value only affects
// the asset it belongs to.
type Asset struct {
	ID             string `json:"id" yaml:"id"`
	Path           string `json:"path,omitempty" yaml:"path,omitempty"`
	DownloadURL    string `json:"downloadUrl,omitempty" yaml:"download_url,omitempty"`
	LastModified   string `json:"lastModified" yaml:"last_modified"`
	LastDownloaded string `json:"lastDownloaded,omitempty" yaml:"last_downloaded,omitempty"`
}

// Component is one retainable (name, version) unit backed by one or more assets.
type Component struct {
	ID         string  `json:"id" yaml:"id"`
	Repository string  `json:"repository" yaml:"repository"`
	Format     Format  `json:"format" yaml:"format"`
	Group      string  `json:"group,omitempty" yaml:"group,omitempty"`
	Name       string  `json:"name" yaml:"name"`
	Version    string  `json:"version" yaml:"version"`
	Assets     []Asset `json:"assets" yaml:"assets"`
}

// MavenName builds the logical name of a Maven component.
func MavenName(group, artifact string) string {
	if group == "" {
		return artifact
	}
	return group + ":" + artifact
}

// Key returns a short human-readable identifier "name@version".
func (c *Component) Key() string {
	return c.Name + "@" + c.Version
}

// PURL renders the component as a package URL.
func (c *Component) PURL() string {
	var p *packageurl.PackageURL
	switch c.Format {
	case FormatMaven:
		group, artifact := c.Group, c.Name
		if i := strings.LastIndex(c.Name, ":"); i >= 0 {
			group, artifact = c.Name[:i], c.Name[i+1:]
		}
		p = packageurl.NewPackageURL(packageurl.TypeMaven, group, artifact, c.Version, nil, "")
	case FormatDocker:
		namespace, name := splitLast(c.Name, "/")
		p = packageurl.NewPackageURL(packageurl.TypeDocker, namespace, name, c.Version, nil, "")
	default:
		namespace, name := splitLast(c.Name, "/")
		p = packageurl.NewPackageURL(packageurl.TypeGeneric, namespace, name, c.Version, nil, "")
	}
	if c.Repository != "" {
		p.Qualifiers = packageurl.QualifiersFromMap(map[string]string{"repository": c.Repository})
	}
	return p.ToString()
}

func splitLast(s, sep string) (string, string) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}
