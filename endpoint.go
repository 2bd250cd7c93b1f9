package mdnice

import "net/url"

// Built-in editor endpoints.
const (
	DefaultEditorURL = "https://xiaoqiangclub.github.io/md/"
	BackupEditorURL  = "https://whaoa.github.io/markdown-nice/"
)

// EndpointKind records where an endpoint came from.
type EndpointKind string

// Endpoint provenance.
const (
	EndpointCustom  EndpointKind = "custom"
	EndpointDefault EndpointKind = "default"
	EndpointBackup  EndpointKind = "backup"
)

// Endpoint is one editor URL and its provenance.
type Endpoint struct {
	URL  string
	Kind EndpointKind
}

// Endpoints is an ordered, de-duplicated list of editor endpoints.
type Endpoints []Endpoint

// BuildEndpoints returns caller endpoints first, then the default and backup
// editors, each URL appearing at most once. Empty strings are ignored.
func BuildEndpoints(custom ...string) Endpoints {
	list := make(Endpoints, 0, len(custom)+2)
	seen := make(map[string]bool, len(custom)+2)
	add := func(url string, kind EndpointKind) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		list = append(list, Endpoint{URL: url, Kind: kind})
	}
	for _, u := range custom {
		add(u, EndpointCustom)
	}
	add(DefaultEditorURL, EndpointDefault)
	add(BackupEditorURL, EndpointBackup)
	return list
}

// originOf returns the scheme://host part of rawURL, or rawURL itself when it
// does not parse as an absolute URL.
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// URLs returns the endpoint URLs in order.
func (e Endpoints) URLs() []string {
	urls := make([]string, len(e))
	for i, ep := range e {
		urls[i] = ep.URL
	}
	return urls
}
