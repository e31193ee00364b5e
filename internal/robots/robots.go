package robots

/*
Responsibilities

- Decide whether a user agent may fetch a URL given a robots.txt body
- Nothing else: fetching and caching of bodies belong to the engine and the
  cache package

An unparseable body is treated as permissive, matching the engine's policy of
swallowing robots retrieval problems.
*/

import (
	"net/url"

	"github.com/temoto/robotstxt"
)

// Allowed reports whether userAgent may fetch target according to body.
// An empty body means no restrictions.
func Allowed(body string, userAgent string, target url.URL) bool {
	if body == "" {
		return true
	}

	data, err := robotstxt.FromString(body)
	if err != nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}

	return data.TestAgent(path, userAgent)
}
