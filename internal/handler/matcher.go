package handler

// Matcher decides whether a handler applies to a response content type.
// Three forms exist, mirroring how handlers are registered:
//
//   - MatchAll: the wildcard, applies to every content type
//   - MatchType("text"): applies when the content type equals "text" or
//     begins with "text/" (a type prefix)
//   - MatchTypes("text/html", "text/plain"): applies only on exact membership
type Matcher struct {
	wildcard bool
	prefix   string
	exact    []string
}

// MatchAll matches every content type.
func MatchAll() Matcher {
	return Matcher{wildcard: true}
}

// MatchType matches contentType == t, or contentType beginning with t + "/".
func MatchType(t string) Matcher {
	return Matcher{prefix: t}
}

// MatchTypes matches a content type contained in the given list exactly.
func MatchTypes(types ...string) Matcher {
	exact := make([]string, len(types))
	copy(exact, types)
	return Matcher{exact: exact}
}

// Matches reports whether the matcher applies to contentType. The content
// type must already be stripped of parameters.
func (m Matcher) Matches(contentType string) bool {
	if m.wildcard {
		return true
	}
	if m.prefix != "" {
		if contentType == m.prefix {
			return true
		}
		return len(contentType) > len(m.prefix) &&
			contentType[:len(m.prefix)] == m.prefix &&
			contentType[len(m.prefix)] == '/'
	}
	for _, t := range m.exact {
		if contentType == t {
			return true
		}
	}
	return false
}
