package registry

import "strings"

// MatchScheme reports whether url satisfies the wildcard pattern.
//
// The rules, in order:
//   - a pattern without `*` never matches;
//   - url must begin with the text before the first `*`;
//   - a `*` followed by more literal text matches zero or more characters within one
//     `/`-delimited segment, so `https://a.com/*/watch` accepts `https://a.com/x/watch`
//     but not `https://a.com/x/y/watch`;
//   - a trailing `*` matches any remaining suffix, including an empty one;
//   - adjacent `**` act as a single `*`;
//   - comparison is case-sensitive on the raw string.
func MatchScheme(pattern, url string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return false
	}
	if !strings.HasPrefix(url, parts[0]) {
		return false
	}

	m := &schemeMatcher{fragments: parts[1:], url: url, visited: make(map[[2]int]bool)}
	return m.match(0, len(parts[0]))
}

// schemeMatcher holds the literal fragments that follow each `*`.
// The wildcard before fragments[i] starts at the cursor passed to match.
type schemeMatcher struct {
	fragments []string
	url       string
	visited   map[[2]int]bool
}

func (m *schemeMatcher) match(i, pos int) bool {
	frag := m.fragments[i]
	last := i == len(m.fragments)-1

	if frag == "" {
		if last {
			return true
		}
		return m.match(i+1, pos)
	}

	key := [2]int{i, pos}
	if m.visited[key] {
		return false
	}
	m.visited[key] = true

	limit := len(m.url)
	if slash := strings.IndexByte(m.url[pos:], '/'); slash >= 0 {
		limit = pos + slash
	}

	for start := pos; start <= limit; start++ {
		if !strings.HasPrefix(m.url[start:], frag) {
			continue
		}
		next := start + len(frag)
		if last {
			if next == len(m.url) {
				return true
			}
			continue
		}
		if m.match(i+1, next) {
			return true
		}
	}
	return false
}
