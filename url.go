package packeteer

import (
	"sort"
	"strings"
)

// QueryParam is one key/value pair from a URL's query string, retained in
// the order it appeared so [URL.String] round-trips (spec §8 invariant 6).
type QueryParam struct {
	Key   string
	Value string
}

// URL is the parsed form of a connector URL: scheme (always lower-cased),
// authority, path, an ordered query mapping, and fragment. See spec §3.
type URL struct {
	Scheme   string
	Authority string
	Path     string
	Query    []QueryParam
	Fragment string
}

// ParseURL parses s into a URL, lower-casing the scheme and coercing
// recognised boolean-ish query values ("yes"/"true"/"1" -> "1",
// "no"/"false"/"0" -> "0", case-folded) while leaving every other value
// untouched. Returns *Error{Kind: Format} on malformed input.
func ParseURL(s string) (URL, error) {
	schemeEnd := strings.Index(s, "://")
	if schemeEnd < 0 {
		return URL{}, NewError(Format, "missing scheme separator \"://\" in "+quote(s))
	}
	scheme := strings.ToLower(s[:schemeEnd])
	if scheme == "" {
		return URL{}, NewError(Format, "empty scheme in "+quote(s))
	}
	rest := s[schemeEnd+3:]

	fragment := ""
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		fragment = rest[i+1:]
		rest = rest[:i]
	}

	query := ""
	path := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		query = rest[i+1:]
		rest = rest[:i]
	}

	authority := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority = rest[:i]
		path = rest[i:]
	}

	u := URL{
		Scheme:    scheme,
		Authority: authority,
		Path:      path,
		Fragment:  fragment,
	}
	if query != "" {
		u.Query = parseQuery(query)
	}
	return u, nil
}

func parseQuery(q string) []QueryParam {
	var out []QueryParam
	for _, pair := range strings.Split(q, "&") {
		if pair == "" {
			continue
		}
		var k, v string
		if i := strings.IndexByte(pair, '='); i >= 0 {
			k, v = pair[:i], pair[i+1:]
		} else {
			k = pair
		}
		out = append(out, QueryParam{Key: k, Value: coerceQueryValue(v)})
	}
	return out
}

// coerceQueryValue folds common boolean spellings into canonical "1"/"0"
// forms, per spec §3's URL data model.
func coerceQueryValue(v string) string {
	switch strings.ToLower(v) {
	case "yes", "true", "1":
		return "1"
	case "no", "false", "0":
		return "0"
	default:
		return v
	}
}

// Get returns the value of the last occurrence of key in the query
// mapping (last value wins, per spec §6), and whether it was present.
func (u URL) Get(key string) (string, bool) {
	val, found := "", false
	for _, p := range u.Query {
		if strings.EqualFold(p.Key, key) {
			val, found = p.Value, true
		}
	}
	return val, found
}

// String formats u back into wire form; round-trips with ParseURL for
// any URL produced by this formatter (spec §8 invariant 6).
func (u URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Authority)
	b.WriteString(u.Path)
	if len(u.Query) > 0 {
		b.WriteByte('?')
		for i, p := range u.Query {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(p.Key)
			b.WriteByte('=')
			b.WriteString(p.Value)
		}
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// sortedQueryKeys returns the distinct query keys in u, sorted; used by
// Registry.OptionsFromQuery to apply mappers deterministically.
func (u URL) sortedQueryKeys() []string {
	seen := map[string]struct{}{}
	for _, p := range u.Query {
		seen[strings.ToLower(p.Key)] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quote(s string) string {
	return "\"" + s + "\""
}
