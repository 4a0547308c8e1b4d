package extract

import "regexp"

// QueryKind identifies which variant a Query holds.
type QueryKind int

const (
	// KindNamed is a single built-in pattern.
	KindNamed QueryKind = iota
	// KindAll is every built-in pattern.
	KindAll
	// KindRaw is a caller supplied regular expression.
	KindRaw
)

// String returns the kind name.
func (k QueryKind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindAll:
		return "all"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Match is one extracted value tagged with the pattern that produced it.
type Match struct {
	Pattern string
	Value   string
}

// Query is a resolved extraction query.
// The zero value is not usable; construct one with ParseQuery.
type Query struct {
	kind QueryKind
	// name is the built-in name, "all", or the raw expression.
	name  string
	re    *regexp.Regexp
	group int
}

// ParseQuery resolves a query string.
// Built-in names and aliases are matched exactly: "EMAIL" or " email" is a
// regular expression, not the email pattern. "all" selects every built-in
// pattern. Anything else is compiled as a regular expression; compile
// failures are returned as *InvalidPatternError.
func ParseQuery(s string) (Query, error) {
	if s == PatternAll {
		return Query{kind: KindAll, name: PatternAll}, nil
	}
	if b, ok := lookup(s); ok {
		return Query{kind: KindNamed, name: b.name, re: b.re, group: b.group}, nil
	}

	re, err := regexp.Compile(s)
	if err != nil {
		return Query{}, &InvalidPatternError{Pattern: s, Err: err}
	}
	return Query{kind: KindRaw, name: s, re: re}, nil
}

// MustParseQuery is like ParseQuery but panics on error.
// It is intended for tests and package-level defaults.
func MustParseQuery(s string) Query {
	q, err := ParseQuery(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Kind returns the query variant.
func (q Query) Kind() QueryKind {
	return q.kind
}

// String returns the query as given to ParseQuery (canonicalized for
// built-in names).
func (q Query) String() string {
	return q.name
}

// Extract returns every match of the query in text.
// For a single pattern, matches are non-overlapping and in order of
// appearance. For KindAll, each built-in pattern's matches are concatenated
// in the fixed order email, username, phone, url, ip. The same substring may
// be reported by several patterns.
func (q Query) Extract(text string) []Match {
	switch q.kind {
	case KindAll:
		var matches []Match
		for _, b := range builtins {
			matches = appendMatches(matches, b.name, b.re, b.group, text)
		}
		return matches
	case KindNamed:
		return appendMatches(nil, q.name, q.re, q.group, text)
	case KindRaw:
		return appendMatches(nil, PatternCustom, q.re, 0, text)
	default:
		return nil
	}
}

func appendMatches(dst []Match, pattern string, re *regexp.Regexp, group int, text string) []Match {
	if re == nil {
		return dst
	}
	if group == 0 {
		for _, v := range re.FindAllString(text, -1) {
			dst = append(dst, Match{Pattern: pattern, Value: v})
		}
		return dst
	}
	for _, sub := range re.FindAllStringSubmatch(text, -1) {
		dst = append(dst, Match{Pattern: pattern, Value: sub[group]})
	}
	return dst
}

// Extract finds all matches of patternName in text.
// patternName is a built-in name, "all", or a raw regular expression.
// It is a convenience wrapper around ParseQuery for one-off use; the crawl
// engine resolves its query once and calls Query.Extract instead.
func Extract(text, patternName string) ([]string, error) {
	q, err := ParseQuery(patternName)
	if err != nil {
		return nil, err
	}
	matches := q.Extract(text)
	values := make([]string, len(matches))
	for i, m := range matches {
		values[i] = m.Value
	}
	return values, nil
}
