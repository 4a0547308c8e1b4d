package extract

import "regexp"

// Built-in pattern names.
const (
	PatternEmail    = "email"
	PatternUsername = "username"
	PatternPhone    = "phone"
	PatternURL      = "url"
	PatternIP       = "ip"

	// OSINT identifiers. They are selected by name only and are not part
	// of "all".
	PatternBitcoin   = "bitcoin"
	PatternEthereum  = "ethereum"
	PatternMonero    = "monero"
	PatternOnion     = "onion"
	PatternAnalytics = "analytics"

	// PatternAll selects every built-in pattern.
	PatternAll = "all"

	// PatternCustom tags matches produced by a raw expression.
	PatternCustom = "custom"
)

// builtin is a named, precompiled pattern. When group is non-zero the
// reported value is that capture group rather than the whole match.
type builtin struct {
	name  string
	re    *regexp.Regexp
	group int
}

// builtins holds the known patterns in the order "all" reports them.
// Word and digit classes are Unicode-aware (\p{L}, \p{N}, \p{Nd}); the
// email and ip expressions are ASCII by construction.
var builtins = []builtin{
	{PatternEmail, regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`), 0},
	// A handle is an @ not preceded by an email local part, so the domain
	// of an address is never reported as a username.
	{PatternUsername, regexp.MustCompile(`(?:^|[^\p{L}\p{N}_.+-])(@[\p{L}\p{N}_]+)`), 1},
	{PatternPhone, regexp.MustCompile(`\+?\p{Nd}[\p{Nd} -]{8,}\p{Nd}`), 0},
	{PatternURL, regexp.MustCompile(`https?://[^\s]+`), 0},
	{PatternIP, regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), 0},
}

// identifiers holds the named-only patterns.
var identifiers = []builtin{
	{PatternBitcoin, regexp.MustCompile(`\b(?:[13][a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{39,59})\b`), 0},
	{PatternEthereum, regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`), 0},
	{PatternMonero, regexp.MustCompile(`\b[48][0-9AB][1-9A-HJ-NP-Za-km-z]{93}\b`), 0},
	{PatternOnion, regexp.MustCompile(`\b[a-z2-7]{56}\.onion\b`), 0},
	// Google Analytics (UA and GA4) and Tag Manager IDs.
	{PatternAnalytics, regexp.MustCompile(`\b(?:UA-\d{4,10}-\d{1,4}|G-[A-Z0-9]{10,12}|GTM-[A-Z0-9]{6,8})\b`), 0},
}

// aliases maps alternative names to built-in names. Like the names
// themselves they are matched exactly.
var aliases = map[string]string{
	"ipv4": PatternIP,
	"btc":  PatternBitcoin,
	"eth":  PatternEthereum,
	"xmr":  PatternMonero,
}

// PatternNames returns the names of the built-in patterns in reporting order.
func PatternNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

// IdentifierNames returns the names of the patterns that are only
// selectable by name.
func IdentifierNames() []string {
	names := make([]string, len(identifiers))
	for i, b := range identifiers {
		names[i] = b.name
	}
	return names
}

// lookup returns the built-in pattern for name, resolving aliases.
func lookup(name string) (builtin, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, set := range [][]builtin{builtins, identifiers} {
		for _, b := range set {
			if b.name == name {
				return b, true
			}
		}
	}
	return builtin{}, false
}
