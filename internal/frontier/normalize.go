package frontier

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrUnsupportedScheme is returned by Normalize for non-HTTP(S) URLs.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// ErrMissingHost is returned by Normalize for URLs without a host.
var ErrMissingHost = errors.New("URL has no host")

// Normalize returns the canonical form of rawURL used for deduplication.
//
// The following rules are applied:
//   - scheme and host are lowercased
//   - default ports (:80 for http, :443 for https) are removed
//   - the fragment is removed
//   - an empty path becomes "/"
//   - a trailing slash is removed from non-root paths
//
// Query strings are kept verbatim since they usually select different content.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", ErrMissingHost
	}

	u.Host = strings.ToLower(u.Host)
	if host, port, err := net.SplitHostPort(u.Host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = host
			if strings.Contains(host, ":") {
				u.Host = "[" + host + "]"
			}
		}
	}

	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	} else if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		if u.Path == "" {
			u.Path = "/"
		}
		u.RawPath = ""
	}

	return u.String(), nil
}
