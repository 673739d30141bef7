package hostcheck

import "strings"

// Matches reports whether certName, a DNS name taken from a certificate,
// authorizes hostname under the RFC 2818 matching rules.
//
// A certName of the form "*.domain.tld" is a single-level wildcard: it
// matches any hostname whose part after the first dot equals ".domain.tld".
// The wildcard consumes exactly one label, so "*.example.com" matches
// "foo.example.com" but neither "example.com" nor "foo.bar.example.com",
// and a hostname without any dot never matches a wildcard. Every other
// certName must equal hostname byte-for-byte; there are no substring or
// partial matches.
//
// A certName of exactly "*." is too short to be a wildcard pattern and is
// compared literally instead.
//
// Comparison is case-sensitive. See the package documentation.
func Matches(certName, hostname string) bool {
	if certName == "" || hostname == "" {
		return false
	}

	if len(certName) > 2 && strings.HasPrefix(certName, "*.") {
		// Drop the "*" and compare the rest against everything from the
		// hostname's first dot onward.
		certSuffix := certName[1:]

		dot := strings.IndexByte(hostname, '.')
		if dot < 0 {
			// A single-label hostname leaves no label for the wildcard
			// to consume.
			return false
		}

		return certSuffix == hostname[dot:]
	}

	return certName == hostname
}
