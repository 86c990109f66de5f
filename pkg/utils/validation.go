// Package utils provides validation helpers for overlay advertisements:
// BRC-101 advertisable URI checks, BRC-87 topic and service name checks, and
// verification of the linkage signature carried by advertisement tokens.
package utils

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// topicServiceNameRegex enforces BRC-87 naming: a tm_ or ls_ prefix
	// followed by underscore-separated groups of lowercase letters.
	topicServiceNameRegex = regexp.MustCompile(`^(?:tm_|ls_)[a-z]+(?:_[a-z]+)*$`)

	// numberRegex extracts the leading numeric value from JS8 query parameters,
	// which may carry units such as "7.078MHz" or "100km".
	numberRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

// httpsSchemes are the HTTPS-based BRC-101 prefixes. Each is parsed as a
// regular https URL after the prefix swap:
//   - https+bsvauth: plain auth over HTTPS, no payment collected
//   - https+bsvauth+smf: auth and payment over HTTPS
//   - https+bsvauth+scrypt-offchain: adds sCrypt off-chain values to the
//     topical admissibility context
//   - https+rtt: overlays dealing in real-time (non-final) transactions
var httpsSchemes = []string{
	"https://",
	"https+bsvauth://",
	"https+bsvauth+smf://",
	"https+bsvauth+scrypt-offchain://",
	"https+rtt://",
}

// IsAdvertisableURI checks whether the URI carries a recognized BRC-101
// prefix and passes the scheme-specific rules: HTTPS-based schemes and wss
// disallow localhost, HTTPS-based schemes additionally require a bare root
// path, and js8c URIs must carry plausible lat, long, freq, and radius query
// parameters. Unknown prefixes are not advertisable.
func IsAdvertisableURI(uri string) bool {
	if strings.TrimSpace(uri) == "" {
		return false
	}

	for _, prefix := range httpsSchemes {
		if strings.HasPrefix(uri, prefix) {
			return validateHTTPSBasedURI(uri, prefix)
		}
	}
	if strings.HasPrefix(uri, "wss://") {
		return validateWSSURI(uri)
	}
	if strings.HasPrefix(uri, "js8c+bsvauth+smf:") {
		return validateJS8CallURI(uri)
	}
	return false
}

// validateHTTPSBasedURI swaps the custom prefix for "https://" so the URI
// parses as a regular URL, then checks the host and path rules.
func validateHTTPSBasedURI(uri, prefix string) bool {
	parsed, err := url.Parse("https://" + strings.TrimPrefix(uri, prefix))
	if err != nil {
		return false
	}
	if strings.EqualFold(parsed.Hostname(), "localhost") {
		return false
	}
	return parsed.Path == "/"
}

func validateWSSURI(uri string) bool {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "wss" {
		return false
	}
	return !strings.EqualFold(parsed.Hostname(), "localhost")
}

// validateJS8CallURI checks JS8 Call advertisements: the query string must
// name a position (lat, long), a frequency, and a radius. Frequency and
// radius accept trailing units but must be positive.
func validateJS8CallURI(uri string) bool {
	queryIndex := strings.Index(uri, "?")
	if queryIndex == -1 {
		return false
	}

	values, err := url.ParseQuery(uri[queryIndex+1:])
	if err != nil {
		return false
	}

	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return false
	}
	long, err := strconv.ParseFloat(values.Get("long"), 64)
	if err != nil || long < -180 || long > 180 {
		return false
	}

	return isPositiveQuantity(values.Get("freq")) && isPositiveQuantity(values.Get("radius"))
}

// isPositiveQuantity parses the leading number out of a value that may carry
// a unit suffix and reports whether it is strictly positive.
func isPositiveQuantity(value string) bool {
	if strings.HasPrefix(strings.TrimSpace(value), "-") {
		return false
	}
	matches := numberRegex.FindStringSubmatch(value)
	if len(matches) < 2 {
		return false
	}
	parsed, err := strconv.ParseFloat(matches[1], 64)
	return err == nil && parsed > 0
}

// IsValidTopicOrServiceName checks the provided name against the BRC-87
// guidelines: 1-50 characters, a "tm_" (topic) or "ls_" (lookup service)
// prefix, and underscore-separated groups of lowercase letters.
//
// Valid: "tm_payments", "ls_identity_verification". Invalid: "payments",
// "TM_payments", "tm_", "tm__double", "tm_payments_".
func IsValidTopicOrServiceName(name string) bool {
	if len(name) < 1 || len(name) > 50 {
		return false
	}
	return topicServiceNameRegex.MatchString(name)
}
