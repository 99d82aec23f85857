package fingerprint

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/leaddesk/authkit/pkg/clientip"
)

// Generate creates a client fingerprint from stable request signals:
// User-Agent, Accept headers, client IP, and header order. The result is a
// 16-character hex token. The hash is fast rather than cryptographic; the
// fingerprint is an anomaly signal, not a security boundary.
func Generate(r *http.Request) string {
	components := []string{
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Accept-Encoding"),
		r.Header.Get("Accept"),
		clientip.GetIP(r),
		headerOrder(r),
	}

	var filtered []string
	for _, comp := range components {
		if comp != "" {
			filtered = append(filtered, comp)
		}
	}

	sum := xxhash.Sum64String(strings.Join(filtered, "|"))
	return strconv.FormatUint(sum, 16)
}

// Validate compares the current request fingerprint with a stored one.
func Validate(r *http.Request, stored string) bool {
	return Generate(r) == stored
}

// headerOrder fingerprints the set of stable headers the client sent.
// Different browsers and HTTP clients differ here, which makes it a useful
// distinguishing signal.
func headerOrder(r *http.Request) string {
	var headerNames []string
	for name := range r.Header {
		switch strings.ToLower(name) {
		case "user-agent", "accept", "accept-language", "accept-encoding",
			"connection", "upgrade-insecure-requests", "sec-fetch-dest",
			"sec-fetch-mode", "sec-fetch-site", "cache-control":
			headerNames = append(headerNames, strings.ToLower(name))
		}
	}

	// Sorted so identical header sets always hash the same.
	sort.Strings(headerNames)
	return strings.Join(headerNames, ",")
}
