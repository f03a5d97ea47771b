package everrest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
)

// RateLimit is the quota advertised in a RateLimit response header.
// Format (RFC 8941 Dictionary): limit=100, remaining=0, reset=30
type RateLimit struct {
	Limit     int64
	Remaining int64
	Reset     time.Duration
}

// ParseRateLimitHeader parses a RateLimit structured-field header.
// Members that are missing or not integers are left zero.
func ParseRateLimitHeader(header string) (RateLimit, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return RateLimit{}, false
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return RateLimit{}, false
	}

	var rl RateLimit
	found := false
	for _, name := range []string{"limit", "remaining", "reset"} {
		n, ok := intMember(dict, name)
		if !ok {
			continue
		}
		found = true
		switch name {
		case "limit":
			rl.Limit = n
		case "remaining":
			rl.Remaining = n
		case "reset":
			rl.Reset = time.Duration(n) * time.Second
		}
	}
	return rl, found
}

func intMember(dict *httpsfv.Dictionary, name string) (int64, bool) {
	member, ok := dict.Get(name)
	if !ok {
		return 0, false
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return 0, false
	}
	n, ok := item.Value.(int64)
	return n, ok
}

// retryAfter picks the wait hint from RateLimit or Retry-After.
func retryAfter(h http.Header) time.Duration {
	if rl, ok := ParseRateLimitHeader(h.Get("RateLimit")); ok && rl.Reset > 0 {
		return rl.Reset
	}
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := time.Until(at); d > 0 {
				return d
			}
		}
	}
	return 0
}
