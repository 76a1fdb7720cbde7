package httpclient

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// sensitiveParams are query parameter names redacted from logs, matched
// case-insensitively as substrings.
var sensitiveParams = []string{
	"api_key",
	"apikey",
	"token",
	"password",
	"auth",
	"secret",
	"key",
	"credential",
}

// redactedHeaders never appear in logs, not even partially.
var redactedHeaders = map[string]bool{
	"Cookie":     true,
	"Set-Cookie": true,
	"X-Api-Key":  true,
}

const redacted = "[REDACTED]"

// sanitizeURL removes sensitive query parameters and userinfo before logging.
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	for param := range q {
		if isSensitiveParam(param) {
			q.Set(param, redacted)
		}
	}

	safe := *u
	safe.User = nil
	safe.RawQuery = q.Encode()
	return safe.String()
}

// sanitizeRawURL is sanitizeURL for header values. Values that do not parse
// as absolute URLs are returned unchanged.
func sanitizeRawURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	return sanitizeURL(u)
}

func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// sanitizeHeaders flattens h for a debug log entry. Bearer tokens keep only
// their last four characters and URL-valued headers are sanitized.
func sanitizeHeaders(h http.Header) []string {
	out := make([]string, 0, len(h))
	for name, values := range h {
		value := strings.Join(values, ", ")
		switch {
		case redactedHeaders[name]:
			value = redacted
		case name == "Authorization":
			value = maskAuthorization(value)
		case strings.HasSuffix(name, "-Referrer") || name == "Referer":
			value = sanitizeRawURL(value)
		}
		out = append(out, name+": "+value)
	}
	sort.Strings(out)
	return out
}

func maskAuthorization(value string) string {
	scheme, token, ok := strings.Cut(value, " ")
	if !ok {
		return redacted
	}
	if len(token) <= 8 {
		return scheme + " ****"
	}
	return scheme + " ****" + token[len(token)-4:]
}
