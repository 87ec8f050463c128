package logging

import (
	"net/http"
	"strings"
)

// MaskSecret keeps only the last 4 characters of a token or key.
func MaskSecret(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return ""
	case len(v) <= 4:
		return "****"
	default:
		return "****" + v[len(v)-4:]
	}
}

// MaskAuthorization masks the credential of an Authorization header,
// preserving its scheme.
func MaskAuthorization(v string) string {
	parts := strings.Fields(v)
	if len(parts) == 2 {
		return parts[0] + " " + MaskSecret(parts[1])
	}
	return MaskSecret(v)
}

// MaskHeaders flattens headers for logging with credentials masked.
func MaskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		joined := strings.Join(vs, ",")
		switch strings.ToLower(k) {
		case "authorization", "proxy-authorization":
			out[k] = MaskAuthorization(joined)
		case "cookie", "x-api-key":
			out[k] = MaskSecret(joined)
		default:
			out[k] = joined
		}
	}
	return out
}
