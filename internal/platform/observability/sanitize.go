package observability

import "strings"

const maxLogValueLength = 256

func sanitizeString(value string) string {
	value = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return ' '
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, value)
	if len(value) > maxLogValueLength {
		value = value[:maxLogValueLength]
	}
	return value
}

// SanitizeRoute normalizes a route pattern before it is logged.
func SanitizeRoute(route string) string {
	route = sanitizeString(route)
	if route == "" {
		return "unknown"
	}
	return route
}

// SanitizeMethod normalizes an HTTP method before it is logged.
func SanitizeMethod(method string) string {
	method = strings.ToUpper(sanitizeString(method))
	if method == "" {
		return "UNKNOWN"
	}
	return method
}

// SanitizeUserID removes control characters from an identifier used in logs.
func SanitizeUserID(id string) string {
	return sanitizeString(id)
}
