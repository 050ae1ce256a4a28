package instrumentation

import "strconv"

// StatusClass collapses an HTTP status code into its class ("2xx", "4xx", ...)
// so per-status labels stay bounded. Zero means the request never got a
// response and maps to "network".
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "network"
	case code == 401:
		// kept distinct: drives the refresh path
		return "401"
	case code >= 100 && code < 600:
		return strconv.Itoa(code/100) + "xx"
	default:
		return "unknown"
	}
}
