package middleware

import (
	"github.com/mssola/useragent"
)

// DescribeUserAgent extracts a human-readable device display name from a
// User-Agent string, in the form "Browser on OS" (e.g. "Chrome on macOS").
// Used for request logging on the public verification endpoint.
func DescribeUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "unknown"
	}

	ua := useragent.New(userAgentString)

	browser, _ := ua.Browser()
	if browser == "" {
		if ua.Bot() {
			return "bot"
		}
		return "unknown"
	}

	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		return browser
	}

	return browser + " on " + os
}
