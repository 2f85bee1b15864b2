// Package redact scrubs sensitive material from strings before they reach
// logs or API error responses: connection URLs, credential parameters,
// bearer tokens, filesystem paths, row identifiers, and raw SQL values.
package redact

import "regexp"

// Placeholders substituted for matched sensitive fragments.
const (
	PlaceholderCredential = "[REDACTED_CREDENTIAL]"
	PlaceholderKey        = "[REDACTED_KEY]"
	PlaceholderPath       = "[REDACTED_PATH]"
	PlaceholderID         = "[REDACTED_ID]"
	PlaceholderValue      = "[REDACTED_VALUE]"
	PlaceholderEmail      = "[REDACTED_EMAIL]"
	PlaceholderHost       = "[REDACTED_HOST]"
	PlaceholderStack      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules run in order. Earlier rules consume text later ones would
// otherwise match, so credential patterns run before host and path
// patterns, and identifiers run before quoted-literal scrubbing.
var rules = []rule{
	// Userinfo in connection URLs (postgres, redis, and friends).
	{regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss|mysql)://[^@\s]+@`), PlaceholderCredential},

	// Credential parameters in query strings, config dumps, or payloads.
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), PlaceholderCredential},

	// API keys and bearer-style tokens.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|bearer|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), PlaceholderKey},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), PlaceholderKey},

	// Panic output and goroutine dumps.
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), PlaceholderStack},

	// Row identifiers. Actor and debt IDs are fine in response bodies but
	// must not leak through error detail strings.
	{regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), PlaceholderID},

	// Quoted literals, which in practice means SQL values from driver errors.
	{regexp.MustCompile(`'[^']*'`), PlaceholderValue},

	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), PlaceholderEmail},

	// Filesystem paths.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), PlaceholderPath},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\\s]+(\\[^\\\s]+)+`), PlaceholderPath},

	// Dotted hostnames with optional port.
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`), PlaceholderHost},
}

// String redacts sensitive fragments from the input.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive fragments from an error's message. A nil error
// yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
