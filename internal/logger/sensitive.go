package logger

import (
	"regexp"
)

// sensitiveDataPatterns match credentials that must not reach log output
var sensitiveDataPatterns = []*regexp.Regexp{
	// user:password@tcp(host) in MySQL DSNs
	regexp.MustCompile(`([^:/\s]+:)([^@\s]+)(@)`),
	// password=secret style key/value pairs
	regexp.MustCompile(`(?i)((passw(or)?d|secret|token)[\s:=]+)([^;,\s&]+)`),
}

// RedactSensitiveData replaces credentials in connection strings with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	input = sensitiveDataPatterns[0].ReplaceAllString(input, "${1}[REDACTED]${3}")
	input = sensitiveDataPatterns[1].ReplaceAllString(input, "${1}[REDACTED]")

	return input
}
