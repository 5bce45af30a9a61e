// Package execout trims the combined output of external tools for use
// in error messages.
package execout

// FirstLine returns everything up to the first newline. External tools
// print their actual complaint first and usage noise after, so one line
// is the right amount of context for a wrapped error.
func FirstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
