package domain

import "strings"

// FirstNonEmpty scans values in order and returns the first one that is not
// blank, trimmed. It returns "" when every slot is blank.
func FirstNonEmpty[S ~[]string](values S) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
