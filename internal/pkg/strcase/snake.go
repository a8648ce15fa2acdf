// Package strcase converts Go identifiers to snake_case for wire field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to lower snake case, keeping
// initialisms together: "NewPassword" -> "new_password", "AccountID" ->
// "account_id", "HTTPServer" -> "http_server".
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
