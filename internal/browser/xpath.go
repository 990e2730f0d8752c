package browser

import (
	"fmt"
	"strings"
)

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// textXPath matches interactive elements whose normalized text or
// aria-label contains text, ignoring ASCII case. Deepest matches come last
// in document order, so the first hit is the outermost control.
func textXPath(text string) string {
	needle := xpathLiteral(strings.ToLower(text))
	lowered := func(expr string) string {
		return fmt.Sprintf("translate(%s, '%s', '%s')", expr, upperAlpha, lowerAlpha)
	}
	return fmt.Sprintf(
		"//*[self::button or self::a or @role='button' or @aria-label]"+
			"[contains(%s, %s) or contains(%s, %s)]",
		lowered("normalize-space(string(.))"), needle,
		lowered("@aria-label"), needle,
	)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+part+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
