// internal/pages/selectors.go
package pages

import (
	"fmt"
	"strings"
)

// The helpers below build XPath selectors that match elements by their
// accessible text. Both backends understand XPath, unlike Playwright's role
// selectors.

// LinkByName matches an anchor whose normalized text is name.
func LinkByName(name string) string {
	return fmt.Sprintf("//a[normalize-space(.)=%s]", xpathLiteral(name))
}

// HeadingByName matches an h1 to h6 element whose normalized text is name.
func HeadingByName(name string) string {
	return fmt.Sprintf("//*[self::h1 or self::h2 or self::h3 or self::h4 or self::h5 or self::h6][normalize-space(.)=%s]", xpathLiteral(name))
}

// ButtonByName matches a button element, or an input button, labelled name.
func ButtonByName(name string) string {
	lit := xpathLiteral(name)
	return fmt.Sprintf("//button[normalize-space(.)=%s] | //input[@type='button' or @type='submit'][@value=%s]", lit, lit)
}

// TextboxByName matches a text input or textarea by aria-label, placeholder
// or associated label.
func TextboxByName(name string) string {
	lit := xpathLiteral(name)
	cond := fmt.Sprintf("[@aria-label=%[1]s or @placeholder=%[1]s or @id=//label[normalize-space(.)=%[1]s]/@for]", lit)
	return fmt.Sprintf("//input[not(@type) or @type='text' or @type='email' or @type='password' or @type='search']%[1]s | //textarea%[1]s", cond)
}

// CheckboxByLabel matches a checkbox by its label, whether the label wraps
// the input or points at it with for=.
func CheckboxByLabel(label string) string {
	lit := xpathLiteral(label)
	return fmt.Sprintf("//input[@type='checkbox'][@id=//label[normalize-space(.)=%[1]s]/@for or ancestor::label[normalize-space(.)=%[1]s]]", lit)
}

// SelectByLabel matches the first select element following label.
func SelectByLabel(label string) string {
	return fmt.Sprintf("//label[normalize-space(.)=%s]/following::select[1]", xpathLiteral(label))
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
	quoted := make([]string, 0, 2*len(parts)-1)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
