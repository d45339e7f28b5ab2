// internal/browser/cdpdriver/script.go
package cdpdriver

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/uiharness/internal/browser"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// normalizeSelector strips the "xpath=" engine prefix. DOM.performSearch,
// which chromedp.BySearch uses, accepts CSS and XPath as-is.
func normalizeSelector(selector string) string {
	return strings.TrimPrefix(selector, "xpath=")
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "xpath=") ||
		strings.HasPrefix(selector, "/") ||
		strings.HasPrefix(selector, "(")
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshalling a string cannot fail.
		panic(err)
	}
	return string(b)
}

// firstExpr evaluates to the first element matching selector, or null.
func firstExpr(selector string) string {
	sel := jsString(normalizeSelector(selector))
	if isXPath(selector) {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", sel)
	}
	return fmt.Sprintf("document.querySelector(%s)", sel)
}

// allExpr evaluates to an array of every element matching selector.
func allExpr(selector string) string {
	sel := jsString(normalizeSelector(selector))
	if isXPath(selector) {
		return fmt.Sprintf(`(() => {
	const snap = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < snap.snapshotLength; i++) out.push(snap.snapshotItem(i));
	return out;
})()`, sel)
	}
	return fmt.Sprintf("Array.from(document.querySelectorAll(%s))", sel)
}

// probeResult is what every element probe script returns.
type probeResult struct {
	Found bool `json:"found"`
	Value bool `json:"value"`
}

// probeScript wraps body, which sees the element as el and returns a bool.
func probeScript(selector, body string) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return {found: false, value: false};
	const value = (() => { %s })();
	return {found: true, value: !!value};
})()`, firstExpr(selector), body)
}

const (
	visibleBody = `const style = window.getComputedStyle(el);
	if (style.visibility === "hidden" || style.display === "none") return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;`

	enabledBody = `return !el.disabled && !el.closest("fieldset:disabled");`

	editableBody = `if (el.disabled || el.readOnly) return false;
	if (el.isContentEditable) return true;
	return ["INPUT", "TEXTAREA", "SELECT"].includes(el.tagName);`
)

func checkedScript(selector string, checked bool) string {
	return probeScript(selector, fmt.Sprintf(`if (el.checked !== %t) el.click();
	return el.checked === %t;`, checked, checked))
}

// selectScript picks the option whose value or label equals value and fires
// the events a user selection would.
func selectScript(selector, value string) string {
	return probeScript(selector, fmt.Sprintf(`const want = %s;
	const opt = Array.from(el.options || []).find(o => o.value === want || o.label === want || o.text === want);
	if (!opt) return false;
	el.value = opt.value;
	el.dispatchEvent(new Event("input", {bubbles: true}));
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return true;`, jsString(value)))
}

func textContentsScript(selector string) string {
	return fmt.Sprintf("%s.map(e => e.textContent || \"\")", allExpr(selector))
}

// readyStateExpr is truthy once the document reaches state. The DevTools
// protocol has no network-idle signal, so networkidle is treated as load.
func readyStateExpr(state browser.LoadState) string {
	if state == browser.LoadStateDOMContentLoaded {
		return `document.readyState !== "loading"`
	}
	return `document.readyState === "complete"`
}
