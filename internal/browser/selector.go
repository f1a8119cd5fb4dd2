package browser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/chromedp/chromedp"
)

// Query is a parsed selector.
type Query struct {
	// Expr is the CSS selector or XPath expression.
	Expr string

	// XPath is true when Expr is an XPath expression.
	XPath bool
}

// tagTextPattern matches tag:text('Foo') and tag:text("Foo").
var tagTextPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*):text\((?:'([^']*)'|"([^"]*)")\)$`)

// ParseSelector translates a selector into a Query.
func ParseSelector(sel string) Query {
	sel = strings.TrimSpace(sel)

	if text, ok := strings.CutPrefix(sel, "text="); ok {
		text = unquote(strings.TrimSpace(text))
		lit := xpathLiteral(text)
		return Query{
			Expr:  fmt.Sprintf("//*[normalize-space(.)=%s or (self::input and @value=%s)]", lit, lit),
			XPath: true,
		}
	}

	if m := tagTextPattern.FindStringSubmatch(sel); m != nil {
		text := m[2]
		if text == "" {
			text = m[3]
		}
		return Query{
			Expr:  fmt.Sprintf("//%s[contains(normalize-space(.), %s)]", m[1], xpathLiteral(text)),
			XPath: true,
		}
	}

	return Query{Expr: sel}
}

// By returns the chromedp query options for q.
func (q Query) By() []chromedp.QueryOption {
	if q.XPath {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

// jsLookup returns a JavaScript expression evaluating to the first matching element or null.
func (q Query) jsLookup() string {
	expr := jsString(q.Expr)
	if q.XPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", expr)
	}
	return fmt.Sprintf("document.querySelector(%s)", expr)
}

// selectOptionScript returns a script that selects the option with value and
// reports "ok", "no-element" or "no-option".
func selectOptionScript(q Query, value string) string {
	return fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return "no-element";
	const want = %s;
	const opt = Array.from(el.options || []).find(o => o.value === want);
	if (!opt) return "no-option";
	el.value = want;
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return "ok";
})()`, q.jsLookup(), jsString(value))
}

func jsString(s string) string {
	b, _ := json.Marshal(s) //nolint:errchkjson // marshaling a string cannot fail
	return string(b)
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
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
