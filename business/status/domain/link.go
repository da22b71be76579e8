package domain

import "strings"

// ValuePlaceholder is replaced by the indicator's value when a link is opened.
const ValuePlaceholder = "{{value}}"

// Link is a URL template. The rendering layer resolves and opens it.
type Link string

// BlockLink links to a block page of an explorer.
func BlockLink(explorerURL string) Link {
	if explorerURL == "" {
		return ""
	}
	return Link(strings.TrimRight(explorerURL, "/") + "/block/" + ValuePlaceholder)
}

// Resolve substitutes v into the template. It returns "" for an empty link
// or an unknown value.
func (l Link) Resolve(v Value) string {
	if l == "" {
		return ""
	}
	if !strings.Contains(string(l), ValuePlaceholder) {
		return string(l)
	}
	if v.IsUnknown() {
		return ""
	}
	return strings.ReplaceAll(string(l), ValuePlaceholder, v.Raw())
}
