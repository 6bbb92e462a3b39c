package models

import "strings"

// ComplementItem is one semantic piece of an address complement, such as
// {Type: "Apto", Value: "101"} or {Type: "Fundos"}.
type ComplementItem struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

const (
	complementSeparator = ", "
	complementKVSep     = ": "
)

// SerializeComplements joins items into the transport form
// "Type: Value, Type2". Items with a blank type are skipped. Commas are
// replaced by spaces in types and values, and colons in types, so the result
// always parses back into the same items.
func SerializeComplements(items []ComplementItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		t := scrub(item.Type, ",:")
		if t == "" {
			continue
		}
		v := scrub(item.Value, ",")
		if v == "" {
			parts = append(parts, t)
			continue
		}
		parts = append(parts, t+complementKVSep+v)
	}
	return strings.Join(parts, complementSeparator)
}

// scrub replaces every rune of chars with a space and collapses whitespace.
func scrub(s, chars string) string {
	return strings.Join(strings.Fields(strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return ' '
		}
		return r
	}, s)), " ")
}

// ParseComplements is the inverse of SerializeComplements. Segments without a
// colon become type-only items.
func ParseComplements(s string) []ComplementItem {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var items []ComplementItem
	for _, segment := range strings.Split(s, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		t, v, found := strings.Cut(segment, ":")
		if !found {
			items = append(items, ComplementItem{Type: segment})
			continue
		}
		items = append(items, ComplementItem{
			Type:  strings.TrimSpace(t),
			Value: strings.TrimSpace(v),
		})
	}
	return items
}
