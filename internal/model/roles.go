package model

import "strings"

// RoleMap maps HTML tag names and ARIA roles to compact role codes.
var RoleMap = map[string]string{
	"button":           "btn",
	"summary":          "btn",
	"a":                "lnk",
	"link":             "lnk",
	"input":            "input",
	"textarea":         "input",
	"textbox":          "input",
	"checkbox":         "chk",
	"switch":           "toggle",
	"radio":            "radio",
	"menuitem":         "menuitem",
	"menuitemcheckbox": "menuitem",
	"menuitemradio":    "menuitem",
	"tab":              "tab",
	"option":           "option",
	"img":              "img",
	"image":            "img",
}

// MetaRoles maps meta-role names to the concrete roles they expand to.
// "pressable" covers everything a click is expected to activate.
var MetaRoles = map[string][]string{
	"pressable": {"btn", "lnk", "menuitem", "tab", "chk", "radio", "toggle"},
}

// ExpandRoles expands any meta-roles in the given list to their concrete roles.
// Non-meta roles are passed through unchanged. Duplicates are removed.
func ExpandRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	var expanded []string
	for _, r := range roles {
		if concrete, ok := MetaRoles[r]; ok {
			for _, c := range concrete {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			expanded = append(expanded, r)
		}
	}
	return expanded
}

// MapRole converts a raw tag name or ARIA role to a compact code. An
// explicit ARIA role wins over the tag.
func MapRole(tag, ariaRole string) string {
	if short, ok := RoleMap[strings.ToLower(ariaRole)]; ok {
		return short
	}
	if short, ok := RoleMap[strings.ToLower(tag)]; ok {
		return short
	}
	return "other"
}

// ParseRoles splits a comma separated role list, trimming blanks.
func ParseRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// RoleSet builds a lookup set from a role list after meta-role expansion.
// An empty list yields a nil set, which matches every role.
func RoleSet(roles []string) map[string]bool {
	if len(roles) == 0 {
		return nil
	}
	set := make(map[string]bool)
	for _, r := range ExpandRoles(roles) {
		set[r] = true
	}
	return set
}

// MatchesRoles reports whether role is in set. A nil set matches anything.
func MatchesRoles(set map[string]bool, role string) bool {
	return set == nil || set[role]
}
