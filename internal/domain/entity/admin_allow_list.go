package entity

import (
	"sort"
	"strings"
)

// AdminAllowList is an immutable set of normalised admin emails.
// It is built once at start-up and shared read-only.
type AdminAllowList struct {
	emails map[string]struct{}
}

// NewAdminAllowList builds an allow-list from individual email entries
func NewAdminAllowList(emails []string) AdminAllowList {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return AdminAllowList{emails: set}
}

// ParseAdminAllowList builds an allow-list from a comma-separated string
func ParseAdminAllowList(raw string) AdminAllowList {
	return NewAdminAllowList(strings.Split(raw, ","))
}

// Contains reports exact membership of the normalised email
func (l AdminAllowList) Contains(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}
	_, ok := l.emails[normalized]
	return ok
}

// Len returns the number of admin emails
func (l AdminAllowList) Len() int {
	return len(l.emails)
}

// Emails returns the members in sorted order
func (l AdminAllowList) Emails() []string {
	out := make([]string, 0, len(l.emails))
	for email := range l.emails {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}
