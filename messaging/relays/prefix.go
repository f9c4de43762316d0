package relays

import "strings"

// Machine-readable prefixes relays attach to OK reasons.
const (
	PrefixAuthRequired = "auth-required"
	PrefixRateLimited  = "rate-limited"
	PrefixDuplicate    = "duplicate"
	PrefixBlocked      = "blocked"
	PrefixRestricted   = "restricted"
	PrefixInvalid      = "invalid"
	PrefixError        = "error"
	PrefixPow          = "pow"
)

// ParsePrefix extracts the machine-readable prefix from an OK reason, or ""
// when the reason carries none.
func ParsePrefix(reason string) string {
	head, _, found := strings.Cut(reason, ":")
	if !found {
		return ""
	}
	switch head {
	case PrefixAuthRequired, PrefixRateLimited, PrefixDuplicate, PrefixBlocked,
		PrefixRestricted, PrefixInvalid, PrefixError, PrefixPow:
		return head
	}
	return ""
}
