package domain

// Decision is the outcome of an access guard check.
type Decision int

const (
	Allow Decision = iota
	DenyNotLoggedIn
	DenyInsufficientRole
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyNotLoggedIn:
		return "deny_not_logged_in"
	case DenyInsufficientRole:
		return "deny_insufficient_role"
	default:
		return "unknown"
	}
}

// Message is the fallback text shown in place of protected content.
func (d Decision) Message() string {
	switch d {
	case Allow:
		return ""
	case DenyNotLoggedIn:
		return "Please login to view this section."
	default:
		return "You do not have permission to access this section."
	}
}
