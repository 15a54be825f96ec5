package domain

// Status is the account approval state. It gates login: only approved
// accounts may authenticate. Transitions are applied by admin tooling or the
// bootstrap flow; this service otherwise only reads the status.
type Status string

const (
	// StatusPending is the initial state, awaiting admin approval.
	StatusPending Status = "pending"

	// StatusAgePending marks accounts awaiting age verification in
	// jurisdictions that require it. For the login gate it behaves like
	// pending.
	StatusAgePending Status = "age_pending"

	// StatusApproved allows login.
	StatusApproved Status = "approved"

	// StatusSuspended blocks login until an admin reapproves.
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAgePending, StatusApproved, StatusSuspended:
		return true
	}
	return false
}

// CanLogin reports whether the account status permits authentication.
func (s Status) CanLogin() bool {
	return s == StatusApproved
}

// CanTransition reports whether moving from s to next is a legal
// administrative transition:
//
//	pending/age_pending -> approved | suspended
//	approved            -> suspended
//	suspended           -> approved
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusPending, StatusAgePending:
		return next == StatusApproved || next == StatusSuspended
	case StatusApproved:
		return next == StatusSuspended
	case StatusSuspended:
		return next == StatusApproved
	}
	return false
}
