package salescrm

import "errors"

var ErrForbidden = errors.New("not allowed for this role")

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   Role
}

// Manages reports whether the actor may create, edit, assign and delete
// leads and the supporting records.
func (a Actor) Manages() bool {
	return a.Role == RoleOwner || a.Role == RoleManager
}

// CanView reports whether the actor may read the lead.
func (a Actor) CanView(l Lead) bool {
	return a.Manages() || l.Assigned(a.UserID)
}

// CanWork reports whether the actor may change the status of the lead, log
// activities on it, or mark it as contacted.
func (a Actor) CanWork(l Lead) bool {
	return a.Manages() || (a.Role == RoleSalesman && l.Assigned(a.UserID))
}

// ScopeFilter restricts f to what the actor is allowed to see. Salesmen only
// ever see leads assigned to them, whatever they asked for.
func ScopeFilter(a Actor, f LeadFilter) LeadFilter {
	if !a.Manages() {
		f.AssignedTo = a.UserID
	}
	return f
}
