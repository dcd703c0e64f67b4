package directory

import (
	"errors"
	"fmt"
)

// RoleClass is the closed set of staff categories the engine recognises.
// It governs which attendance policy applies and which scan stations may
// record events for the person.
type RoleClass string

const (
	RoleTeacher       RoleClass = "teacher"
	RoleSupervisor    RoleClass = "supervisor"
	RoleAccountant    RoleClass = "accountant"
	RoleAdministrator RoleClass = "administrator"
)

// AllRoleClasses lists every known role class.
func AllRoleClasses() []RoleClass {
	return []RoleClass{RoleTeacher, RoleSupervisor, RoleAccountant, RoleAdministrator}
}

// ParseRoleClass validates a role class string.
func ParseRoleClass(s string) (RoleClass, error) {
	rc := RoleClass(s)
	switch rc {
	case RoleTeacher, RoleSupervisor, RoleAccountant, RoleAdministrator:
		return rc, nil
	}
	return "", fmt.Errorf("unknown role class %q", s)
}

// RoleClassSet is a set of role classes. An empty set means "any".
type RoleClassSet map[RoleClass]struct{}

// NewRoleClassSet builds a set from the given classes.
func NewRoleClassSet(classes ...RoleClass) RoleClassSet {
	set := make(RoleClassSet, len(classes))
	for _, rc := range classes {
		set[rc] = struct{}{}
	}
	return set
}

// Allows reports whether the set permits the given class.
func (s RoleClassSet) Allows(rc RoleClass) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[rc]
	return ok
}

// Person is a directory record. The directory service owns these rows;
// this engine only reads them.
type Person struct {
	ID        string
	FullName  string
	RoleClass RoleClass
	Active    bool
	QRToken   string
}

// SchoolPeriod is the academic-year context an event belongs to.
type SchoolPeriod struct {
	ID       string
	Name     string
	StartsOn string
	EndsOn   string
}

// ErrIdentityNotFound means no person, active or not, owns the scanned token.
var ErrIdentityNotFound = errors.New("identity not found")

// RoleNotAuthorizedError means the token resolved to a person but the
// person cannot be recorded here: wrong role class for this station, or an
// inactive record. Distinct from ErrIdentityNotFound so operators know the
// token itself is fine.
type RoleNotAuthorizedError struct {
	PersonID  string
	RoleClass RoleClass
	Inactive  bool
}

func (e *RoleNotAuthorizedError) Error() string {
	if e.Inactive {
		return fmt.Sprintf("person %s is inactive", e.PersonID)
	}
	return fmt.Sprintf("role class %s not authorized for this scan", e.RoleClass)
}

// ErrRoleNotAuthorized is the sentinel for errors.Is checks.
var ErrRoleNotAuthorized = errors.New("role not authorized")

func (e *RoleNotAuthorizedError) Unwrap() error { return ErrRoleNotAuthorized }
