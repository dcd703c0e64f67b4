package directory

import "context"

// PersonSource is the read side of the directory service. Implementations
// return (nil, nil) when no person owns the token.
type PersonSource interface {
	PersonByToken(ctx context.Context, token string) (*Person, error)
	PersonByID(ctx context.Context, id string) (*Person, error)
	ListActive(ctx context.Context, filter RoleClassSet) ([]Person, error)
}

// PeriodSource lists the currently active school periods. The engine
// requires exactly one; enforcing that is the caller's job so tests can
// inject arbitrary period sets.
type PeriodSource interface {
	ActivePeriods(ctx context.Context) ([]SchoolPeriod, error)
}

// Resolver maps a scanned token to a person and the attendance policy for
// their role class. Pure read, no side effects.
type Resolver struct {
	people   PersonSource
	policies PolicyTable
}

// NewResolver creates a resolver over a person source and policy table.
func NewResolver(people PersonSource, policies PolicyTable) *Resolver {
	return &Resolver{people: people, policies: policies}
}

// Resolve looks up the owner of token and checks them against the allowed
// role classes. An unknown token is ErrIdentityNotFound; a known token on
// an inactive or out-of-class person is RoleNotAuthorizedError, so the
// operator diagnostic can distinguish a typo from the wrong station.
func (r *Resolver) Resolve(ctx context.Context, token string, allowed RoleClassSet) (*Person, Policy, error) {
	person, err := r.people.PersonByToken(ctx, token)
	if err != nil {
		return nil, Policy{}, err
	}
	if person == nil {
		return nil, Policy{}, ErrIdentityNotFound
	}
	if !person.Active {
		return nil, Policy{}, &RoleNotAuthorizedError{PersonID: person.ID, RoleClass: person.RoleClass, Inactive: true}
	}
	if !allowed.Allows(person.RoleClass) {
		return nil, Policy{}, &RoleNotAuthorizedError{PersonID: person.ID, RoleClass: person.RoleClass}
	}
	return person, r.policies.Lookup(person.RoleClass), nil
}
