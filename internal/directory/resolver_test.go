package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPeople struct {
	people map[string]Person
}

func (s *stubPeople) PersonByToken(ctx context.Context, token string) (*Person, error) {
	if p, ok := s.people[token]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *stubPeople) PersonByID(ctx context.Context, id string) (*Person, error) { return nil, nil }

func (s *stubPeople) ListActive(ctx context.Context, filter RoleClassSet) ([]Person, error) {
	return nil, nil
}

func newStubResolver() *Resolver {
	return NewResolver(&stubPeople{people: map[string]Person{
		"tok-teacher": {ID: "p-1", RoleClass: RoleTeacher, Active: true, QRToken: "tok-teacher"},
		"tok-acct":    {ID: "p-2", RoleClass: RoleAccountant, Active: true, QRToken: "tok-acct"},
		"tok-idle":    {ID: "p-3", RoleClass: RoleTeacher, Active: false, QRToken: "tok-idle"},
	}}, DefaultPolicyTable())
}

func TestResolve_UnknownTokenIsNotFound(t *testing.T) {
	r := newStubResolver()
	_, _, err := r.Resolve(context.Background(), "tok-missing", nil)
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestResolve_WrongRoleClassIsNotAuthorized(t *testing.T) {
	r := newStubResolver()
	_, _, err := r.Resolve(context.Background(), "tok-acct", NewRoleClassSet(RoleTeacher))

	var roleErr *RoleNotAuthorizedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, RoleAccountant, roleErr.RoleClass)
	assert.False(t, roleErr.Inactive)
	// The two failure kinds stay distinguishable.
	assert.False(t, errors.Is(err, ErrIdentityNotFound))
}

func TestResolve_InactivePersonIsNotAuthorized(t *testing.T) {
	r := newStubResolver()
	_, _, err := r.Resolve(context.Background(), "tok-idle", nil)

	var roleErr *RoleNotAuthorizedError
	require.ErrorAs(t, err, &roleErr)
	assert.True(t, roleErr.Inactive)
}

func TestResolve_SuccessReturnsClassPolicy(t *testing.T) {
	r := newStubResolver()

	person, policy, err := r.Resolve(context.Background(), "tok-teacher", NewRoleClassSet(RoleTeacher))
	require.NoError(t, err)
	assert.Equal(t, "p-1", person.ID)
	assert.Equal(t, DefaultPolicyTable()[RoleTeacher], policy)

	// Empty set allows every class.
	_, policy, err = r.Resolve(context.Background(), "tok-acct", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicyTable()[RoleAccountant], policy)
}
