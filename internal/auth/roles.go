package auth

import "strings"

// PlatformRole is a global rank attached to every user account, independent
// of any expert scope.
type PlatformRole string

const (
	PlatformRoleUser      PlatformRole = "user"
	PlatformRoleModerator PlatformRole = "moderator"
	PlatformRoleAdmin     PlatformRole = "admin"
	PlatformRoleOwner     PlatformRole = "owner"
)

// ExpertRole ranks a user inside one expert scope. The two hierarchies never
// compose: a platform owner holds no implicit expert role and vice versa.
type ExpertRole string

const (
	ExpertRoleSupport  ExpertRole = "support"
	ExpertRoleReviewer ExpertRole = "reviewer"
	ExpertRoleManager  ExpertRole = "manager"
	ExpertRoleOwner    ExpertRole = "owner"
)

var platformRanks = map[PlatformRole]int{
	PlatformRoleUser:      0,
	PlatformRoleModerator: 1,
	PlatformRoleAdmin:     2,
	PlatformRoleOwner:     3,
}

var expertRanks = map[ExpertRole]int{
	ExpertRoleSupport:  0,
	ExpertRoleReviewer: 1,
	ExpertRoleManager:  2,
	ExpertRoleOwner:    3,
}

// Allows reports whether the role satisfies the required rank. An
// unrecognized actual role ranks below every requirement, an unrecognized
// required role falls back to the lowest rank: unknown input always fails
// closed.
func (r PlatformRole) Allows(required PlatformRole) bool {
	actual, ok := platformRanks[r]
	if !ok {
		actual = -1
	}
	want, ok := platformRanks[required]
	if !ok {
		want = 0
	}
	return actual >= want
}

// Valid reports whether the role is one of the known platform ranks.
func (r PlatformRole) Valid() bool {
	_, ok := platformRanks[r]
	return ok
}

// Allows reports whether the expert-scoped role satisfies the required rank,
// failing closed on unknown input.
func (r ExpertRole) Allows(required ExpertRole) bool {
	actual, ok := expertRanks[r]
	if !ok {
		actual = -1
	}
	want, ok := expertRanks[required]
	if !ok {
		want = 0
	}
	return actual >= want
}

// Valid reports whether the role is one of the known expert ranks.
func (r ExpertRole) Valid() bool {
	_, ok := expertRanks[r]
	return ok
}

// ParsePlatformRole normalizes a stored or user-supplied role string.
func ParsePlatformRole(raw string) (PlatformRole, bool) {
	role := PlatformRole(strings.TrimSpace(strings.ToLower(raw)))
	return role, role.Valid()
}

// ParseExpertRole normalizes a stored or user-supplied role string.
func ParseExpertRole(raw string) (ExpertRole, bool) {
	role := ExpertRole(strings.TrimSpace(strings.ToLower(raw)))
	return role, role.Valid()
}
