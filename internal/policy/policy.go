// Package policy is the single role-permission table consulted before
// any state mutation. Read actions are not gated here; they are allowed
// to any authenticated role. New action/resource pairs must be added to
// the table, never inlined at call sites.
package policy

import "campus-api/internal/domain"

// Action is a mutation verb gated by the policy table
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionCancel  Action = "cancel"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCast    Action = "cast"
	ActionManage  Action = "manage"
)

// Resource is the kind of aggregate an action targets
type Resource string

const (
	ResourceElection  Resource = "election"
	ResourceCandidate Resource = "candidate"
	ResourceVote      Resource = "vote"
	ResourceBooking   Resource = "booking"
	ResourceFacility  Resource = "facility"
)

type permission struct {
	action   Action
	resource Resource
}

// grants enumerates every allowed (role, action, resource) triple.
// Anything absent is denied.
var grants = map[domain.Role]map[permission]bool{
	domain.RoleStudent: {
		{ActionCreate, ResourceCandidate}: true,
		{ActionCast, ResourceVote}:        true,
		{ActionCreate, ResourceBooking}:   true,
		{ActionCancel, ResourceBooking}:   true,
	},
	domain.RoleFaculty: {
		{ActionCreate, ResourceCandidate}:  true,
		{ActionApprove, ResourceCandidate}: true,
		{ActionReject, ResourceCandidate}:  true,
		{ActionCast, ResourceVote}:         true,
		{ActionCreate, ResourceBooking}:    true,
		{ActionCancel, ResourceBooking}:    true,
		{ActionManage, ResourceBooking}:    true,
	},
	domain.RoleAdmin: {
		{ActionCreate, ResourceElection}:   true,
		{ActionUpdate, ResourceElection}:   true,
		{ActionCancel, ResourceElection}:   true,
		{ActionDelete, ResourceElection}:   true,
		{ActionCreate, ResourceCandidate}:  true,
		{ActionApprove, ResourceCandidate}: true,
		{ActionReject, ResourceCandidate}:  true,
		{ActionCast, ResourceVote}:         true,
		{ActionCreate, ResourceBooking}:    true,
		{ActionCancel, ResourceBooking}:    true,
		{ActionManage, ResourceBooking}:    true,
		{ActionCreate, ResourceFacility}:   true,
		{ActionUpdate, ResourceFacility}:   true,
		{ActionDelete, ResourceFacility}:   true,
	},
}

// CanPerform reports whether the role may perform the action on the
// resource kind. Pure, total, deny-by-default: unknown roles, actions
// and resources all yield false, never an error.
func CanPerform(role domain.Role, action Action, resource Resource) bool {
	return grants[role][permission{action, resource}]
}
