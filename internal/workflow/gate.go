// Package workflow encodes the content publishing policy: which team role may
// move an item between workflow statuses, and when editing is locked.
package workflow

import (
	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/team"
)

// Action is a requested workflow transition.
type Action string

// Workflow actions.
const (
	ActionMarkReady       Action = "markReady"
	ActionRequestApproval Action = "requestApproval"
	ActionApprove         Action = "approve"
	ActionPublish         Action = "publish"
	ActionRevert          Action = "revertToProcessing"
)

// ValidAction reports whether s names a known workflow action.
func ValidAction(s string) bool {
	switch Action(s) {
	case ActionMarkReady, ActionRequestApproval, ActionApprove, ActionPublish, ActionRevert:
		return true
	}
	return false
}

// Denial reasons. These are stable strings surfaced to clients.
const (
	ReasonRoleNotPermitted = "role not permitted for this transition"
	ReasonInvalidSource    = "invalid source status"
)

// Decision is the outcome of a gate check: either the transition is allowed
// and Next holds the candidate status, or it is denied with a reason.
// The server may still return a different authoritative status (approve can
// land on PUBLISHED); Next is the client's optimistic guess.
type Decision struct {
	Allowed bool
	Next    content.Status
	Reason  string
}

func allowed(next content.Status) Decision {
	return Decision{Allowed: true, Next: next}
}

func denied(reason string) Decision {
	return Decision{Reason: reason}
}

// Decide returns whether the actor with the given role may perform action on
// an item in the given status. For personal (non-team) content the creator
// acts as OWNER; callers pass isTeamContent=false and the creator's implied
// role. Decide is pure and total: every input yields exactly one Decision.
func Decide(current content.Status, role team.Role, isTeamContent bool, action Action) Decision {
	switch action {
	case ActionMarkReady:
		// Only team content passes through the PROCESSING/READY stages.
		if !isTeamContent {
			return denied(ReasonRoleNotPermitted)
		}
		if role != team.RoleEditor && role != team.RoleManager {
			return denied(ReasonRoleNotPermitted)
		}
		if current != content.StatusProcessing && current != content.StatusDraft && current != "" {
			return denied(ReasonInvalidSource)
		}
		return allowed(content.StatusReady)

	case ActionRequestApproval:
		if role != team.RoleEditor && role != team.RoleManager {
			return denied(ReasonRoleNotPermitted)
		}
		if current != content.StatusReady {
			return denied(ReasonInvalidSource)
		}
		return allowed(content.StatusPending)

	case ActionApprove:
		if role != team.RoleOwner && role != team.RoleAdmin {
			return denied(ReasonRoleNotPermitted)
		}
		if current != content.StatusPending {
			return denied(ReasonInvalidSource)
		}
		// The server may answer APPROVED or PUBLISHED; APPROVED is the guess.
		return allowed(content.StatusApproved)

	case ActionPublish:
		switch role {
		case team.RoleOwner, team.RoleAdmin:
		case team.RoleManager:
			if current != content.StatusApproved {
				return denied(ReasonRoleNotPermitted)
			}
		default:
			return denied(ReasonRoleNotPermitted)
		}
		if current == content.StatusPublished {
			return denied(ReasonInvalidSource)
		}
		return allowed(content.StatusPublished)

	case ActionRevert:
		if role != team.RoleOwner {
			return denied(ReasonRoleNotPermitted)
		}
		if current != content.StatusPending {
			return denied(ReasonInvalidSource)
		}
		return allowed(content.StatusProcessing)
	}

	return denied(ReasonRoleNotPermitted)
}

// CanEdit reports whether field edits are permitted for the given status and
// role. While an item awaits approval, editors are locked out entirely.
func CanEdit(status content.Status, role team.Role) bool {
	return !(status == content.StatusPending && role == team.RoleEditor)
}
