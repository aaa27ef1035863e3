package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/team"
	"github.com/uplora/uplora/internal/workflow"
)

var allStatuses = []content.Status{
	"",
	content.StatusDraft,
	content.StatusProcessing,
	content.StatusReady,
	content.StatusPending,
	content.StatusApproved,
	content.StatusPublished,
	content.StatusScheduled,
}

var allRoles = []team.Role{
	team.RoleOwner,
	team.RoleAdmin,
	team.RoleManager,
	team.RoleEditor,
}

var allActions = []workflow.Action{
	workflow.ActionMarkReady,
	workflow.ActionRequestApproval,
	workflow.ActionApprove,
	workflow.ActionPublish,
	workflow.ActionRevert,
}

// --- Decide Tests ---

func TestDecide_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     content.Status
		role        team.Role
		teamContent bool
		action      workflow.Action
		wantAllowed bool
		wantNext    content.Status
		wantReason  string
	}{
		// markReady
		{"editor marks processing ready", content.StatusProcessing, team.RoleEditor, true, workflow.ActionMarkReady, true, content.StatusReady, ""},
		{"manager marks processing ready", content.StatusProcessing, team.RoleManager, true, workflow.ActionMarkReady, true, content.StatusReady, ""},
		{"editor marks draft ready", content.StatusDraft, team.RoleEditor, true, workflow.ActionMarkReady, true, content.StatusReady, ""},
		{"editor marks unset status ready", "", team.RoleEditor, true, workflow.ActionMarkReady, true, content.StatusReady, ""},
		{"owner cannot mark ready", content.StatusProcessing, team.RoleOwner, true, workflow.ActionMarkReady, false, "", workflow.ReasonRoleNotPermitted},
		{"admin cannot mark ready", content.StatusProcessing, team.RoleAdmin, true, workflow.ActionMarkReady, false, "", workflow.ReasonRoleNotPermitted},
		{"mark ready denied on personal content", content.StatusProcessing, team.RoleEditor, false, workflow.ActionMarkReady, false, "", workflow.ReasonRoleNotPermitted},
		{"mark ready denied from pending", content.StatusPending, team.RoleEditor, true, workflow.ActionMarkReady, false, "", workflow.ReasonInvalidSource},
		{"mark ready denied from published", content.StatusPublished, team.RoleManager, true, workflow.ActionMarkReady, false, "", workflow.ReasonInvalidSource},

		// requestApproval
		{"editor requests approval from ready", content.StatusReady, team.RoleEditor, true, workflow.ActionRequestApproval, true, content.StatusPending, ""},
		{"manager requests approval from ready", content.StatusReady, team.RoleManager, true, workflow.ActionRequestApproval, true, content.StatusPending, ""},
		{"owner cannot request approval", content.StatusReady, team.RoleOwner, true, workflow.ActionRequestApproval, false, "", workflow.ReasonRoleNotPermitted},
		{"request approval denied from draft", content.StatusDraft, team.RoleEditor, true, workflow.ActionRequestApproval, false, "", workflow.ReasonInvalidSource},
		{"request approval denied from pending", content.StatusPending, team.RoleEditor, true, workflow.ActionRequestApproval, false, "", workflow.ReasonInvalidSource},

		// approve
		{"owner approves pending", content.StatusPending, team.RoleOwner, true, workflow.ActionApprove, true, content.StatusApproved, ""},
		{"admin approves pending", content.StatusPending, team.RoleAdmin, true, workflow.ActionApprove, true, content.StatusApproved, ""},
		{"manager cannot approve", content.StatusPending, team.RoleManager, true, workflow.ActionApprove, false, "", workflow.ReasonRoleNotPermitted},
		{"editor cannot approve", content.StatusPending, team.RoleEditor, true, workflow.ActionApprove, false, "", workflow.ReasonRoleNotPermitted},
		{"approve denied from ready", content.StatusReady, team.RoleOwner, true, workflow.ActionApprove, false, "", workflow.ReasonInvalidSource},

		// publish
		{"owner publishes draft directly", content.StatusDraft, team.RoleOwner, true, workflow.ActionPublish, true, content.StatusPublished, ""},
		{"owner publishes approved", content.StatusApproved, team.RoleOwner, true, workflow.ActionPublish, true, content.StatusPublished, ""},
		{"admin publishes pending directly", content.StatusPending, team.RoleAdmin, true, workflow.ActionPublish, true, content.StatusPublished, ""},
		{"manager publishes approved", content.StatusApproved, team.RoleManager, true, workflow.ActionPublish, true, content.StatusPublished, ""},
		{"manager cannot publish unapproved", content.StatusReady, team.RoleManager, true, workflow.ActionPublish, false, "", workflow.ReasonRoleNotPermitted},
		{"editor cannot publish", content.StatusApproved, team.RoleEditor, true, workflow.ActionPublish, false, "", workflow.ReasonRoleNotPermitted},
		{"publish denied when already published", content.StatusPublished, team.RoleOwner, true, workflow.ActionPublish, false, "", workflow.ReasonInvalidSource},
		{"personal owner publishes draft", content.StatusDraft, team.RoleOwner, false, workflow.ActionPublish, true, content.StatusPublished, ""},

		// revertToProcessing
		{"owner reverts pending", content.StatusPending, team.RoleOwner, true, workflow.ActionRevert, true, content.StatusProcessing, ""},
		{"admin cannot revert", content.StatusPending, team.RoleAdmin, true, workflow.ActionRevert, false, "", workflow.ReasonRoleNotPermitted},
		{"manager cannot revert", content.StatusPending, team.RoleManager, true, workflow.ActionRevert, false, "", workflow.ReasonRoleNotPermitted},
		{"revert denied from approved", content.StatusApproved, team.RoleOwner, true, workflow.ActionRevert, false, "", workflow.ReasonInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := workflow.Decide(tt.current, tt.role, tt.teamContent, tt.action)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			if tt.wantAllowed {
				assert.Equal(t, tt.wantNext, d.Next)
				assert.Empty(t, d.Reason)
			} else {
				assert.Empty(t, d.Next)
				assert.Equal(t, tt.wantReason, d.Reason)
			}
		})
	}
}

// Every combination of status, role, content kind and action must produce a
// decision: allowed with a next status, or denied with a reason. Never both,
// never neither.
func TestDecide_Total(t *testing.T) {
	t.Parallel()

	for _, st := range allStatuses {
		for _, role := range allRoles {
			for _, teamContent := range []bool{true, false} {
				for _, action := range allActions {
					d := workflow.Decide(st, role, teamContent, action)
					if d.Allowed {
						assert.NotEmpty(t, d.Next, "allowed decision missing next status: %s/%s/%v/%s", st, role, teamContent, action)
						assert.Empty(t, d.Reason)
					} else {
						assert.NotEmpty(t, d.Reason, "denied decision missing reason: %s/%s/%v/%s", st, role, teamContent, action)
						assert.Empty(t, d.Next)
					}
				}
			}
		}
	}
}

func TestDecide_UnknownAction(t *testing.T) {
	t.Parallel()

	d := workflow.Decide(content.StatusDraft, team.RoleOwner, true, workflow.Action("promote"))
	assert.False(t, d.Allowed)
	assert.Equal(t, workflow.ReasonRoleNotPermitted, d.Reason)
}

// Walks a team item through the full pipeline: an editor marks it ready and
// requests approval, the owner approves and publishes.
func TestWorkflow_HappyPath(t *testing.T) {
	t.Parallel()

	steps := []struct {
		role team.Role
		act  workflow.Action
		next content.Status
	}{
		{team.RoleEditor, workflow.ActionMarkReady, content.StatusReady},
		{team.RoleEditor, workflow.ActionRequestApproval, content.StatusPending},
		{team.RoleOwner, workflow.ActionApprove, content.StatusApproved},
		{team.RoleOwner, workflow.ActionPublish, content.StatusPublished},
	}

	st := content.StatusProcessing
	for _, step := range steps {
		d := workflow.Decide(st, step.role, true, step.act)
		require.True(t, d.Allowed, "%s as %s from %s: %s", step.act, step.role, st, d.Reason)
		require.Equal(t, step.next, d.Next)
		st = d.Next
	}
}

// An editor locked out of a pending item regains edit access once the owner
// reverts it to processing.
func TestWorkflow_RevertUnlocksEditing(t *testing.T) {
	t.Parallel()

	require.False(t, workflow.CanEdit(content.StatusPending, team.RoleEditor))

	d := workflow.Decide(content.StatusPending, team.RoleOwner, true, workflow.ActionRevert)
	require.True(t, d.Allowed)
	require.Equal(t, content.StatusProcessing, d.Next)

	assert.True(t, workflow.CanEdit(d.Next, team.RoleEditor))
}

// --- ValidAction Tests ---

func TestValidAction(t *testing.T) {
	t.Parallel()

	for _, a := range allActions {
		assert.True(t, workflow.ValidAction(string(a)))
	}
	assert.False(t, workflow.ValidAction("promote"))
	assert.False(t, workflow.ValidAction(""))
}

// --- CanEdit Tests ---

func TestCanEdit_EditorLockedWhilePending(t *testing.T) {
	t.Parallel()

	assert.False(t, workflow.CanEdit(content.StatusPending, team.RoleEditor))
}

func TestCanEdit_OtherRolesEditPending(t *testing.T) {
	t.Parallel()

	assert.True(t, workflow.CanEdit(content.StatusPending, team.RoleOwner))
	assert.True(t, workflow.CanEdit(content.StatusPending, team.RoleAdmin))
	assert.True(t, workflow.CanEdit(content.StatusPending, team.RoleManager))
}

func TestCanEdit_EditorEditsOtherStatuses(t *testing.T) {
	t.Parallel()

	for _, st := range allStatuses {
		if st == content.StatusPending {
			continue
		}
		assert.True(t, workflow.CanEdit(st, team.RoleEditor), "status %s", st)
	}
}
