package entity

// OpportunityAction is a user action offered on an opportunity card.
type OpportunityAction string

const (
	ActionReview        OpportunityAction = "review"
	ActionApprove       OpportunityAction = "approve"
	ActionReject        OpportunityAction = "reject"
	ActionRefine        OpportunityAction = "refine"
	ActionDraftOutreach OpportunityAction = "draft_outreach"
	ActionSend          OpportunityAction = "send"
	ActionExport        OpportunityAction = "export"
	ActionViewSent      OpportunityAction = "view_sent"
	ActionResend        OpportunityAction = "resend"
	ActionUnsnooze      OpportunityAction = "unsnooze"
	ActionSnooze        OpportunityAction = "snooze"
	ActionDelete        OpportunityAction = "delete"
)

// Ordered per status. Never derive actions from anything else.
var statusActions = map[DisplayStatus][]OpportunityAction{
	DisplayNew:           {ActionReview, ActionSnooze, ActionDelete},
	DisplayInReview:      {ActionApprove, ActionReject, ActionRefine, ActionSnooze},
	DisplayApproved:      {ActionDraftOutreach, ActionSnooze, ActionReject},
	DisplayOutreachReady: {ActionSend, ActionExport, ActionSnooze},
	DisplaySent:          {ActionViewSent, ActionResend, ActionSnooze},
	DisplaySnoozed:       {ActionUnsnooze, ActionDelete},
	DisplayRejected:      {ActionDelete},
	DisplayError:         {ActionResend, ActionDelete},
}

// AvailableActions returns the actions permitted for status, in display
// order. The result is a copy; an unknown status yields an empty list.
func AvailableActions(status DisplayStatus) []OpportunityAction {
	actions, ok := statusActions[status]
	if !ok {
		return []OpportunityAction{}
	}
	out := make([]OpportunityAction, len(actions))
	copy(out, actions)
	return out
}

// IsActionAllowed reports whether action is offered for status.
func IsActionAllowed(status DisplayStatus, action OpportunityAction) bool {
	for _, a := range statusActions[status] {
		if a == action {
			return true
		}
	}
	return false
}

// Emphasis is the visual weight of an action button.
type Emphasis string

const (
	EmphasisFilled Emphasis = "filled"
	EmphasisLight  Emphasis = "light"
	EmphasisSubtle Emphasis = "subtle"
)

// ActionPresentation is render-only metadata for an action button.
type ActionPresentation struct {
	Label    string   `json:"label"`
	Emphasis Emphasis `json:"emphasis"`
	Color    string   `json:"color"`
}

var actionPresentations = map[OpportunityAction]ActionPresentation{
	ActionReview:        {Label: "Review", Emphasis: EmphasisFilled, Color: "blue"},
	ActionApprove:       {Label: "Approve", Emphasis: EmphasisFilled, Color: "green"},
	ActionReject:        {Label: "Reject", Emphasis: EmphasisLight, Color: "red"},
	ActionRefine:        {Label: "Request Refinement", Emphasis: EmphasisLight, Color: "orange"},
	ActionDraftOutreach: {Label: "Draft Outreach", Emphasis: EmphasisFilled, Color: "cyan"},
	ActionSend:          {Label: "Send", Emphasis: EmphasisFilled, Color: "teal"},
	ActionExport:        {Label: "Export", Emphasis: EmphasisLight, Color: "gray"},
	ActionViewSent:      {Label: "View Sent", Emphasis: EmphasisLight, Color: "teal"},
	ActionResend:        {Label: "Resend", Emphasis: EmphasisLight, Color: "orange"},
	ActionUnsnooze:      {Label: "Unsnooze", Emphasis: EmphasisFilled, Color: "blue"},
	ActionSnooze:        {Label: "Snooze", Emphasis: EmphasisLight, Color: "gray"},
	ActionDelete:        {Label: "Delete", Emphasis: EmphasisSubtle, Color: "red"},
}

// ActionPresentationFor returns the button metadata for action.
func ActionPresentationFor(action OpportunityAction) ActionPresentation {
	if p, ok := actionPresentations[action]; ok {
		return p
	}
	return ActionPresentation{Label: string(action), Emphasis: EmphasisSubtle, Color: "gray"}
}
