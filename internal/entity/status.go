package entity

import "time"

// LifecycleStatus is the opportunity status as stored by the backend pipeline.
type LifecycleStatus string

const (
	LifecycleDraft               LifecycleStatus = "draft"
	LifecyclePendingReview       LifecycleStatus = "pending_review"
	LifecycleApproved            LifecycleStatus = "approved"
	LifecycleActivationRequested LifecycleStatus = "activation_requested"
	LifecycleActivated           LifecycleStatus = "activated"
	LifecycleRejected            LifecycleStatus = "rejected"
	LifecycleNeedsMoreEvidence   LifecycleStatus = "needs_more_evidence"
	LifecycleActivationFailed    LifecycleStatus = "activation_failed"
	LifecycleActivationPartial   LifecycleStatus = "activation_partial"
)

// IsValid reports whether s is one of the known lifecycle statuses.
func (s LifecycleStatus) IsValid() bool {
	_, ok := lifecycleToDisplay[s]
	return ok
}

// DisplayStatus is the reduced status shown on the opportunity board.
type DisplayStatus string

const (
	DisplayNew           DisplayStatus = "new"
	DisplayInReview      DisplayStatus = "in_review"
	DisplayApproved      DisplayStatus = "approved"
	DisplayOutreachReady DisplayStatus = "outreach_ready"
	DisplaySent          DisplayStatus = "sent"
	DisplaySnoozed       DisplayStatus = "snoozed"
	DisplayRejected      DisplayStatus = "rejected"
	DisplayError         DisplayStatus = "error"
)

// DisplayStatuses lists every display status in board order.
var DisplayStatuses = []DisplayStatus{
	DisplayNew,
	DisplayInReview,
	DisplayApproved,
	DisplayOutreachReady,
	DisplaySent,
	DisplaySnoozed,
	DisplayRejected,
	DisplayError,
}

var lifecycleToDisplay = map[LifecycleStatus]DisplayStatus{
	LifecycleDraft:               DisplayNew,
	LifecyclePendingReview:       DisplayInReview,
	LifecycleApproved:            DisplayApproved,
	LifecycleActivationRequested: DisplayOutreachReady,
	LifecycleActivated:           DisplaySent,
	LifecycleRejected:            DisplayRejected,
	LifecycleNeedsMoreEvidence:   DisplayInReview,
	LifecycleActivationFailed:    DisplayError,
	LifecycleActivationPartial:   DisplayError,
}

// MapToDisplayStatus reduces a backend status to its display status.
// A snoozed flag wins over everything, then a CRM activation timestamp,
// then the lifecycle table. Unknown statuses are shown as new.
func MapToDisplayStatus(backendStatus string, crmActivatedAt *time.Time, snoozed bool) DisplayStatus {
	if snoozed {
		return DisplaySnoozed
	}
	if crmActivatedAt != nil {
		return DisplaySent
	}
	if display, ok := lifecycleToDisplay[LifecycleStatus(backendStatus)]; ok {
		return display
	}
	return DisplayNew
}

// StatusPresentation describes how a status chip is rendered.
type StatusPresentation struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var statusPresentations = map[DisplayStatus]StatusPresentation{
	DisplayNew:           {Label: "New", Color: "blue", Description: "Ready for review"},
	DisplayInReview:      {Label: "In Review", Color: "orange", Description: "Under evaluation"},
	DisplayApproved:      {Label: "Approved", Color: "green", Description: "Ready to outreach"},
	DisplayOutreachReady: {Label: "Outreach Ready", Color: "cyan", Description: "Draft prepared"},
	DisplaySent:          {Label: "Sent", Color: "teal", Description: "Activated in CRM"},
	DisplaySnoozed:       {Label: "Snoozed", Color: "gray", Description: "Paused for later"},
	DisplayRejected:      {Label: "Rejected", Color: "red", Description: "Not a fit"},
	DisplayError:         {Label: "Error", Color: "red", Description: "Action failed"},
}

// StatusPresentationFor returns the chip presentation for status. Unknown
// statuses fall back to the "new" chip.
func StatusPresentationFor(status DisplayStatus) StatusPresentation {
	if p, ok := statusPresentations[status]; ok {
		return p
	}
	return statusPresentations[DisplayNew]
}
