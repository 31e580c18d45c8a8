package usecase

import "github.com/xavierca1/clientpulse/internal/entity"

type ActionButton struct {
	Action       entity.OpportunityAction
	Presentation entity.ActionPresentation
}

// OpportunityCard is one row of the opportunities board.
type OpportunityCard struct {
	Opportunity *entity.Opportunity
	Status      entity.DisplayStatus
	Chip        entity.StatusPresentation
	Actions     []ActionButton
}

// BuildBoard turns a list into cards, applying local snoozes.
func BuildBoard(opps []*entity.Opportunity, snoozes *SnoozeRegistry) []OpportunityCard {
	cards := make([]OpportunityCard, 0, len(opps))
	for _, opp := range opps {
		snoozed := snoozes != nil && snoozes.IsSnoozed(opp.ID)
		status := opp.DisplayStatus(snoozed)

		actions := entity.AvailableActions(status)
		buttons := make([]ActionButton, 0, len(actions))
		for _, a := range actions {
			buttons = append(buttons, ActionButton{Action: a, Presentation: entity.ActionPresentationFor(a)})
		}

		cards = append(cards, OpportunityCard{
			Opportunity: opp,
			Status:      status,
			Chip:        entity.StatusPresentationFor(status),
			Actions:     buttons,
		})
	}
	return cards
}
