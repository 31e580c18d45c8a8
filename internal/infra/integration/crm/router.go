package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

type DealCreator interface {
	CreateDeal(ctx context.Context, p queue.ActivationPayload) (string, error)
}

// Router picks the client for the payload's CRM system.
type Router struct {
	Clients map[string]DealCreator
}

func NewRouter(clients map[string]DealCreator) *Router {
	normalized := make(map[string]DealCreator, len(clients))
	for name, c := range clients {
		normalized[strings.ToLower(strings.TrimSpace(name))] = c
	}
	return &Router{Clients: normalized}
}

func (r *Router) CreateDeal(ctx context.Context, p queue.ActivationPayload) (string, error) {
	client, ok := r.Clients[strings.ToLower(strings.TrimSpace(p.CRMSystem))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSystem, p.CRMSystem)
	}
	return client.CreateDeal(ctx, p)
}

// LogClient records the activation without calling out. It stands in for a
// CRM while sync is disabled.
type LogClient struct {
	System string
	Logger logging.Logger
	Now    func() time.Time
}

func NewLogClient(system string, logger logging.Logger) *LogClient {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LogClient{System: system, Logger: logger, Now: time.Now}
}

func (c *LogClient) CreateDeal(ctx context.Context, p queue.ActivationPayload) (string, error) {
	id := fmt.Sprintf("%s-%s-%d", c.System, p.OpportunityID, c.Now().Unix())
	c.Logger.Info("CRM sync disabled, activation recorded locally",
		"crm", c.System, "opportunity_id", p.OpportunityID, "deal_id", id)
	return id, nil
}
