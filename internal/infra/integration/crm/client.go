package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xavierca1/clientpulse/internal/infra/http/middleware"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/logging"
)

var (
	ErrNotConfigured     = errors.New("crm: not configured")
	ErrUnsupportedSystem = errors.New("crm: unsupported system")
	errContactNotFound   = errors.New("crm: contact not found")
)

const defaultStage = "qualified"

// Client talks to a CRM REST API: contacts are found or created by email,
// then a deal is opened against the contact.
type Client struct {
	System  string
	BaseURL string
	Token   string
	Stage   string
	HTTP    *http.Client
	Logger  logging.Logger
}

func NewClient(system string, cfg SystemConfig, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NoOp()
	}
	stage := cfg.Stage
	if stage == "" {
		stage = defaultStage
	}
	return &Client{
		System:  system,
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Token:   cfg.Token,
		Stage:   stage,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Logger:  logger.WithFields(map[string]any{"crm": system}),
	}
}

func (c *Client) CreateDeal(ctx context.Context, p queue.ActivationPayload) (string, error) {
	if c.Token == "" || c.BaseURL == "" {
		c.Logger.Warn("CRM credentials missing")
		return "", ErrNotConfigured
	}

	contactID, err := c.findOrCreateContact(ctx, p)
	if err != nil {
		middleware.RecordIntegrationError(c.System)
		return "", fmt.Errorf("failed to resolve contact: %w", err)
	}

	deal := dealRequest{
		Name:       fmt.Sprintf("%s - %s", p.AccountName, p.Title),
		Stage:      c.Stage,
		Amount:     p.Score,
		ContactID:  contactID,
		ExternalID: p.OpportunityID,
		Tags:       []string{"clientpulse", strings.ToLower(p.Origin)},
		Properties: map[string]string{
			"workflow_id": p.WorkflowID,
			"account_id":  p.AccountID,
		},
	}

	var created idResponse
	if err := c.do(ctx, http.MethodPost, "/deals", deal, &created, http.StatusOK, http.StatusCreated); err != nil {
		middleware.RecordIntegrationError(c.System)
		return "", fmt.Errorf("failed to create deal: %w", err)
	}
	if created.ID == "" {
		middleware.RecordIntegrationError(c.System)
		return "", errors.New("crm: deal created without an id")
	}

	c.Logger.Info("CRM deal created", "deal_id", created.ID, "opportunity_id", p.OpportunityID)
	return created.ID, nil
}

func (c *Client) findOrCreateContact(ctx context.Context, p queue.ActivationPayload) (string, error) {
	if p.ContactEmail != "" {
		id, err := c.findContactByEmail(ctx, p.ContactEmail)
		if err == nil {
			c.Logger.Debug("existing CRM contact found", "contact_id", id)
			return id, nil
		}
		if !errors.Is(err, errContactNotFound) {
			return "", err
		}
	}
	return c.createContact(ctx, p)
}

func (c *Client) findContactByEmail(ctx context.Context, email string) (string, error) {
	var result searchResponse
	if err := c.do(ctx, http.MethodGet, "/contacts?email="+url.QueryEscape(email), nil, &result, http.StatusOK); err != nil {
		return "", err
	}
	if len(result.Results) == 0 || result.Results[0].ID == "" {
		return "", errContactNotFound
	}
	return result.Results[0].ID, nil
}

func (c *Client) createContact(ctx context.Context, p queue.ActivationPayload) (string, error) {
	contact := contactRequest{
		Name:        p.AccountName,
		Email:       p.ContactEmail,
		CompanyName: p.AccountName,
		ExternalID:  p.AccountID,
	}
	var created idResponse
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &created, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("crm: contact created without an id")
	}
	c.Logger.Info("CRM contact created", "contact_id", created.ID)
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, accepted ...int) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	c.addAuthHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	ok := false
	for _, code := range accepted {
		if resp.StatusCode == code {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s %s: %d - %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
