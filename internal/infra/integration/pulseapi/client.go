// Package pulseapi is the dashboard's client for the ClientPulse REST API.
package pulseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/clientpulse/internal/entity"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

const (
	DefaultTimeout = 15 * time.Second
	apiPrefix      = "/api/v1"
)

var (
	_ usecase.WorkspaceCreator   = (*Client)(nil)
	_ usecase.OpportunityActions = (*Client)(nil)
	_ usecase.OpportunityLister  = (*Client)(nil)
)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Create submits the wizard data. 201 and 422 both carry a result; anything
// else means the request itself failed.
func (c *Client) Create(ctx context.Context, data entity.WorkspaceData) (usecase.WorkspaceResult, error) {
	resp, raw, err := c.send(ctx, http.MethodPost, "/workspaces", data)
	if err != nil {
		return usecase.WorkspaceResult{}, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusUnprocessableEntity {
		return usecase.WorkspaceResult{}, fmt.Errorf("create workspace: unexpected status %d", resp.StatusCode)
	}

	var result usecase.WorkspaceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return usecase.WorkspaceResult{}, fmt.Errorf("create workspace: %w", err)
	}
	if err := result.Validate(); err != nil {
		return usecase.WorkspaceResult{}, err
	}
	return result, nil
}

func (c *Client) List(ctx context.Context, limit, offset int) (*usecase.ListOpportunitiesOutput, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out usecase.ListOpportunitiesOutput
	if err := c.do(ctx, http.MethodGet, "/opportunities?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*entity.Opportunity, error) {
	var out entity.Opportunity
	if err := c.do(ctx, http.MethodGet, opportunityPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Approve(ctx context.Context, id, comment string) (*usecase.ReviewDecisionOutput, error) {
	return c.decide(ctx, id, "approve", usecase.ApproveInput{Comment: comment})
}

func (c *Client) Reject(ctx context.Context, id string, input usecase.RejectInput) (*usecase.ReviewDecisionOutput, error) {
	if err := usecase.ValidateReject(input); err != nil {
		return nil, err
	}
	return c.decide(ctx, id, "reject", input)
}

func (c *Client) Refine(ctx context.Context, id string, input usecase.RefineInput) (*usecase.ReviewDecisionOutput, error) {
	if err := usecase.ValidateRefine(input); err != nil {
		return nil, err
	}
	return c.decide(ctx, id, "refine", input)
}

func (c *Client) NeedsMoreEvidence(ctx context.Context, id string, input usecase.NeedsMoreEvidenceInput) (*usecase.ReviewDecisionOutput, error) {
	if err := usecase.ValidateNeedsMoreEvidence(input); err != nil {
		return nil, err
	}
	return c.decide(ctx, id, "needs-more-evidence", input)
}

func (c *Client) Review(ctx context.Context, id string) (*usecase.ReviewDecisionOutput, error) {
	return c.decide(ctx, id, "review", nil)
}

func (c *Client) DraftOutreach(ctx context.Context, id string, input usecase.DraftOutreachInput) (*usecase.ReviewDecisionOutput, error) {
	if errs := usecase.ValidateDraftOutreachInput(input); len(errs) > 0 {
		return nil, &usecase.DomainError{Code: usecase.CodeValidation, Message: errs.First(), Fields: errs}
	}
	return c.decide(ctx, id, "draft-outreach", input)
}

func (c *Client) Send(ctx context.Context, id string) (*usecase.ActivateCRMOutput, error) {
	return c.activate(ctx, id, "send")
}

func (c *Client) Resend(ctx context.Context, id string) (*usecase.ActivateCRMOutput, error) {
	return c.activate(ctx, id, "resend")
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, opportunityPath(id, ""), nil, nil)
}

// Export copies the opportunity PDF into w.
func (c *Client) Export(ctx context.Context, id string, w io.Writer) error {
	path := opportunityPath(id, "export")
	resp, raw, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return responseError(http.MethodGet, path, resp.StatusCode, raw)
	}
	_, err = w.Write(raw)
	return err
}

func (c *Client) CreateSignal(ctx context.Context, input usecase.CreateSignalInput) (*usecase.CreateSignalOutput, error) {
	var out usecase.CreateSignalOutput
	if err := c.do(ctx, http.MethodPost, "/signals", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSignals(ctx context.Context, limit, offset int) (*usecase.ListSignalsOutput, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out usecase.ListSignalsOutput
	if err := c.do(ctx, http.MethodGet, "/signals?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) decide(ctx context.Context, id, action string, body any) (*usecase.ReviewDecisionOutput, error) {
	var out usecase.ReviewDecisionOutput
	if err := c.do(ctx, http.MethodPost, opportunityPath(id, action), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) activate(ctx context.Context, id, action string) (*usecase.ActivateCRMOutput, error) {
	var out usecase.ActivateCRMOutput
	if err := c.do(ctx, http.MethodPost, opportunityPath(id, action), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func opportunityPath(id, action string) string {
	p := "/opportunities/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// do sends the request and decodes a 2xx body into out. Error bodies come
// back as DomainError (4xx) or TechnicalError (5xx).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	resp, raw, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, out)
	}
	return responseError(method, path, resp.StatusCode, raw)
}

func responseError(method, path string, status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	if status >= 500 {
		return &usecase.TechnicalError{
			Code:    body.Error,
			Message: body.Message,
			Err:     fmt.Errorf("%s %s: status %d", method, path, status),
		}
	}
	return &usecase.DomainError{Code: body.Error, Message: body.Message, Fields: body.Fields}
}

func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, []byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return nil, nil, &usecase.TechnicalError{Code: usecase.CodeIntegration, Message: "ClientPulse API unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, raw, nil
}
