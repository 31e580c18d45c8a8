package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/clientpulse/internal/infra/queue"
)

func activation() queue.ActivationPayload {
	return queue.ActivationPayload{
		OpportunityID: "opp-1",
		TenantID:      "tenant-1",
		WorkflowID:    "wf-1",
		CRMSystem:     "hubspot",
		AccountID:     "acc-1",
		AccountName:   "Acme",
		Title:         "EU expansion",
		Score:         0.82,
		ContactEmail:  "cfo@acme.com",
		Origin:        "SEND",
	}
}

func TestClient_CreateDeal_ExistingContact(t *testing.T) {
	var deal dealRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/contacts":
			assert.Equal(t, "cfo@acme.com", r.URL.Query().Get("email"))
			json.NewEncoder(w).Encode(searchResponse{Results: []idResponse{{ID: "c-7"}}})
		case r.Method == http.MethodPost && r.URL.Path == "/deals":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&deal))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(idResponse{ID: "d-99"})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := NewClient("hubspot", SystemConfig{BaseURL: srv.URL + "/", Token: "secret"}, nil)
	id, err := c.CreateDeal(context.Background(), activation())

	require.NoError(t, err)
	assert.Equal(t, "d-99", id)
	assert.Equal(t, "c-7", deal.ContactID)
	assert.Equal(t, "Acme - EU expansion", deal.Name)
	assert.Equal(t, "opp-1", deal.ExternalID)
	assert.Equal(t, defaultStage, deal.Stage)
	assert.Contains(t, deal.Tags, "send")
}

func TestClient_CreateDeal_CreatesMissingContact(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(searchResponse{})
		case r.URL.Path == "/contacts":
			json.NewEncoder(w).Encode(idResponse{ID: "c-new"})
		default:
			json.NewEncoder(w).Encode(idResponse{ID: "d-1"})
		}
	}))
	defer srv.Close()

	c := NewClient("hubspot", SystemConfig{BaseURL: srv.URL, Token: "secret"}, nil)
	id, err := c.CreateDeal(context.Background(), activation())

	require.NoError(t, err)
	assert.Equal(t, "d-1", id)
	assert.Equal(t, []string{"GET /contacts", "POST /contacts", "POST /deals"}, paths)
}

func TestClient_CreateDeal_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("hubspot", SystemConfig{}, nil).CreateDeal(context.Background(), activation())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("upstream rejects the deal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/deals" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"message":"stage unknown"}`))
				return
			}
			json.NewEncoder(w).Encode(searchResponse{Results: []idResponse{{ID: "c-1"}}})
		}))
		defer srv.Close()

		_, err := NewClient("hubspot", SystemConfig{BaseURL: srv.URL, Token: "t"}, nil).CreateDeal(context.Background(), activation())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
		assert.Contains(t, err.Error(), "stage unknown")
	})
}

type stubCreator struct {
	id  string
	err error
}

func (s stubCreator) CreateDeal(ctx context.Context, p queue.ActivationPayload) (string, error) {
	return s.id, s.err
}

func TestRouter(t *testing.T) {
	r := NewRouter(map[string]DealCreator{
		" HubSpot ":  stubCreator{id: "hs-1"},
		"salesforce": stubCreator{err: errors.New("down")},
	})

	id, err := r.CreateDeal(context.Background(), activation())
	require.NoError(t, err)
	assert.Equal(t, "hs-1", id)

	p := activation()
	p.CRMSystem = "pipedrive"
	_, err = r.CreateDeal(context.Background(), p)
	assert.ErrorIs(t, err, ErrUnsupportedSystem)
}

func TestLogClient(t *testing.T) {
	c := NewLogClient("salesforce", nil)
	c.Now = func() time.Time { return time.Unix(1700000000, 0) }

	id, err := c.CreateDeal(context.Background(), activation())

	require.NoError(t, err)
	assert.Equal(t, "salesforce-opp-1-1700000000", id)
}
