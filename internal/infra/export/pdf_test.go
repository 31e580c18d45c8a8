package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/clientpulse/internal/entity"
)

func TestPDFExporter_Export(t *testing.T) {
	confidence := 0.64
	opp := &entity.Opportunity{
		ID:          "opp-1",
		AccountName: "Acme Größe",
		Title:       "EU expansion after Series B",
		Status:      entity.LifecycleActivationRequested,
		Score:       0.82,
		ScoreBreakdown: entity.ScoreBreakdown{
			Impact: 0.9, Urgency: 0.7, Fit: 0.8, Access: 0.6, Feasibility: 0.5, Confidence: &confidence,
		},
		WhatHappened:     "Raised a Series B and announced Berlin office.",
		WhyItMatters:     "New region needs compliance tooling.",
		Pains:            []string{"GDPR audits", "hiring"},
		NextSteps:        []string{"Intro call"},
		StakeholderHints: []string{"CFO"},
		EvidenceRefs:     []entity.EvidenceRef{{Title: "TechCrunch", URL: "https://techcrunch.com/acme"}},
		DraftOutreach:    &entity.OutreachDraft{Subject: "Hi", Body: "Hello Dana,\nquick idea.", Recipient: "cfo@acme.com"},
	}

	e := NewPDFExporter("")
	e.Now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, e.Export(opp, &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestPDFExporter_MinimalOpportunity(t *testing.T) {
	var buf bytes.Buffer
	err := NewPDFExporter("").Export(&entity.Opportunity{ID: "opp-2", Title: "Bare"}, &buf)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "82%", percent(0.82))
	assert.Equal(t, "0%", percent(0))
}
