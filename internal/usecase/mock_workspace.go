package usecase

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/xavierca1/clientpulse/internal/entity"
)

const (
	MockCreateDelay       = 3500 * time.Millisecond
	MockCreateSuccessRate = 0.9

	workspaceIDSuffixLen = 5
	base36               = "0123456789abcdefghijklmnopqrstuvwxyz"
)

func randomIntN(n int) int { return rand.IntN(n) }

// NewWorkspaceID builds "ws-{slug}-{5 base36 chars}" from the company name.
func NewWorkspaceID(companyName string, intN func(int) int) string {
	var suffix strings.Builder
	for i := 0; i < workspaceIDSuffixLen; i++ {
		suffix.WriteByte(base36[intN(len(base36))])
	}
	return "ws-" + slugify(companyName) + "-" + suffix.String()
}

func slugify(name string) string {
	normalized, err := slug.Normalize(name)
	if err != nil || normalized == "" {
		return "workspace"
	}
	return normalized
}

// MockWorkspaceCreator stands in for the API during local development: it
// waits, then succeeds most of the time.
type MockWorkspaceCreator struct {
	Delay       time.Duration
	SuccessRate float64
	Random      func() float64
	IntN        func(int) int
}

func NewMockWorkspaceCreator() *MockWorkspaceCreator {
	return &MockWorkspaceCreator{
		Delay:       MockCreateDelay,
		SuccessRate: MockCreateSuccessRate,
		Random:      rand.Float64,
		IntN:        randomIntN,
	}
}

func (m *MockWorkspaceCreator) Create(ctx context.Context, data entity.WorkspaceData) (WorkspaceResult, error) {
	timer := time.NewTimer(m.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return WorkspaceResult{}, ctx.Err()
	case <-timer.C:
	}

	if m.Random() < m.SuccessRate {
		return WorkspaceSucceeded(NewWorkspaceID(data.CompanyName, m.IntN)), nil
	}
	return WorkspaceFailed(entity.ErrDomainAlreadyRegistered.Error()), nil
}
