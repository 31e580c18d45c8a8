package usecase

import (
	"context"
	"io"

	"github.com/xavierca1/clientpulse/internal/entity"
)

type ExportOpportunityUseCase struct {
	Repo     entity.OpportunityRepositoryInterface
	Exporter OpportunityExporter
}

func NewExportOpportunityUseCase(repo entity.OpportunityRepositoryInterface, exporter OpportunityExporter) *ExportOpportunityUseCase {
	return &ExportOpportunityUseCase{Repo: repo, Exporter: exporter}
}

// Execute writes the opportunity one-pager to w. Only opportunities that
// are ready for outreach can be exported.
func (uc *ExportOpportunityUseCase) Execute(ctx context.Context, actor Actor, id string, w io.Writer) error {
	opp, err := loadOpportunity(ctx, uc.Repo, actor, id)
	if err != nil {
		return err
	}
	if err := ensureAllowed(opp, entity.ActionExport); err != nil {
		return err
	}
	if err := uc.Exporter.Export(opp, w); err != nil {
		return &TechnicalError{Code: "EXPORT_ERROR", Message: "failed to render opportunity export", Err: err}
	}
	return nil
}
