package services

import (
	"context"

	"github.com/qarzkitob/qarzkitob/internal/client/api"
	"github.com/qarzkitob/qarzkitob/internal/client/models"
	"github.com/qarzkitob/qarzkitob/internal/logging"
)

// DebtorService fetches debtor records for display. No business logic lives
// here; the CLI is responsible for gating it behind the PIN check.
type DebtorService struct {
	api api.Client
	log logging.Logger
}

func NewDebtorService(apiClient api.Client, log logging.Logger) *DebtorService {
	return &DebtorService{api: apiClient, log: log.With("component", "debtors")}
}

// List returns the debtor records visible to the current session.
func (s *DebtorService) List(ctx context.Context) ([]models.Debtor, error) {
	debtors, err := s.api.ListDebtors(ctx)
	if err != nil {
		s.log.Warn(ctx, "listing debtors failed", "error", err)
		return nil, err
	}
	return debtors, nil
}
