package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/plagiafix/plagiafix/internal/models"
	"github.com/plagiafix/plagiafix/internal/payments"
	pgrepo "github.com/plagiafix/plagiafix/internal/repositories/postgres"
	"github.com/plagiafix/plagiafix/internal/utils"
)

// Credit conversion in provider smallest units. Paystack reports kobo,
// the explorer reports satoshi.
const (
	koboPerCredit    = 50_000 // NGN 500
	satoshiPerCredit = 1_000

	minConfirmations = 2
)

type CreditService interface {
	// Purchase verifies an external payment reference and credits the
	// account. A reference is credited at most once.
	Purchase(ctx context.Context, userID, provider, reference string) (balance int64, credited int64, err error)
	Spend(ctx context.Context, userID string, amount int64, reason string) error
	Balance(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error)
}

type creditService struct {
	repo      pgrepo.CreditRepository
	verifiers map[string]payments.Verifier
}

func NewCreditService(repo pgrepo.CreditRepository, verifiers map[string]payments.Verifier) CreditService {
	return &creditService{repo: repo, verifiers: verifiers}
}

func (s *creditService) Purchase(ctx context.Context, userID, provider, reference string) (int64, int64, error) {
	const op = "CreditService.Purchase"

	if userID == "" || reference == "" {
		return 0, 0, utils.E(utils.CodeInvalidArgument, op, "user_id and reference are required", nil)
	}
	v, ok := s.verifiers[strings.ToLower(provider)]
	if !ok {
		return 0, 0, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown payment provider %q", provider), nil)
	}

	res, err := v.Verify(ctx, reference)
	if err != nil {
		return 0, 0, err
	}
	if !res.Success {
		return 0, 0, utils.E(utils.CodeInvalidArgument, op, "payment not completed", nil)
	}

	var credits int64
	switch strings.ToLower(provider) {
	case "bitcoin":
		if res.Confirmations < minConfirmations {
			return 0, 0, utils.E(utils.CodeInvalidArgument, op,
				fmt.Sprintf("needs %d confirmations, has %d", minConfirmations, res.Confirmations), nil)
		}
		credits = res.Amount / satoshiPerCredit
	default:
		credits = res.Amount / koboPerCredit
	}
	if credits <= 0 {
		return 0, 0, utils.E(utils.CodeInvalidArgument, op, "payment amount below one credit", nil)
	}

	balance, err := s.repo.Apply(ctx, &models.CreditEntry{
		UserID:    userID,
		Delta:     credits,
		Reason:    "purchase",
		Reference: res.Reference,
		Provider:  strings.ToLower(provider),
	})
	if err != nil {
		if utils.IsCode(err, utils.CodeConflict) {
			return 0, 0, err
		}
		return 0, 0, utils.E(utils.CodeInternal, op, "failed to credit account", err)
	}
	return balance, credits, nil
}

func (s *creditService) Spend(ctx context.Context, userID string, amount int64, reason string) error {
	const op = "CreditService.Spend"

	if userID == "" || amount <= 0 {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required and amount must be > 0", nil)
	}
	_, err := s.repo.Apply(ctx, &models.CreditEntry{
		UserID: userID,
		Delta:  -amount,
		Reason: reason,
	})
	if err != nil {
		if utils.IsCode(err, utils.CodeInsufficient) {
			return err
		}
		return utils.E(utils.CodeInternal, op, "failed to debit account", err)
	}
	return nil
}

func (s *creditService) Balance(ctx context.Context, userID string) (int64, error) {
	const op = "CreditService.Balance"

	if userID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	bal, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to read balance", err)
	}
	return bal, nil
}

func (s *creditService) History(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	const op = "CreditService.History"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.repo.History(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list credit history", err)
	}
	return rows, nil
}
