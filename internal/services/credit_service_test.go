package services

import (
	"context"
	"testing"

	"github.com/plagiafix/plagiafix/internal/models"
	"github.com/plagiafix/plagiafix/internal/payments"
	"github.com/plagiafix/plagiafix/internal/utils"
)

type fakeCreditRepo struct {
	balance int64
	entries []models.CreditEntry
	refs    map[string]bool
}

func newFakeCreditRepo(balance int64) *fakeCreditRepo {
	return &fakeCreditRepo{balance: balance, refs: map[string]bool{}}
}

func (f *fakeCreditRepo) Balance(ctx context.Context, userID string) (int64, error) {
	return f.balance, nil
}

func (f *fakeCreditRepo) Apply(ctx context.Context, entry *models.CreditEntry) (int64, error) {
	if entry.Reference != "" {
		if f.refs[entry.Reference] {
			return 0, utils.E(utils.CodeConflict, "fake", "reference already credited", nil)
		}
		f.refs[entry.Reference] = true
	}
	next := f.balance + entry.Delta
	if next < 0 {
		return 0, utils.E(utils.CodeInsufficient, "fake", "not enough credits", nil)
	}
	f.balance = next
	f.entries = append(f.entries, *entry)
	return next, nil
}

func (f *fakeCreditRepo) History(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	return f.entries, nil
}

type fakeVerifier struct {
	res *payments.Verification
	err error
}

func (f fakeVerifier) Verify(ctx context.Context, reference string) (*payments.Verification, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.res
	out.Reference = reference
	return &out, nil
}

func TestPurchaseCreditsFromKobo(t *testing.T) {
	repo := newFakeCreditRepo(0)
	svc := NewCreditService(repo, map[string]payments.Verifier{
		"paystack": fakeVerifier{res: &payments.Verification{Success: true, Amount: 150_000, Currency: "NGN"}},
	})

	balance, credited, err := svc.Purchase(context.Background(), "u1", "paystack", "ref-1")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if credited != 3 || balance != 3 {
		t.Errorf("credited = %d, balance = %d, want 3 and 3", credited, balance)
	}
}

func TestPurchaseSameReferenceTwice(t *testing.T) {
	repo := newFakeCreditRepo(0)
	svc := NewCreditService(repo, map[string]payments.Verifier{
		"paystack": fakeVerifier{res: &payments.Verification{Success: true, Amount: 100_000}},
	})

	if _, _, err := svc.Purchase(context.Background(), "u1", "paystack", "ref-1"); err != nil {
		t.Fatalf("first Purchase: %v", err)
	}
	_, _, err := svc.Purchase(context.Background(), "u1", "paystack", "ref-1")
	if !utils.IsCode(err, utils.CodeConflict) {
		t.Errorf("err = %v, want CONFLICT", err)
	}
	if repo.balance != 2 {
		t.Errorf("balance = %d, double credit applied", repo.balance)
	}
}

func TestPurchaseBitcoinNeedsConfirmations(t *testing.T) {
	repo := newFakeCreditRepo(0)
	svc := NewCreditService(repo, map[string]payments.Verifier{
		"bitcoin": fakeVerifier{res: &payments.Verification{Success: true, Amount: 10_000, Confirmations: 1}},
	})

	_, _, err := svc.Purchase(context.Background(), "u1", "bitcoin", "tx-1")
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Errorf("err = %v, want INVALID_ARGUMENT for 1 confirmation", err)
	}
}

func TestPurchaseIncompletePayment(t *testing.T) {
	repo := newFakeCreditRepo(0)
	svc := NewCreditService(repo, map[string]payments.Verifier{
		"paystack": fakeVerifier{res: &payments.Verification{Success: false, Amount: 100_000}},
	})

	if _, _, err := svc.Purchase(context.Background(), "u1", "paystack", "ref-1"); err == nil {
		t.Fatal("expected error for unfinished payment")
	}
	if repo.balance != 0 {
		t.Errorf("balance = %d, want 0", repo.balance)
	}
}

func TestSpendBelowZero(t *testing.T) {
	repo := newFakeCreditRepo(1)
	svc := NewCreditService(repo, nil)

	err := svc.Spend(context.Background(), "u1", 2, "humanize")
	if !utils.IsCode(err, utils.CodeInsufficient) {
		t.Errorf("err = %v, want INSUFFICIENT_CREDITS", err)
	}
	if repo.balance != 1 {
		t.Errorf("balance = %d, want untouched 1", repo.balance)
	}
}

func TestSpendAndBalance(t *testing.T) {
	repo := newFakeCreditRepo(5)
	svc := NewCreditService(repo, nil)

	if err := svc.Spend(context.Background(), "u1", 2, "humanize"); err != nil {
		t.Fatalf("Spend: %v", err)
	}
	bal, err := svc.Balance(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal != 3 {
		t.Errorf("balance = %d, want 3", bal)
	}
}
