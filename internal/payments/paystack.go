package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/plagiafix/plagiafix/internal/utils"
)

// Paystack verifies card payments by transaction reference.
type Paystack struct {
	BaseURL   string // default https://api.paystack.co
	SecretKey string
	Client    *http.Client
}

func NewPaystack(secretKey string) *Paystack {
	return &Paystack{
		BaseURL:   "https://api.paystack.co",
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackResponse struct {
	Status bool   `json:"status"`
	Msg    string `json:"message"`
	Data   struct {
		Status   string `json:"status"` // success|failed|abandoned
		Amount   int64  `json:"amount"` // kobo
		Currency string `json:"currency"`
		Ref      string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	const op = "payments.Paystack.Verify"
	if reference == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "reference is required", nil)
	}

	endpoint := p.BaseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "paystack unreachable", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusNotFound {
		return nil, utils.E(utils.CodeNotFound, op, "unknown transaction reference", nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, utils.E(utils.CodeUnavailable, op, fmt.Sprintf("paystack status %d", resp.StatusCode), nil)
	}

	var parsed paystackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "unexpected paystack payload", err)
	}

	return &Verification{
		Success:   parsed.Status && parsed.Data.Status == "success",
		Amount:    parsed.Data.Amount,
		Currency:  parsed.Data.Currency,
		Reference: parsed.Data.Ref,
	}, nil
}
