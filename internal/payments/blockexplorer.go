package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/plagiafix/plagiafix/internal/utils"
)

// BlockExplorer verifies Bitcoin payments against an Esplora-style REST
// explorer: the reference is a txid, the amount is the sum of outputs
// paying our receive address, and confirmations come from the chain tip.
type BlockExplorer struct {
	BaseURL string // e.g. https://blockstream.info/api
	Address string // receive address expected in the tx outputs
	Client  *http.Client
}

func NewBlockExplorer(baseURL, address string) *BlockExplorer {
	return &BlockExplorer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Address: address,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type explorerTx struct {
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
	} `json:"status"`
	Vout []struct {
		Address string `json:"scriptpubkey_address"`
		Value   int64  `json:"value"` // satoshi
	} `json:"vout"`
}

func (b *BlockExplorer) Verify(ctx context.Context, txid string) (*Verification, error) {
	const op = "payments.BlockExplorer.Verify"
	if txid == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "txid is required", nil)
	}

	var tx explorerTx
	if err := b.get(ctx, op, "/tx/"+txid, &tx); err != nil {
		return nil, err
	}

	var amount int64
	for _, out := range tx.Vout {
		if out.Address == b.Address {
			amount += out.Value
		}
	}

	confirmations := 0
	if tx.Status.Confirmed {
		var raw string
		if err := b.getText(ctx, op, "/blocks/tip/height", &raw); err != nil {
			return nil, err
		}
		tip, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "unexpected tip height payload", err)
		}
		confirmations = int(tip-tx.Status.BlockHeight) + 1
		if confirmations < 0 {
			confirmations = 0
		}
	}

	return &Verification{
		Success:       amount > 0 && confirmations > 0,
		Amount:        amount,
		Currency:      "BTC",
		Confirmations: confirmations,
		Reference:     txid,
	}, nil
}

func (b *BlockExplorer) get(ctx context.Context, op, path string, dst any) error {
	body, err := b.fetch(ctx, op, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return utils.E(utils.CodeInternal, op, "unexpected explorer payload", err)
	}
	return nil
}

func (b *BlockExplorer) getText(ctx context.Context, op, path string, dst *string) error {
	body, err := b.fetch(ctx, op, path)
	if err != nil {
		return err
	}
	*dst = string(body)
	return nil
}

func (b *BlockExplorer) fetch(ctx context.Context, op, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+path, nil)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "explorer unreachable", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusNotFound {
		return nil, utils.E(utils.CodeNotFound, op, "transaction not found", nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, utils.E(utils.CodeUnavailable, op, fmt.Sprintf("explorer status %d", resp.StatusCode), nil)
	}
	return body, nil
}
