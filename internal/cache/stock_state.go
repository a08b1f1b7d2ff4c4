package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chogo-next/internal/models"
)

const stockStateCacheTTL = 5 * time.Minute

// VariantStockState stock snapshot served on product pages. Redis-only;
// the ledger in the database stays authoritative.
type VariantStockState struct {
	VariantID uint   `json:"variant_id"`
	Sellable  int    `json:"sellable"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

func variantStockKey(variantID uint) string {
	return fmt.Sprintf("stock:variant:%d", variantID)
}

// BuildVariantStockState builds a snapshot from a variant row
func BuildVariantStockState(v *models.Variant, status string) *VariantStockState {
	if v == nil {
		return nil
	}
	return &VariantStockState{
		VariantID: v.ID,
		Sellable:  v.Sellable(),
		Status:    status,
		UpdatedAt: time.Now().Unix(),
	}
}

// GetVariantStockState reads a stock snapshot
func GetVariantStockState(ctx context.Context, variantID uint) (*VariantStockState, bool, error) {
	if variantID == 0 {
		return nil, false, nil
	}
	var state VariantStockState
	hit, err := GetJSON(ctx, variantStockKey(variantID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetVariantStockState writes a stock snapshot
func SetVariantStockState(ctx context.Context, state *VariantStockState) error {
	if state == nil || state.VariantID == 0 {
		return nil
	}
	return SetJSON(ctx, variantStockKey(state.VariantID), state, stockStateCacheTTL)
}

// DelVariantStockState drops a stock snapshot after any ledger write
func DelVariantStockState(ctx context.Context, variantID uint) error {
	if variantID == 0 {
		return nil
	}
	return Del(ctx, variantStockKey(variantID))
}
