// Package ref reads Ref Finance exchange state through NEAR view calls.
package ref

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/tidwall/gjson"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/near"
)

// DefaultContractID is the Ref Finance v2 exchange on mainnet.
const DefaultContractID = "v2.ref-finance.near"

// Pool kinds reported by get_pool.
const (
	KindSimplePool = "SIMPLE_POOL"
	KindStableSwap = "STABLE_SWAP"
	KindRatedSwap  = "RATED_SWAP"
)

// Caller is the subset of the NEAR client the reader needs.
type Caller interface {
	CallFunction(ctx context.Context, block near.BlockRef, accountID, method string, args any) (*near.CallResult, error)
}

// PoolInfo is the decoded get_pool response.
type PoolInfo struct {
	ID                uint64
	Kind              string
	TokenAccountIDs   []string
	Amounts           []*big.Int
	TotalFee          uint32
	SharesTotalSupply *big.Int
	Amp               *big.Int
	BlockHash         string
	BlockHeight       uint64
}

// TokenIndex returns the position of token in the pool.
func (p *PoolInfo) TokenIndex(token string) (int, error) {
	for i, id := range p.TokenAccountIDs {
		if id == token {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s in pool %d", ErrTokenNotInPool, token, p.ID)
}

// Reader queries one exchange contract.
type Reader struct {
	caller     Caller
	contractID string
}

// NewReader returns a Reader for contractID; an empty id selects the mainnet
// exchange.
func NewReader(caller Caller, contractID string) *Reader {
	if contractID == "" {
		contractID = DefaultContractID
	}
	return &Reader{caller: caller, contractID: contractID}
}

// ContractID returns the exchange account the reader queries.
func (r *Reader) ContractID() string { return r.contractID }

func (r *Reader) view(ctx context.Context, block near.BlockRef, account, method string, args any) (gjson.Result, *near.CallResult, error) {
	res, err := r.caller.CallFunction(ctx, block, account, method, args)
	if err != nil {
		return gjson.Result{}, nil, err
	}
	doc, err := res.JSON()
	if err != nil {
		return gjson.Result{}, nil, fmt.Errorf("%s.%s: %w", account, method, err)
	}
	return doc, res, nil
}

// GetPool fetches pool poolID.
func (r *Reader) GetPool(ctx context.Context, block near.BlockRef, poolID uint64) (*PoolInfo, error) {
	doc, res, err := r.view(ctx, block, r.contractID, "get_pool", map[string]any{"pool_id": poolID})
	if err != nil {
		return nil, err
	}

	pool := &PoolInfo{
		ID:          poolID,
		Kind:        doc.Get("pool_kind").String(),
		TotalFee:    uint32(doc.Get("total_fee").Uint()),
		BlockHash:   res.BlockHash,
		BlockHeight: res.BlockHeight,
	}
	for _, id := range doc.Get("token_account_ids").Array() {
		pool.TokenAccountIDs = append(pool.TokenAccountIDs, id.String())
	}
	for _, a := range doc.Get("amounts").Array() {
		v, err := parseU128(a)
		if err != nil {
			return nil, fmt.Errorf("pool %d amounts: %w", poolID, err)
		}
		pool.Amounts = append(pool.Amounts, v)
	}
	if len(pool.Amounts) != len(pool.TokenAccountIDs) {
		return nil, fmt.Errorf("pool %d: %w: %d amounts for %d tokens", poolID, ErrMalformedPool, len(pool.Amounts), len(pool.TokenAccountIDs))
	}
	if pool.SharesTotalSupply, err = parseU128(doc.Get("shares_total_supply")); err != nil {
		return nil, fmt.Errorf("pool %d shares: %w", poolID, err)
	}
	// Simple pools report amp 0.
	if pool.Amp, err = parseU128(doc.Get("amp")); err != nil {
		return nil, fmt.Errorf("pool %d amp: %w", poolID, err)
	}
	return pool, nil
}

// GetReturn asks the contract how much tokenOut it would pay for amountIn of
// tokenIn. This is the reference quote local math is checked against.
func (r *Reader) GetReturn(ctx context.Context, block near.BlockRef, poolID uint64, tokenIn string, amountIn *big.Int, tokenOut string) (*big.Int, error) {
	doc, _, err := r.view(ctx, block, r.contractID, "get_return", map[string]any{
		"pool_id":   poolID,
		"token_in":  tokenIn,
		"amount_in": amountIn.String(),
		"token_out": tokenOut,
	})
	if err != nil {
		return nil, err
	}
	return parseU128(doc)
}

// TokenDecimals reads the NEP-148 ft_metadata of token.
func (r *Reader) TokenDecimals(ctx context.Context, block near.BlockRef, token string) (uint8, error) {
	doc, _, err := r.view(ctx, block, token, "ft_metadata", nil)
	if err != nil {
		return 0, err
	}
	decimals := doc.Get("decimals")
	if decimals.Type != gjson.Number || decimals.Int() < 0 || decimals.Int() > 255 {
		return 0, fmt.Errorf("%s: %w", token, ErrMalformedMetadata)
	}
	return uint8(decimals.Int()), nil
}

// parseU128 accepts u128 values encoded as JSON strings (U128) or numbers.
func parseU128(v gjson.Result) (*big.Int, error) {
	if !v.Exists() {
		return nil, ErrMissingField
	}
	raw := v.String()
	if v.Type == gjson.Number {
		raw = v.Raw
	}
	n, ok := math.ParseBig256(raw)
	if raw == "" || !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return n, nil
}
