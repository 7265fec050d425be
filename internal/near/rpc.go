package near

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/tidwall/gjson"
)

// Finality values accepted by view queries.
const (
	FinalityFinal      = "final"
	FinalityOptimistic = "optimistic"
)

// BlockRef selects the block a view query runs against: either a finality
// level or a concrete block hash.
type BlockRef struct {
	Finality  string
	BlockHash string
}

// Final references the latest final block.
func Final() BlockRef { return BlockRef{Finality: FinalityFinal} }

// AtBlock references the block with the given base58 hash.
func AtBlock(hash string) BlockRef { return BlockRef{BlockHash: hash} }

func (b BlockRef) apply(params map[string]any) error {
	if b.BlockHash != "" {
		if err := ValidateBlockHash(b.BlockHash); err != nil {
			return err
		}
		params["block_id"] = b.BlockHash
		return nil
	}
	finality := b.Finality
	if finality == "" {
		finality = FinalityFinal
	}
	if finality != FinalityFinal && finality != FinalityOptimistic {
		return fmt.Errorf("%w: finality %q", ErrInvalidBlockRef, finality)
	}
	params["finality"] = finality
	return nil
}

// ValidateBlockHash checks hash is a base58-encoded 32-byte digest.
func ValidateBlockHash(hash string) error {
	raw, err := base58.Decode(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlockHash, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidBlockHash, len(raw))
	}
	return nil
}

// NodeStatus is the subset of the status response the estimator uses.
type NodeStatus struct {
	ChainID           string
	LatestBlockHash   string
	LatestBlockHeight uint64
	Syncing           bool
}

// Status returns the node's chain id and latest block.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	res, err := c.call(ctx, "status", []any{})
	if err != nil {
		return nil, err
	}
	return &NodeStatus{
		ChainID:           res.Get("chain_id").String(),
		LatestBlockHash:   res.Get("sync_info.latest_block_hash").String(),
		LatestBlockHeight: res.Get("sync_info.latest_block_height").Uint(),
		Syncing:           res.Get("sync_info.syncing").Bool(),
	}, nil
}

// CallResult is the outcome of a view function call.
type CallResult struct {
	Result      []byte
	Logs        []string
	BlockHash   string
	BlockHeight uint64
}

// JSON parses Result as a JSON document.
func (r *CallResult) JSON() (gjson.Result, error) {
	if !gjson.ValidBytes(r.Result) {
		return gjson.Result{}, fmt.Errorf("%w: result is not json", ErrInvalidResponse)
	}
	return gjson.ParseBytes(r.Result), nil
}

// CallFunction invokes the view method of accountID with JSON-encoded args.
func (c *Client) CallFunction(ctx context.Context, block BlockRef, accountID, method string, args any) (*CallResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal args: %w", err)
	}

	params := map[string]any{
		"request_type": "call_function",
		"account_id":   accountID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(rawArgs),
	}
	if err := block.apply(params); err != nil {
		return nil, err
	}

	res, err := c.call(ctx, "query", params)
	if err != nil {
		return nil, fmt.Errorf("call %s.%s: %w", accountID, method, err)
	}

	// Older nodes report execution failures inside the result.
	if e := res.Get("error"); e.Exists() {
		return nil, fmt.Errorf("call %s.%s: %w: %s", accountID, method, ErrFunctionCall, e.String())
	}

	bytesField := res.Get("result")
	if !bytesField.IsArray() {
		return nil, fmt.Errorf("call %s.%s: %w: missing result bytes", accountID, method, ErrInvalidResponse)
	}
	out := &CallResult{
		BlockHash:   res.Get("block_hash").String(),
		BlockHeight: res.Get("block_height").Uint(),
	}
	for _, b := range bytesField.Array() {
		v := b.Int()
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("call %s.%s: %w: byte out of range", accountID, method, ErrInvalidResponse)
		}
		out.Result = append(out.Result, byte(v))
	}
	for _, l := range res.Get("logs").Array() {
		out.Logs = append(out.Logs, l.String())
	}
	if out.BlockHash != "" {
		if err := ValidateBlockHash(out.BlockHash); err != nil {
			return nil, fmt.Errorf("call %s.%s: %w", accountID, method, err)
		}
	}
	return out, nil
}
