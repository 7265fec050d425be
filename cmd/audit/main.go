// Command audit quotes one swap locally and checks it against the exchange
// contract's get_return at the same block.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/joho/godotenv"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/config"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/logging"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/near"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/ref"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/service"
)

var errMismatch = errors.New("local quote differs from contract")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	rpcURL := flag.String("rpc", os.Getenv("NEAR_RPC_URL"), "NEAR RPC endpoint")
	contract := flag.String("contract", ref.DefaultContractID, "exchange contract account")
	poolID := flag.Uint64("pool", 1910, "stable pool id")
	tokenIn := flag.String("in", "", "input token account (default: the pool's first token)")
	tokenOut := flag.String("out", "", "output token account (default: the pool's second token)")
	amount := flag.String("amount", "100000000", "input amount in the token's smallest unit")
	tokensFile := flag.String("tokens", os.Getenv("TOKENS_FILE"), "YAML file of token decimals overrides")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *rpcURL == "" {
		return config.ErrMissingRPCEndpoint
	}
	amountIn, ok := math.ParseBig256(*amount)
	if !ok || amountIn.Sign() < 0 {
		return fmt.Errorf("invalid amount %q", *amount)
	}
	tokens := config.TokenDecimals{}
	if *tokensFile != "" {
		t, err := config.LoadTokenDecimals(*tokensFile)
		if err != nil {
			return err
		}
		tokens = t
	}

	logger := logging.NewLogger(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := near.Dial(ctx, *rpcURL, near.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to connect to NEAR node: %w", err)
	}
	reader := ref.NewReader(client, *contract)
	if *tokenIn == "" || *tokenOut == "" {
		pool, err := reader.GetPool(ctx, near.Final(), *poolID)
		if err != nil {
			return err
		}
		if len(pool.TokenAccountIDs) < 2 {
			return fmt.Errorf("pool %d: %w", *poolID, ref.ErrMalformedPool)
		}
		if *tokenIn == "" {
			*tokenIn = pool.TokenAccountIDs[0]
		}
		if *tokenOut == "" {
			*tokenOut = pool.TokenAccountIDs[1]
		}
	}
	svc := service.NewQuoteService(logger, nil, reader, tokens)

	c, err := svc.Compare(ctx, service.QuoteRequest{
		PoolID:   *poolID,
		TokenIn:  *tokenIn,
		TokenOut: *tokenOut,
		AmountIn: amountIn,
	})
	if err != nil {
		return err
	}

	fmt.Printf("pool %d at block %d (%s)\n", c.PoolID, c.BlockHeight, c.BlockHash)
	fmt.Printf("  %s %s -> %s\n", c.HumanAmountIn(), c.TokenIn, c.TokenOut)
	fmt.Printf("  local:    %s\n", c.AmountOut)
	fmt.Printf("  contract: %s\n", c.ContractAmountOut)
	if !c.Match {
		return errMismatch
	}
	fmt.Println("  match")
	return nil
}
