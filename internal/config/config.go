package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	RPCEndpoint   string
	ContractID    string
	LogLevel      string
	RPCTimeout    time.Duration
	RPCMaxRetries int
	Tokens        TokenDecimals
}

func FromEnv() (*Config, error) {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":1337"
	}

	rpcURL := os.Getenv("NEAR_RPC_URL")
	if rpcURL == "" {
		return nil, ErrMissingRPCEndpoint
	}

	contractID := os.Getenv("REF_CONTRACT_ID")
	if contractID == "" {
		contractID = "v2.ref-finance.near"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	timeout := 15 * time.Second
	if v := os.Getenv("RPC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: RPC_TIMEOUT=%q", ErrInvalidValue, v)
		}
		timeout = d
	}

	retries := 3
	if v := os.Getenv("RPC_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: RPC_MAX_RETRIES=%q", ErrInvalidValue, v)
		}
		retries = n
	}

	tokens := TokenDecimals{}
	if path := os.Getenv("TOKENS_FILE"); path != "" {
		t, err := LoadTokenDecimals(path)
		if err != nil {
			return nil, err
		}
		tokens = t
	}

	cfg := &Config{
		Addr:          addr,
		RPCEndpoint:   rpcURL,
		ContractID:    contractID,
		LogLevel:      logLevel,
		RPCTimeout:    timeout,
		RPCMaxRetries: retries,
		Tokens:        tokens,
	}

	return cfg, nil
}
