package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TokenDecimals maps NEP-141 token account ids to their decimals. Entries here
// take precedence over ft_metadata lookups.
type TokenDecimals map[string]uint8

type tokensFile struct {
	Tokens []struct {
		AccountID string `yaml:"account_id"`
		Decimals  *uint8 `yaml:"decimals"`
	} `yaml:"tokens"`
}

// LoadTokenDecimals reads a YAML file of the form
//
//	tokens:
//	  - account_id: usdt.tether-token.near
//	    decimals: 6
func LoadTokenDecimals(path string) (TokenDecimals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var f tokensFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTokensFile, err)
	}

	out := make(TokenDecimals, len(f.Tokens))
	for i, t := range f.Tokens {
		if t.AccountID == "" || t.Decimals == nil {
			return nil, fmt.Errorf("%w: entry %d needs account_id and decimals", ErrInvalidTokensFile, i)
		}
		out[t.AccountID] = *t.Decimals
	}
	return out, nil
}
