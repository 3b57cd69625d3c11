package solana

import (
	"fmt"
	"net/url"
	"strings"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/bft-labs/dropship/internal/domain"
)

// ResolveEndpoint turns a cluster name (devnet, testnet, mainnet-beta,
// localnet) or an http(s) URL into a JSON-RPC URL.
func ResolveEndpoint(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "devnet":
		return solrpc.DevNet_RPC, nil
	case "testnet":
		return solrpc.TestNet_RPC, nil
	case "mainnet", "mainnet-beta":
		return solrpc.MainNetBeta_RPC, nil
	case "localnet", "localhost":
		return solrpc.LocalNet_RPC, nil
	}

	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: endpoint %q is neither a known cluster nor an http(s) URL", domain.ErrInvalidConfig, s)
	}
	return u.String(), nil
}
