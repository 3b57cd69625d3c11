package solana

import (
	"fmt"
	"strings"

	sollib "github.com/gagliardetto/solana-go"

	"github.com/bft-labs/dropship/internal/domain"
)

// LoadSigner returns the signing key from a solana-keygen JSON file or,
// if keypairPath is empty, from a base58-encoded secret key.
func LoadSigner(keypairPath, privateKey string) (sollib.PrivateKey, error) {
	switch {
	case keypairPath != "":
		key, err := sollib.PrivateKeyFromSolanaKeygenFile(keypairPath)
		if err != nil {
			return nil, fmt.Errorf("%w: keypair %s: %w", domain.ErrInvalidConfig, keypairPath, err)
		}
		return key, nil
	case strings.TrimSpace(privateKey) != "":
		key, err := sollib.PrivateKeyFromBase58(strings.TrimSpace(privateKey))
		if err != nil {
			// Never echo the secret.
			return nil, fmt.Errorf("%w: private key is not a valid base58 ed25519 key", domain.ErrInvalidConfig)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: no signer configured, set keypair or private_key", domain.ErrInvalidConfig)
	}
}
