package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	sollib "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// Config contains RPC client settings.
type Config struct {
	// Endpoint is the JSON-RPC URL.
	Endpoint string

	// Commitment used for reads and preflight. Defaults to confirmed.
	Commitment solrpc.CommitmentType

	// RequestsPerSecond caps outbound RPC calls. Zero means unlimited.
	RequestsPerSecond float64

	// FetchAttempts bounds retries of the blockhash fetch.
	FetchAttempts uint

	// SendAttempts bounds retries of transport failures when broadcasting.
	// Resending the same signed transaction is idempotent.
	SendAttempts uint

	// RetryDelay separates retry attempts.
	RetryDelay time.Duration

	// PollInterval separates signature status polls.
	PollInterval time.Duration

	// SkipPreflight disables transaction simulation before broadcast.
	SkipPreflight bool
}

// DefaultConfig returns settings suitable for public clusters.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:      endpoint,
		Commitment:    solrpc.CommitmentConfirmed,
		FetchAttempts: 3,
		SendAttempts:  2,
		RetryDelay:    250 * time.Millisecond,
		PollInterval:  500 * time.Millisecond,
	}
}

// Client implements ports.Ledger.
type Client struct {
	rpc     *solrpc.Client
	signer  sollib.PrivateKey
	limiter *rate.Limiter
	cfg     Config
	logger  ports.Logger
}

// New creates a client that signs every transaction with signer.
func New(cfg Config, signer sollib.PrivateKey, logger ports.Logger) *Client {
	if cfg.Commitment == "" {
		cfg.Commitment = solrpc.CommitmentConfirmed
	}
	if cfg.FetchAttempts == 0 {
		cfg.FetchAttempts = 1
	}
	if cfg.SendAttempts == 0 {
		cfg.SendAttempts = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := max(int(cfg.RequestsPerSecond), 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		rpc:     solrpc.New(cfg.Endpoint),
		signer:  signer,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

// Authority returns the public key of the signing account.
func (c *Client) Authority() domain.Address {
	return domain.Address(c.signer.PublicKey())
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rpc.Close()
}

// retryOpts returns fixed-delay retry options. attempts == 0 retries until
// success, an unrecoverable error, or ctx ends.
func retryOpts(ctx context.Context, attempts uint, delay time.Duration) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	}
}

// FetchWindow returns the latest blockhash and its last valid block height.
func (c *Client) FetchWindow(ctx context.Context) (domain.FreshnessWindow, error) {
	var res *solrpc.GetLatestBlockhashResult
	err := retry.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(err)
		}
		var rerr error
		res, rerr = c.rpc.GetLatestBlockhash(ctx, c.cfg.Commitment)
		return rerr
	}, retryOpts(ctx, c.cfg.FetchAttempts, c.cfg.RetryDelay)...)
	if err != nil {
		return domain.FreshnessWindow{}, &domain.WindowFetchError{
			Err: fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, err),
		}
	}
	if res == nil || res.Value == nil {
		return domain.FreshnessWindow{}, &domain.WindowFetchError{
			Err: fmt.Errorf("%w: empty getLatestBlockhash result", domain.ErrNetworkUnavailable),
		}
	}

	return domain.FreshnessWindow{
		Reference:    res.Value.Blockhash.String(),
		ExpiryHeight: res.Value.LastValidBlockHeight,
		FetchedAt:    time.Now(),
	}, nil
}

// Submit signs the operation and broadcasts it. It returns once the RPC
// node has accepted the transaction.
func (c *Client) Submit(ctx context.Context, op *domain.Operation) (domain.Ticket, error) {
	tx, err := c.buildTx(op)
	if err != nil {
		return domain.Ticket{}, &domain.SubmissionError{Reason: domain.RejectMalformedInstruction, Err: err}
	}

	var sig sollib.Signature
	err = retry.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(err)
		}
		var rerr error
		sig, rerr = c.rpc.SendTransactionWithOpts(ctx, tx, solrpc.TransactionOpts{
			SkipPreflight:       c.cfg.SkipPreflight,
			PreflightCommitment: c.cfg.Commitment,
		})
		if rerr != nil && !isTransient(rerr) {
			return retry.Unrecoverable(rerr)
		}
		return rerr
	}, retryOpts(ctx, c.cfg.SendAttempts, c.cfg.RetryDelay)...)
	if err != nil {
		return domain.Ticket{}, classify(err)
	}

	c.logger.Debug("transaction sent",
		ports.Int("chunk", op.Chunk.Index),
		ports.String("signature", sig.String()),
		ports.Int("instructions", len(op.Instructions)),
	)
	return domain.Ticket{
		Signature:  sig.String(),
		ChunkIndex: op.Chunk.Index,
		Window:     op.Window,
		IssuedAt:   time.Now(),
	}, nil
}

func (c *Client) buildTx(op *domain.Operation) (*sollib.Transaction, error) {
	blockhash, err := sollib.HashFromBase58(op.Window.Reference)
	if err != nil {
		return nil, fmt.Errorf("window reference %q: %w", op.Window.Reference, err)
	}

	instructions := make([]sollib.Instruction, 0, len(op.Instructions))
	for i, ix := range op.Instructions {
		built, err := token.NewTransferInstruction(
			ix.Amount,
			sollib.PublicKey(ix.Source),
			sollib.PublicKey(ix.Destination),
			sollib.PublicKey(ix.Authority),
			nil,
		).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		instructions = append(instructions, built)
	}

	tx, err := sollib.NewTransaction(instructions, blockhash, sollib.TransactionPayer(c.signer.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("assemble transaction: %w", err)
	}

	signerKey := c.signer.PublicKey()
	if _, err := tx.Sign(func(pub sollib.PublicKey) *sollib.PrivateKey {
		if pub.Equals(signerKey) {
			return &c.signer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// errPending keeps the status poll going.
var errPending = errors.New("transaction not yet confirmed")

// AwaitConfirmation polls the signature status until the transaction reaches
// the configured commitment, fails on-chain, or its blockhash expires.
func (c *Client) AwaitConfirmation(ctx context.Context, t domain.Ticket) error {
	sig, err := sollib.SignatureFromBase58(t.Signature)
	if err != nil {
		return &domain.SubmissionError{Reason: domain.RejectUnknown, Err: fmt.Errorf("parse signature: %w", err)}
	}

	err = retry.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(err)
		}
		res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			c.logger.Debug("signature status poll failed", ports.String("signature", t.Signature), ports.Err(err))
			return err
		}
		if res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return retry.Unrecoverable(classifyStatusErr(status.Err))
			}
			if c.reached(status.ConfirmationStatus) {
				return nil
			}
			return errPending
		}

		// Unknown to the cluster: give up once the blockhash can no longer land.
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(err)
		}
		height, err := c.rpc.GetBlockHeight(ctx, c.cfg.Commitment)
		if err != nil {
			return err
		}
		if !t.Window.IsValid(height) {
			return retry.Unrecoverable(&domain.SubmissionError{
				Reason: domain.RejectStaleWindow,
				Err:    fmt.Errorf("block height %d passed last valid height %d", height, t.Window.ExpiryHeight),
			})
		}
		return errPending
	}, retryOpts(ctx, 0, c.cfg.PollInterval)...)
	if err == nil {
		return nil
	}

	var se *domain.SubmissionError
	if errors.As(err, &se) {
		return se
	}
	return classify(err)
}

func (c *Client) reached(status solrpc.ConfirmationStatusType) bool {
	switch status {
	case solrpc.ConfirmationStatusFinalized:
		return true
	case solrpc.ConfirmationStatusConfirmed:
		return c.cfg.Commitment != solrpc.CommitmentFinalized
	case solrpc.ConfirmationStatusProcessed:
		return c.cfg.Commitment == solrpc.CommitmentProcessed
	}
	return false
}
