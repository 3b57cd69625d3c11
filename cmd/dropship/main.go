package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/pkg/log"
)

const helpDescription = `
Distribute a fixed amount of an SPL token to every address in a recipient list.

Highlights:
  - Groups recipients into chunks, one transaction per chunk.
  - Paces submissions and stops issuing new ones when the time budget runs out.
  - Writes a report and a retry list of every recipient that did not receive funds.
`

var exampleUsage = strings.TrimSpace(`
  dropship check --recipients wallets.txt
  dropship run --recipients wallets.txt --mint <mint> --keypair ~/.config/solana/id.json
  dropship run --config ./airdrop.yaml --report report.json --retry-out retry.txt
  dropship history --journal dropship.db
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "dropship",
		Short:         "Airdrop SPL tokens to a list of recipients",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd.Flags(), &cfg, cfgPath)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file, .toml or .yaml (default: $HOME/.dropship/config.toml)")
	pf.StringVar(&cfg.Recipients, "recipients", cfg.Recipients, "recipient list, one base58 address per line")
	pf.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "recipients per transaction")
	pf.BoolVar(&cfg.Dedupe, "dedupe", cfg.Dedupe, "drop repeated recipients before chunking")
	pf.StringVar(&cfg.Mint, "mint", cfg.Mint, "token mint address")
	pf.StringVar(&cfg.SourceAccount, "source-account", cfg.SourceAccount, "token account to send from (default: signer's associated token account)")
	pf.StringVar(&cfg.Keypair, "keypair", cfg.Keypair, "path to a solana-keygen JSON keypair")
	pf.StringVar(&cfg.PrivateKey, "private-key", cfg.PrivateKey, "base58 secret key (prefer --keypair or DROPSHIP_PRIVATE_KEY)")
	pf.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "cluster name (devnet, testnet, mainnet-beta, localnet) or RPC URL")
	pf.StringVar(&cfg.Commitment, "commitment", cfg.Commitment, "commitment level: processed, confirmed or finalized")
	pf.Float64Var(&cfg.RPCRate, "rpc-rate", cfg.RPCRate, "maximum RPC requests per second (0 = unlimited)")
	pf.Uint64Var(&cfg.Amount, "amount", cfg.Amount, "whole tokens per recipient")
	pf.IntVar(&cfg.Decimals, "decimals", cfg.Decimals, "mint decimals")
	pf.StringVar(&cfg.Journal, "journal", cfg.Journal, "sqlite journal of runs and outcomes (optional)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace, debug, info, warn, error")
	pf.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON log lines")

	root.AddCommand(newRunCommand(&cfg), newCheckCommand(&cfg), newHistoryCommand(&cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dropship: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers .env, the config file and DROPSHIP_* variables under
// the flags that were set explicitly.
func loadConfig(flags *pflag.FlagSet, cfg *cliconfig.Config, cfgPath string) error {
	if err := cliconfig.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	changed := map[string]bool{}
	flags.Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("load config: %s: %w", cfgPath, os.ErrNotExist)
	}

	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func newLogger(cfg cliconfig.Config) (*log.ZerologAdapter, error) {
	logger, err := log.New(log.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return logger, nil
}
