package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wave-swap/config"
	"wave-swap/pkg/chain"
	"wave-swap/pkg/pool"
	"wave-swap/pkg/resilience"
	"wave-swap/pkg/signer"
)

var rootCmd = &cobra.Command{
	Use:   "wave-swap",
	Short: "A CLI for private token swaps through the Wave privacy pool",
	Long: `wave-swap is a command-line tool for swapping Solana tokens privately
through the Wave privacy pool. Deposits, swaps and withdrawals are planned
up front, executed stage by stage and recorded locally so interrupted swaps
can always be recovered.

Examples:
  wave-swap swap 1.5 USDC to WAVE
  wave-swap swap 100 WAVE to USDC --no-withdraw
  wave-swap balance
  wave-swap status <order-id> --watch
  wave-swap recover <signature> --type deposit
  wave-swap list-tokens`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// services holds the wired clients every command starts from. The resilience
// caller is shared so the pool and chain endpoints keep independent but
// consistent circuit state for the lifetime of the process.
type services struct {
	cfg    *config.Config
	caller *resilience.Caller
	pool   *pool.Client
	chain  *chain.Client
	signer *signer.LocalSigner
}

func newServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	caller := resilience.NewCaller()
	poolClient, err := pool.NewClient(cfg.PoolBaseURL, cfg.PoolAPIKey, caller)
	if err != nil {
		return nil, err
	}

	svc := &services{
		cfg:    cfg,
		caller: caller,
		pool:   poolClient,
		chain:  chain.NewClient(cfg.SolanaRPCURL, caller),
	}

	if cfg.WalletPrivateKey != "" {
		svc.signer, err = signer.NewLocalSigner(cfg.WalletPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet private key: %w", err)
		}
	}
	return svc, nil
}

// requireSigner errors when the command needs to sign but no wallet key is
// configured.
func (s *services) requireSigner() (*signer.LocalSigner, error) {
	if s.signer == nil {
		return nil, fmt.Errorf("no wallet configured. Please set WAVE_SWAP_WALLET_PRIVATE_KEY or add wallet_private_key to .wave-swap.yaml")
	}
	return s.signer, nil
}

// balanceProof signs a fresh read-authorization message for the pool's
// confidential balance endpoints.
func (s *services) balanceProof() (pool.SignedMessage, error) {
	sgn, err := s.requireSigner()
	if err != nil {
		return pool.SignedMessage{}, err
	}
	message := fmt.Sprintf("wave-pool:balance-read:%s:%d", sgn.PublicKey(), time.Now().Unix())
	sig, err := sgn.SignMessage([]byte(message))
	if err != nil {
		return pool.SignedMessage{}, fmt.Errorf("failed to sign balance proof: %w", err)
	}
	return pool.SignedMessage{Message: message, Signature: sig}, nil
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
