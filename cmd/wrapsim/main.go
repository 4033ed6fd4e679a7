// Command wrapsim runs one simulated wrap or unwrap of the chain's gas token.
//
// A zero-value self-addressed transaction is signed and sent through the wallet, and the
// simulated ledger is updated as if the wrapped-native contract had been called.
//
// Usage:
//
//	wrapsim --config config.yaml
//	wrapsim --platform simulate --direction wrap --amount 1.5
//	wrapsim --platform ethereum --rpc https://rpc.example.org --keyenv WRAPSIM_PRIVATE_KEY
//
// Required environment variables:
//
//	For the ethereum platform: the variable named by --keyenv (WRAPSIM_PRIVATE_KEY by default)
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/wrapsim/config"
	"github.com/vadiminshakov/wrapsim/internal/clients"
	"github.com/vadiminshakov/wrapsim/internal/domain"
	"github.com/vadiminshakov/wrapsim/internal/events"
	"github.com/vadiminshakov/wrapsim/internal/issuer"
	"github.com/vadiminshakov/wrapsim/internal/session"
	"github.com/vadiminshakov/wrapsim/internal/storage/txhistory"
	"github.com/vadiminshakov/wrapsim/internal/wrap"
	"go.uber.org/zap"
)

var (
	special = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}
	subtle  = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginBottom(1)
	okStyle    = lipgloss.NewStyle().Foreground(special).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(warning).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(subtle)
)

type wallet interface {
	issuer.Provider
	session.BalanceSource
}

type ethWallet struct {
	*clients.EthProvider
	*clients.BalanceSource
}

func main() {
	cfg, err := config.Get(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		logger.Fatal("wrapsim failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	w, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	chainID, _ := w.ChainID()

	native, ok := domain.NativeCurrency(chainID)
	if !ok {
		return errors.Errorf("chain %d has no known wrapped native currency", chainID)
	}
	wrapped, _ := domain.WrappedNative(chainID)
	input, output := native, wrapped
	if cfg.Direction == config.DirectionUnwrap {
		input, output = wrapped, native
	}

	if sim, ok := w.(*clients.SimulateProvider); ok {
		sim.SetBalance(input, domain.NewAmount(input, cfg.SimulatedBalance))
	}

	history, err := txhistory.NewWALStore(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := history.Close(); err != nil {
			logger.Warn("failed to close transaction history", zap.Error(err))
		}
	}()

	changes := events.NewBalanceBroadcaster(16)
	updates := changes.Subscribe()
	defer changes.Unsubscribe(updates)

	sess, err := session.Start(w, w, session.Options{
		StateDir: cfg.StateDir,
		Recorder: history,
		Events:   changes,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%s %s -> %s on chain %d", cfg.Direction, input.Symbol, output.Symbol, chainID)))

	amount := cfg.Amount
	if amount == "" {
		amount, err = askAmount(input)
		if err != nil {
			return err
		}
	}

	res := sess.Resolve(ctx, &input, &output, amount)
	if res.WrapType == domain.WrapTypeNotApplicable {
		fmt.Println(labelStyle.Render("wrap is not applicable for this pair"))
		return nil
	}
	if res.InputError.IsError() || res.Execute == nil {
		fmt.Println(errStyle.Render(wrap.ErrorText(res.InputError, chainID, cfg.Language)))
		return nil
	}

	index := history.CurrentIndex()
	hash, err := res.Execute(ctx)
	if err != nil {
		var partial *wrap.PartialUpdateError
		if errors.As(err, &partial) {
			logger.Error("simulated ledger needs reconciliation",
				zap.String("hash", partial.Hash.Hex()),
				zap.String("stage", string(partial.Stage)))
		}
		return err
	}

	fmt.Println(okStyle.Render("submitted " + hash.Hex()))
	printChanges(updates)
	for _, c := range []domain.Currency{input, output} {
		balance, err := sess.DisplayBalance(ctx, c)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", labelStyle.Render(c.Symbol+" balance:"), balance.Exact())
	}

	records, err := history.RecordsAfter(index)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s #%d %s unwrapped=%t raw=%s\n", labelStyle.Render("history:"), r.Index, r.Record.Hash.Hex(), r.Record.Unwrapped, r.Record.CurrencyAmountRaw)
	}

	return nil
}

// printChanges drains ledger changes already published; the ledger publishes synchronously.
func printChanges(updates <-chan events.BalanceChange) {
	for {
		select {
		case c := <-updates:
			asset := "native"
			if !c.Native {
				asset = c.Address
			}
			fmt.Printf("%s %s %s %s -> %s\n", labelStyle.Render("ledger:"), c.Kind, asset, c.Delta, c.Balance)
		default:
			return
		}
	}
}

func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (wallet, error) {
	switch cfg.Platform {
	case config.PlatformEthereum:
		key := os.Getenv(cfg.PrivateKeyEnv)
		if key == "" {
			return nil, errors.Errorf("%s environment variable must be set", cfg.PrivateKeyEnv)
		}
		client, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			return nil, errors.Wrapf(err, "dial %s", cfg.RPCURL)
		}
		provider, err := clients.NewEthProvider(ctx, client, key, logger)
		if err != nil {
			return nil, err
		}
		balances, err := clients.NewBalanceSource(client)
		if err != nil {
			return nil, err
		}
		return &ethWallet{EthProvider: provider, BalanceSource: balances}, nil
	case config.PlatformSimulate:
		return clients.NewSimulateProvider(cfg.Account, cfg.ChainID), nil
	default:
		return nil, errors.Errorf("unsupported platform %q", cfg.Platform)
	}
}

func askAmount(input domain.Currency) (string, error) {
	var amount string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Amount of %s", input.Symbol)).
				Placeholder("1.0").
				Validate(func(s string) error {
					if _, ok := domain.TryParseAmount(s, &input); !ok {
						return errors.Errorf("enter a positive %s amount", input.Symbol)
					}
					return nil
				}).
				Value(&amount),
		),
	).Run()
	return amount, err
}
