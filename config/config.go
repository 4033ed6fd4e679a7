package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	PlatformEthereum = "ethereum"
	PlatformSimulate = "simulate"

	DirectionWrap   = "wrap"
	DirectionUnwrap = "unwrap"

	defaultPrivateKeyEnv = "WRAPSIM_PRIVATE_KEY"
	defaultStateDir      = "./wal/simulate"
	defaultHistoryDir    = "./wal/txhistory"
	defaultTimeout       = 2 * time.Minute
	defaultSimAccount    = "0x00000000000000000000000000000000000000aa"
)

type Config struct {
	Platform      string
	RPCURL        string
	ChainID       int64
	PrivateKeyEnv string
	// Account is the wallet address of the simulate platform.
	Account common.Address
	// SimulatedBalance is the on-chain balance the simulate platform reports for the input currency.
	SimulatedBalance decimal.Decimal
	Direction        string
	// Amount typed amount, empty means ask interactively.
	Amount     string
	StateDir   string
	HistoryDir string
	Debug      bool
	Language   language.Tag
	Timeout    time.Duration
}

type ConfigTmp struct {
	Platform         string        `yaml:"platform"`
	RPCURL           string        `yaml:"rpc_url"`
	ChainID          int64         `yaml:"chain_id"`
	PrivateKeyEnv    string        `yaml:"private_key_env"`
	Account          string        `yaml:"account"`
	SimulatedBalance string        `yaml:"simulated_balance"`
	Direction        string        `yaml:"direction"`
	Amount           string        `yaml:"amount"`
	StateDir         string        `yaml:"state_dir"`
	HistoryDir       string        `yaml:"history_dir"`
	Debug            bool          `yaml:"debug"`
	Language         string        `yaml:"language"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Get reads the configuration from the yaml file given by --config, or from flags.
func Get(args []string) (Config, error) {
	fs := flag.NewFlagSet("wrapsim", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	platform := fs.String("platform", PlatformSimulate, "wallet platform: ethereum or simulate")
	rpcURL := fs.String("rpc", "", "JSON-RPC endpoint, required for the ethereum platform")
	chainID := fs.Int64("chainid", 1, "chain id of the simulate platform")
	keyEnv := fs.String("keyenv", defaultPrivateKeyEnv, "environment variable holding the hex private key")
	account := fs.String("account", defaultSimAccount, "wallet address of the simulate platform")
	simBalance := fs.String("simbalance", "10", "on-chain balance reported by the simulate platform")
	direction := fs.String("direction", DirectionWrap, "wrap or unwrap")
	amount := fs.String("amount", "", "amount to wrap, prompts when empty")
	stateDir := fs.String("statedir", defaultStateDir, "simulated ledger state dir, empty disables persistence")
	historyDir := fs.String("historydir", defaultHistoryDir, "transaction history WAL dir")
	debug := fs.Bool("debug", false, "development logging")
	lang := fs.String("lang", "en", "language of validation messages")
	timeout := fs.Duration("timeout", defaultTimeout, "execution timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		return getYaml(*configPath)
	}

	return build(ConfigTmp{
		Platform:         *platform,
		RPCURL:           *rpcURL,
		ChainID:          *chainID,
		PrivateKeyEnv:    *keyEnv,
		Account:          *account,
		SimulatedBalance: *simBalance,
		Direction:        *direction,
		Amount:           *amount,
		StateDir:         *stateDir,
		HistoryDir:       *historyDir,
		Debug:            *debug,
		Language:         *lang,
		Timeout:          *timeout,
	})
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	tmp := ConfigTmp{
		Platform:         PlatformSimulate,
		ChainID:          1,
		PrivateKeyEnv:    defaultPrivateKeyEnv,
		Account:          defaultSimAccount,
		SimulatedBalance: "10",
		Direction:        DirectionWrap,
		StateDir:         defaultStateDir,
		HistoryDir:       defaultHistoryDir,
		Language:         "en",
		Timeout:          defaultTimeout,
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	return build(tmp)
}

func build(c ConfigTmp) (Config, error) {
	cfg := Config{
		Platform:      strings.ToLower(strings.TrimSpace(c.Platform)),
		RPCURL:        c.RPCURL,
		ChainID:       c.ChainID,
		PrivateKeyEnv: c.PrivateKeyEnv,
		Direction:     strings.ToLower(strings.TrimSpace(c.Direction)),
		Amount:        strings.TrimSpace(c.Amount),
		StateDir:      c.StateDir,
		HistoryDir:    c.HistoryDir,
		Debug:         c.Debug,
		Timeout:       c.Timeout,
	}

	switch cfg.Platform {
	case PlatformEthereum:
		if cfg.RPCURL == "" {
			return Config{}, fmt.Errorf("'rpc_url' is required for the %s platform", PlatformEthereum)
		}
		if cfg.PrivateKeyEnv == "" {
			return Config{}, fmt.Errorf("'private_key_env' is required for the %s platform", PlatformEthereum)
		}
	case PlatformSimulate:
		if cfg.ChainID <= 0 {
			return Config{}, fmt.Errorf("incorrect 'chain_id' param: %d", cfg.ChainID)
		}
		if !common.IsHexAddress(c.Account) {
			return Config{}, fmt.Errorf("incorrect 'account' param: %s", c.Account)
		}
		cfg.Account = common.HexToAddress(c.Account)

		balance, err := decimal.NewFromString(c.SimulatedBalance)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'simulated_balance' param (correct format is 1.5), error: %w", err)
		}
		if balance.IsNegative() {
			return Config{}, fmt.Errorf("'simulated_balance' must not be negative, got %s", balance.String())
		}
		cfg.SimulatedBalance = balance
	default:
		return Config{}, fmt.Errorf("unsupported platform %q", c.Platform)
	}

	if cfg.Direction != DirectionWrap && cfg.Direction != DirectionUnwrap {
		return Config{}, fmt.Errorf("incorrect 'direction' param: %s", c.Direction)
	}

	if cfg.Amount != "" {
		if _, err := decimal.NewFromString(cfg.Amount); err != nil {
			return Config{}, fmt.Errorf("incorrect 'amount' param (correct format is 0.5), error: %w", err)
		}
	}

	tag, err := language.Parse(c.Language)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'language' param: %s, error: %w", c.Language, err)
	}
	cfg.Language = tag

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return cfg, nil
}
