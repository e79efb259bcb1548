// Package config loads the client configuration for the user-pda CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

const (
	DefaultRPCURL         = "http://127.0.0.1:8899"
	DefaultConfirmTimeout = 30 * time.Second
	DefaultLogLevel       = "info"

	EnvRPCURL = "SOLANA_RPC_URL"
)

var ErrMissingProgramID = errors.New("program_id is required")

type Config struct {
	RPCURL          string
	ProgramID       solana.Pubkey
	PayerKeypair    string
	AirdropLamports uint64
	ConfirmTimeout  time.Duration
	LogLevel        string
}

type fileConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ProgramID       string `toml:"program_id"`
	PayerKeypair    string `toml:"payer_keypair"`
	AirdropLamports uint64 `toml:"airdrop_lamports"`
	ConfirmTimeout  string `toml:"confirm_timeout"`
	LogLevel        string `toml:"log_level"`
}

func Default() Config {
	return Config{
		RPCURL:         DefaultRPCURL,
		PayerKeypair:   defaultKeypairPath(),
		ConfirmTimeout: DefaultConfirmTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// Load reads path over the defaults. Keys absent from the file keep their
// default; SOLANA_RPC_URL overrides rpc_url.
func Load(path string) (Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
		}
		if err := apply(&cfg, raw, meta); err != nil {
			return Config{}, err
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvRPCURL)); raw != "" {
		cfg.RPCURL = raw
	}
	return cfg, nil
}

func apply(cfg *Config, raw fileConfig, meta toml.MetaData) error {
	if meta.IsDefined("rpc_url") {
		cfg.RPCURL = strings.TrimSpace(raw.RPCURL)
	}
	if meta.IsDefined("program_id") {
		pk, err := solana.ParsePubkey(raw.ProgramID)
		if err != nil {
			return fmt.Errorf("parse program_id: %w", err)
		}
		cfg.ProgramID = pk
	}
	if meta.IsDefined("payer_keypair") {
		cfg.PayerKeypair = expandHome(strings.TrimSpace(raw.PayerKeypair))
	}
	if meta.IsDefined("airdrop_lamports") {
		cfg.AirdropLamports = raw.AirdropLamports
	}
	if meta.IsDefined("confirm_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConfirmTimeout))
		if err != nil {
			return fmt.Errorf("parse confirm_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("confirm_timeout must be > 0")
		}
		cfg.ConfirmTimeout = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// Validate checks the fields every network command needs.
func (c Config) Validate() error {
	if c.ProgramID.IsZero() {
		return ErrMissingProgramID
	}
	if strings.TrimSpace(c.RPCURL) == "" {
		return errors.New("rpc_url is required")
	}
	if strings.TrimSpace(c.PayerKeypair) == "" {
		return errors.New("payer_keypair is required")
	}
	return nil
}
