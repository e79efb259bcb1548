package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user-pda.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverDefaults(t *testing.T) {
	t.Setenv(EnvRPCURL, "")
	path := writeConfig(t, `
program_id = "75Zp2SwmevG3tMGTHjjXkXde8KxufKyjqKZUbsThwn5f"
payer_keypair = "/tmp/payer.json"
airdrop_lamports = 2000000000
confirm_timeout = "45s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, "75Zp2SwmevG3tMGTHjjXkXde8KxufKyjqKZUbsThwn5f", cfg.ProgramID.Base58())
	assert.Equal(t, "/tmp/payer.json", cfg.PayerKeypair)
	assert.Equal(t, uint64(2_000_000_000), cfg.AirdropLamports)
	assert.Equal(t, 45*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesRPCURL(t *testing.T) {
	t.Setenv(EnvRPCURL, "https://api.devnet.solana.com")
	path := writeConfig(t, `rpc_url = "http://localhost:1"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.RPCURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvRPCURL, "")
	for name, body := range map[string]string{
		"bad program id":  `program_id = "nope"`,
		"bad timeout":     `confirm_timeout = "soon"`,
		"zero timeout":    `confirm_timeout = "0s"`,
		"unknown key":     `lamports = 5`,
		"not toml at all": `program_id = `,
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate_RequiresProgramID(t *testing.T) {
	t.Setenv(EnvRPCURL, "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.ErrorIs(t, cfg.Validate(), ErrMissingProgramID)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "keys", "id.json"), expandHome("~/keys/id.json"))
	assert.Equal(t, "/abs/id.json", expandHome("/abs/id.json"))
}
