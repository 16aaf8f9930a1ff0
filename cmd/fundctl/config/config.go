package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	NodeURL         string `env:"FUNDCTL_NODE_URL" envDefault:"http://localhost:8545"`
	ContractAddress string `env:"FUNDCTL_CONTRACT_ADDRESS" envDefault:"0x5FbDB2315678afecb367f032d93F642f64180aa3"`
	KeystoreDir     string `env:"FUNDCTL_KEYSTORE_DIR" envDefault:"keystore"`
	// Passphrase unlocks the keystore account non-interactively; when empty
	// the CLI prompts on stdin instead.
	Passphrase       string `env:"FUNDCTL_PASSPHRASE"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
