package config

import (
	"os"
	"strings"
	"time"
)

// Config captures the immutable process configuration. It is built once at
// startup and passed by reference into each component; nothing mutates it
// after FromEnv returns.
type Config struct {
	Addr        string
	Environment string

	// Issuance API upstream (returns the raw issued credential per wallet).
	IssuanceBaseURL string
	IssuanceAPIKey  string
	IssuanceSecret  string

	// Blockchain registry holding anchored credential hashes.
	ChainRPCURL     string
	ContractAddress string

	// CheckTimeout bounds each verification pass; a hung upstream call
	// collapses to a failed check instead of hanging the request.
	CheckTimeout time.Duration

	// AllowedOrigins are the browser origins permitted by CORS.
	AllowedOrigins []string
}

const defaultCheckTimeout = 15 * time.Second

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CERTVERIFY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	checkTimeout := defaultCheckTimeout
	if raw := os.Getenv("VERIFY_CHECK_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			checkTimeout = d
		}
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:5175"}
	}

	return Config{
		Addr:            addr,
		Environment:     env,
		IssuanceBaseURL: strings.TrimRight(os.Getenv("ISSUANCE_API_URL"), "/"),
		IssuanceAPIKey:  os.Getenv("ISSUANCE_API_KEY"),
		IssuanceSecret:  os.Getenv("ISSUANCE_API_SECRET"),
		ChainRPCURL:     os.Getenv("CHAIN_RPC_URL"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		CheckTimeout:    checkTimeout,
		AllowedOrigins:  origins,
	}
}
