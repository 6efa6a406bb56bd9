package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth configures inbound bearer-token verification.
type Auth struct {
	Issuer       string        // expected `iss` claim
	Audience     string        // expected `aud` claim ("" disables the check)
	JWKSURL      string        // well-known key-set endpoint
	KeyTTL       time.Duration // how long a fetched key is reused
	FetchTimeout time.Duration // hard cap on a single key-set fetch
}

// Exchange configures the upstream exchange endpoints.
type Exchange struct {
	APIURL        string        // JSON info/exchange base URL
	WSURL         string        // allMids websocket feed
	Testnet       bool          // selects the signing source ("a" mainnet, "b" testnet)
	SubmitTimeout time.Duration // cap on the signed-submission call
}

type Server struct {
	Addr           string
	AllowedOrigins []string
}

type Risk struct {
	// NotionalWarnUSD marks order approval prompts as high-risk above this value.
	NotionalWarnUSD float64
}

type Config struct {
	Auth     Auth
	Exchange Exchange
	Server   Server
	Risk     Risk
}

func Default() Config {
	return Config{
		Auth: Auth{
			Issuer:       "https://auth.ctx.markets",
			Audience:     "",
			JWKSURL:      "https://auth.ctx.markets/.well-known/jwks.json",
			KeyTTL:       time.Hour,
			FetchTimeout: 5 * time.Second,
		},
		Exchange: Exchange{
			APIURL:        "https://api.hyperliquid.xyz",
			WSURL:         "wss://api.hyperliquid.xyz/ws",
			Testnet:       false,
			SubmitTimeout: 30 * time.Second,
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Risk: Risk{
			NotionalWarnUSD: 10000,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("AUTH_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("AUTH_JWKS_URL"); v != "" {
		cfg.Auth.JWKSURL = v
	}
	if v := os.Getenv("AUTH_KEY_TTL_MIN"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			cfg.Auth.KeyTTL = time.Duration(m) * time.Minute
		}
	}

	if v := os.Getenv("EXCHANGE_API_URL"); v != "" {
		cfg.Exchange.APIURL = v
	}
	if v := os.Getenv("EXCHANGE_WS_URL"); v != "" {
		cfg.Exchange.WSURL = v
	}
	if v := os.Getenv("EXCHANGE_TESTNET"); v != "" {
		cfg.Exchange.Testnet = v == "true"
	}
	if v := os.Getenv("EXCHANGE_SUBMIT_TIMEOUT_SEC"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Exchange.SubmitTimeout = time.Duration(s) * time.Second
		}
	}

	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SERVER_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("RISK_NOTIONAL_WARN_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.NotionalWarnUSD = f
		}
	}

	return cfg
}
