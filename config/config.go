package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultRPCEndpoint = "https://rpc.xion-testnet-1.burnt.com:443"
	DefaultPrefix      = "xion"
	DefaultHDPath      = "m/44'/118'/0'/0/0"
	DefaultFeeDenom    = "uxion"
)

const (
	defaultFeeAmount          = 200
	defaultGasLimit           = 200000
	defaultSendAmount         = 1
	defaultInclusionTimeout   = 30
	defaultRPCTimeout         = 15
	defaultIndexSyncInterval  = 15
	defaultIndexPageSize      = 50
	defaultIndexCacheTTL      = 10
	defaultDatabasePath       = "aliases.db"
	defaultAllowedCORSOrigins = "*"
	defaultLogMode            = "development"
	defaultPort               = "8080"
)

// ErrMissingMnemonic is returned when no key material is configured. The
// service cannot sign anything without it.
var ErrMissingMnemonic = errors.New("MNEMONIC not set")

type Config struct {
	// chain connection
	RPCEndpoint string
	Prefix      string
	ChainID     string // empty means ask the node

	// key material; never log this
	Mnemonic string
	HDPath   string

	// static fee and the self-transfer amount, both in FeeDenom
	FeeDenom   string
	FeeAmount  int64
	GasLimit   uint64
	SendAmount int64

	WaitForInclusion bool
	InclusionTimeout time.Duration
	RPCTimeout       time.Duration

	// alias index
	DatabasePath      string
	IndexSyncInterval time.Duration
	IndexPageSize     int
	IndexCacheTTL     time.Duration

	// http
	AllowedOrigins []string
	Port           string

	LogMode string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// getEnvNonNegativeIntOrDefault is getEnvIntOrDefault that also accepts 0.
func getEnvNonNegativeIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %t. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvSecondsOrDefault(envVar string, defaultVal int) time.Duration {
	return time.Duration(getEnvIntOrDefault(envVar, defaultVal)) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	mnemonic := strings.TrimSpace(os.Getenv("MNEMONIC"))
	if mnemonic == "" {
		return Config{}, ErrMissingMnemonic
	}

	rpc := strings.TrimRight(getEnvOrDefault("XION_RPC", DefaultRPCEndpoint), "/")
	if !strings.HasPrefix(rpc, "http://") && !strings.HasPrefix(rpc, "https://") {
		return Config{}, fmt.Errorf("XION_RPC must be an http(s) URL, got '%s'", rpc)
	}

	cfg := Config{
		RPCEndpoint:       rpc,
		Prefix:            getEnvOrDefault("XION_PREFIX", DefaultPrefix),
		ChainID:           os.Getenv("CHAIN_ID"),
		Mnemonic:          mnemonic,
		HDPath:            getEnvOrDefault("HD_PATH", DefaultHDPath),
		FeeDenom:          getEnvOrDefault("FEE_DENOM", DefaultFeeDenom),
		FeeAmount:         int64(getEnvNonNegativeIntOrDefault("FEE_AMOUNT", defaultFeeAmount)),
		GasLimit:          uint64(getEnvIntOrDefault("GAS_LIMIT", defaultGasLimit)),
		SendAmount:        int64(getEnvIntOrDefault("SEND_AMOUNT", defaultSendAmount)),
		WaitForInclusion:  getEnvBoolOrDefault("WAIT_FOR_INCLUSION", true),
		InclusionTimeout:  getEnvSecondsOrDefault("INCLUSION_TIMEOUT_SECONDS", defaultInclusionTimeout),
		RPCTimeout:        getEnvSecondsOrDefault("RPC_TIMEOUT_SECONDS", defaultRPCTimeout),
		DatabasePath:      getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		IndexSyncInterval: getEnvSecondsOrDefault("INDEX_SYNC_INTERVAL_SECONDS", defaultIndexSyncInterval),
		IndexPageSize:     getEnvIntOrDefault("INDEX_PAGE_SIZE", defaultIndexPageSize),
		IndexCacheTTL:     getEnvSecondsOrDefault("INDEX_CACHE_TTL_SECONDS", defaultIndexCacheTTL),
		AllowedOrigins:    splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedCORSOrigins)),
		Port:              getEnvOrDefault("PORT", defaultPort),
		LogMode:           getEnvOrDefault("LOG_MODE", defaultLogMode),
	}

	return cfg, nil
}
