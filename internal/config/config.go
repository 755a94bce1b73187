// Package config loads watcher settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"spl-transfer-watch/internal/solana"
)

// MinInterval is the smallest accepted delay, timeout or ping interval.
const MinInterval = 100 * time.Millisecond

// ErrMissingEnv is returned when a required variable is unset or blank.
var ErrMissingEnv = errors.New("missing required environment variable")

const (
	keyHeliusAPIKey     = "helius_api_key"
	keyWatchAddress     = "watch_solana_address"
	keyBotToken         = "telegram_bot_token"
	keyChatID           = "telegram_chat_id"
	keyThreshold        = "sol_threshold"
	keyReconnectDelay   = "reconnect_delay"
	keyMaxConcurrent    = "max_concurrent_resolutions"
	keyHTTPTimeout      = "http_timeout"
	keyWSPingInterval   = "ws_ping_interval"
	keyRPCURL           = "helius_rpc_url"
	keyWSURL            = "helius_ws_url"
	keyTxAPIURL         = "helius_tx_api_url"
	keyTelegramAPIURL   = "telegram_api_url"
	keyExplorerURL      = "explorer_account_url"
	keyMetricsAddr      = "metrics_addr"
	keyLogLevel         = "log_level"
	keyLogFormat        = "log_format"
	heliusRPCTemplate   = "https://mainnet.helius-rpc.com/?api-key=%s"
	heliusWSTemplate    = "wss://mainnet.helius-rpc.com/?api-key=%s"
	heliusTxAPITemplate = "https://api-mainnet.helius-rpc.com/v0/transactions?api-key=%s"
)

// Config is the immutable process configuration.
type Config struct {
	HeliusAPIKey     string
	WatchedAddress   solana.PublicKey
	TelegramBotToken string
	// TelegramChatID skips chat discovery when set.
	TelegramChatID string

	Threshold                decimal.Decimal
	ReconnectDelay           time.Duration
	MaxConcurrentResolutions int64
	HTTPTimeout              time.Duration
	WSPingInterval           time.Duration

	RPCURL         string
	WSURL          string
	TxAPIURL       string
	TelegramAPIURL string
	ExplorerURL    string

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Load reads envFile if it exists, then the process environment. Variables
// already present in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(keyThreshold, "10000")
	v.SetDefault(keyReconnectDelay, 5*time.Second)
	v.SetDefault(keyMaxConcurrent, 0)
	v.SetDefault(keyHTTPTimeout, 30*time.Second)
	v.SetDefault(keyWSPingInterval, 30*time.Second)
	v.SetDefault(keyTelegramAPIURL, "https://api.telegram.org")
	v.SetDefault(keyExplorerURL, "https://solscan.io/account/")
	v.SetDefault(keyMetricsAddr, ":9090")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "json")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var missing []string
	required := func(key string) string {
		val := strings.TrimSpace(v.GetString(key))
		if val == "" {
			missing = append(missing, strings.ToUpper(key))
		}
		return val
	}

	apiKey := required(keyHeliusAPIKey)
	address := required(keyWatchAddress)
	botToken := required(keyBotToken)
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	watched, err := solana.ParsePublicKey(address)
	if err != nil {
		return Config{}, fmt.Errorf("WATCH_SOLANA_ADDRESS: %w", err)
	}

	threshold, err := decimal.NewFromString(strings.TrimSpace(v.GetString(keyThreshold)))
	if err != nil {
		return Config{}, fmt.Errorf("SOL_THRESHOLD: %w", err)
	}
	if !threshold.IsPositive() {
		return Config{}, fmt.Errorf("SOL_THRESHOLD must be positive, got %s", threshold)
	}

	cfg := Config{
		HeliusAPIKey:             apiKey,
		WatchedAddress:           watched,
		TelegramBotToken:         botToken,
		TelegramChatID:           strings.TrimSpace(v.GetString(keyChatID)),
		Threshold:                threshold,
		ReconnectDelay:           v.GetDuration(keyReconnectDelay),
		MaxConcurrentResolutions: v.GetInt64(keyMaxConcurrent),
		HTTPTimeout:              v.GetDuration(keyHTTPTimeout),
		WSPingInterval:           v.GetDuration(keyWSPingInterval),
		RPCURL:                   orDefault(v.GetString(keyRPCURL), fmt.Sprintf(heliusRPCTemplate, apiKey)),
		WSURL:                    orDefault(v.GetString(keyWSURL), fmt.Sprintf(heliusWSTemplate, apiKey)),
		TxAPIURL:                 orDefault(v.GetString(keyTxAPIURL), fmt.Sprintf(heliusTxAPITemplate, apiKey)),
		TelegramAPIURL:           strings.TrimRight(v.GetString(keyTelegramAPIURL), "/"),
		ExplorerURL:              v.GetString(keyExplorerURL),
		MetricsAddr:              v.GetString(keyMetricsAddr),
		LogLevel:                 v.GetString(keyLogLevel),
		LogFormat:                v.GetString(keyLogFormat),
	}

	if err := checkInterval("RECONNECT_DELAY", cfg.ReconnectDelay, false); err != nil {
		return Config{}, err
	}
	if err := checkInterval("HTTP_TIMEOUT", cfg.HTTPTimeout, false); err != nil {
		return Config{}, err
	}
	if err := checkInterval("WS_PING_INTERVAL", cfg.WSPingInterval, true); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrentResolutions < 0 {
		return Config{}, fmt.Errorf("MAX_CONCURRENT_RESOLUTIONS must not be negative, got %d", cfg.MaxConcurrentResolutions)
	}

	return cfg, nil
}

// checkInterval rejects durations below MinInterval. Unitless values parse as
// nanoseconds, so "5" fails here instead of becoming a 5ns busy loop.
func checkInterval(name string, d time.Duration, zeroDisables bool) error {
	if zeroDisables && d == 0 {
		return nil
	}
	if d < MinInterval {
		return fmt.Errorf("%s must be at least %v, got %v (durations need a unit, e.g. 5s)", name, MinInterval, d)
	}
	return nil
}

func orDefault(val, def string) string {
	if val = strings.TrimSpace(val); val != "" {
		return val
	}
	return def
}

// Redacted renders the configuration with secrets masked.
func (c Config) Redacted() string {
	hide := func(s string) string {
		if c.HeliusAPIKey == "" {
			return s
		}
		return strings.ReplaceAll(s, c.HeliusAPIKey, mask(c.HeliusAPIKey))
	}

	chatID := c.TelegramChatID
	if chatID == "" {
		chatID = "(discover)"
	}

	parts := []string{
		"watched=" + c.WatchedAddress.String(),
		"helius_api_key=" + mask(c.HeliusAPIKey),
		"telegram_bot_token=" + mask(c.TelegramBotToken),
		"telegram_chat_id=" + chatID,
		"threshold=" + c.Threshold.String(),
		"reconnect_delay=" + c.ReconnectDelay.String(),
		fmt.Sprintf("max_concurrent_resolutions=%d", c.MaxConcurrentResolutions),
		"http_timeout=" + c.HTTPTimeout.String(),
		"ws_ping_interval=" + c.WSPingInterval.String(),
		"rpc_url=" + hide(c.RPCURL),
		"ws_url=" + hide(c.WSURL),
		"tx_api_url=" + hide(c.TxAPIURL),
		"telegram_api_url=" + c.TelegramAPIURL,
		"metrics_addr=" + c.MetricsAddr,
	}
	return strings.Join(parts, " ")
}

// mask keeps the last four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
