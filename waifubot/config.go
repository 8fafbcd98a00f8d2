package waifubot

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	Bot   BotConfig   `toml:"bot"`
	DB    DBConfig    `toml:"db"`
	Trade TradeConfig `toml:"trade"`
	Web   WebConfig   `toml:"web"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// TradeConfig holds trade and gift timings. Zero values use the defaults.
type TradeConfig struct {
	SweepIntervalSeconds int    `toml:"sweep_interval_seconds"`
	SessionTTLMinutes    int    `toml:"session_ttl_minutes"`
	InviteTTLMinutes     int    `toml:"invite_ttl_minutes"`
	GiftTTLHours         int    `toml:"gift_ttl_hours"`
	MaxOfferCards        int    `toml:"max_offer_cards"`
	GiftExpiryPolicy     string `toml:"gift_expiry_policy"`
}

// ServiceConfig converts the TOML section into the trade service config.
func (c TradeConfig) ServiceConfig() (trade.Config, error) {
	policy, err := trade.ParseGiftExpiryPolicy(c.GiftExpiryPolicy)
	if err != nil {
		return trade.Config{}, err
	}
	return trade.Config{
		SweepInterval: time.Duration(c.SweepIntervalSeconds) * time.Second,
		SessionTTL:    time.Duration(c.SessionTTLMinutes) * time.Minute,
		InviteTTL:     time.Duration(c.InviteTTLMinutes) * time.Minute,
		GiftTTL:       time.Duration(c.GiftTTLHours) * time.Hour,
		MaxOfferCards: c.MaxOfferCards,
		GiftExpiry:    policy,
	}.WithDefaults(), nil
}

type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

func (c WebConfig) ListenAddr() string {
	if c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}
