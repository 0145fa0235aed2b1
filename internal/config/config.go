package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	Bybit     BybitConfig     `mapstructure:"bybit"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	ViewCache ViewCacheConfig `mapstructure:"view_cache"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	FundingPrune    string `mapstructure:"funding_prune"`
	FundingBackfill string `mapstructure:"funding_backfill"`
	AlertCleanup    string `mapstructure:"alert_cleanup"`
}

type BybitConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	LinearWSURL  string        `mapstructure:"linear_ws_url"`
	SpotWSURL    string        `mapstructure:"spot_ws_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
	RateBurst    int           `mapstructure:"rate_burst"`
	UseWebSocket bool          `mapstructure:"use_websocket"`
}

// AssetConfig names one monitored underlying. Name doubles as the Bybit
// base coin for the instruments query.
type AssetConfig struct {
	Name            string `mapstructure:"name"`
	PerpetualSymbol string `mapstructure:"perpetual_symbol"`
	SpotSymbol      string `mapstructure:"spot_symbol"`
}

type MonitorConfig struct {
	Assets             []AssetConfig `mapstructure:"assets"`
	StalenessTolerance time.Duration `mapstructure:"staleness_tolerance"`
	ExpiryGrace        time.Duration `mapstructure:"expiry_grace"`
	SubscriberBuffer   int           `mapstructure:"subscriber_buffer"`
}

// SettingsConfig seeds the runtime settings store on first boot; once rows
// exist in the DB they win over these values.
type SettingsConfig struct {
	SpreadThresholdPercent   float64 `mapstructure:"spread_threshold_percent"`
	FundingRateHistoryDays   int     `mapstructure:"funding_rate_history_days"`
	MonitoringIntervalSecs   int     `mapstructure:"monitoring_interval_seconds"`
	ReturnOnCapitalThreshold float64 `mapstructure:"return_on_capital_threshold"`
	CapitalUSDT              float64 `mapstructure:"capital_usdt"`
	Leverage                 float64 `mapstructure:"leverage"`
	RiskFreeRate             float64 `mapstructure:"risk_free_rate"`
	AlertsEnabled            bool    `mapstructure:"alerts_enabled"`
}

type TelegramConfig struct {
	BotToken        string        `mapstructure:"bot_token"`
	ChatID          string        `mapstructure:"chat_id"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CooldownSeconds int           `mapstructure:"cooldown_seconds"`
}

type ViewCacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.funding_prune", "@every 1h")
	v.SetDefault("cron.funding_backfill", "@every 6h")
	v.SetDefault("cron.alert_cleanup", "@daily")
	v.SetDefault("bybit.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.linear_ws_url", "wss://stream.bybit.com/v5/public/linear")
	v.SetDefault("bybit.spot_ws_url", "wss://stream.bybit.com/v5/public/spot")
	v.SetDefault("bybit.timeout", "15s")
	v.SetDefault("bybit.rate_per_sec", 10)
	v.SetDefault("bybit.rate_burst", 20)
	v.SetDefault("bybit.use_websocket", false)
	v.SetDefault("monitor.assets", defaultAssets())
	v.SetDefault("monitor.staleness_tolerance", "3m")
	v.SetDefault("monitor.expiry_grace", "1h")
	v.SetDefault("monitor.subscriber_buffer", 4)
	v.SetDefault("settings.spread_threshold_percent", 0.3)
	v.SetDefault("settings.funding_rate_history_days", 30)
	v.SetDefault("settings.monitoring_interval_seconds", 60)
	v.SetDefault("settings.return_on_capital_threshold", 20)
	v.SetDefault("settings.capital_usdt", 10000)
	v.SetDefault("settings.leverage", 1)
	v.SetDefault("settings.risk_free_rate", 0.04)
	v.SetDefault("settings.alerts_enabled", false)
	v.SetDefault("telegram.timeout", "5s")
	v.SetDefault("telegram.cooldown_seconds", 300)
	v.SetDefault("view_cache.backend", "memory")
	v.SetDefault("view_cache.redis_addr", "localhost:6379")
	v.SetDefault("view_cache.redis_db", 0)
	v.SetDefault("view_cache.key_prefix", "basismon")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func defaultAssets() []map[string]any {
	return []map[string]any{
		{"name": "ETH", "perpetual_symbol": "ETHUSDT", "spot_symbol": "ETHUSDT"},
		{"name": "BTC", "perpetual_symbol": "BTCUSDT", "spot_symbol": "BTCUSDT"},
		{"name": "SOL", "perpetual_symbol": "SOLUSDT", "spot_symbol": "SOLUSDT"},
	}
}
