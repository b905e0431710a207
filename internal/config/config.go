package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Markets  MarketsConfig  `mapstructure:"markets"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Trivia   TriviaConfig   `mapstructure:"trivia"`
	Settle   SettleConfig   `mapstructure:"settle"`
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
	Enabled    bool   `mapstructure:"enabled"`
	AutoSettle string `mapstructure:"auto_settle"`
	// Secret authorizes the external scheduler route. Empty disables it.
	Secret string `mapstructure:"secret"`
}

// MarketsConfig points at the external prediction market source.
type MarketsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CatalogConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	PageLimit  int           `mapstructure:"page_limit"`
	MaxPages   int           `mapstructure:"max_pages"`
	MaxRecords int           `mapstructure:"max_records"`
}

type QuotaConfig struct {
	PickLimitPerHour   int `mapstructure:"pick_limit_per_hour"`
	TriviaLimitPerHour int `mapstructure:"trivia_limit_per_hour"`
}

type TriviaConfig struct {
	CorrectAnswerPoints int `mapstructure:"correct_answer_points"`
	QuestionLimit       int `mapstructure:"question_limit"`
}

type SettleConfig struct {
	// InstallProcedure creates the settlement procedure at migrate time so the
	// atomic path is available on fresh deployments.
	InstallProcedure bool `mapstructure:"install_procedure"`
	// WinnerThreshold is the probability (percent) at or above which a closed
	// market's outcome is treated as the winner during auto-settlement.
	WinnerThreshold float64 `mapstructure:"winner_threshold"`
	ScanLimit       int     `mapstructure:"scan_limit"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VP")
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
	v.SetDefault("cron.auto_settle", "@every 10m")
	v.SetDefault("cron.secret", "")
	v.SetDefault("markets.base_url", "https://gamma-api.polymarket.com/markets")
	v.SetDefault("markets.api_key", "")
	v.SetDefault("markets.timeout", "15s")
	v.SetDefault("catalog.ttl", "30s")
	v.SetDefault("catalog.page_limit", 500)
	v.SetDefault("catalog.max_pages", 5)
	v.SetDefault("catalog.max_records", 1000)
	v.SetDefault("quota.pick_limit_per_hour", 10)
	v.SetDefault("quota.trivia_limit_per_hour", 10)
	v.SetDefault("trivia.correct_answer_points", 10)
	v.SetDefault("trivia.question_limit", 10)
	v.SetDefault("settle.install_procedure", true)
	v.SetDefault("settle.winner_threshold", 99.5)
	v.SetDefault("settle.scan_limit", 1000)

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
