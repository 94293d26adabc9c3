package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Match    MatchConfig    `mapstructure:"match"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type SlackConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"botToken"` // xoxb-...
	AppToken string `mapstructure:"appToken"` // xapp-..., Socket Mode
	Debug    bool   `mapstructure:"debug"`
}

type MatchConfig struct {
	Store              string        `mapstructure:"store"` // redis, postgres, memory
	Lock               string        `mapstructure:"lock"`  // local, redis
	StaleWindow        time.Duration `mapstructure:"staleWindow"`
	StoreTimeout       time.Duration `mapstructure:"storeTimeout"`
	LockTTL            time.Duration `mapstructure:"lockTTL"`
	ScanBatch          int           `mapstructure:"scanBatch"`
	MaxConflictRetries int           `mapstructure:"maxConflictRetries"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	// every key needs a default so WETIME_* variables are seen by Unmarshal
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", 24)
	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.botToken", "")
	v.SetDefault("slack.appToken", "")
	v.SetDefault("slack.debug", false)
	v.SetDefault("match.store", "redis")
	v.SetDefault("match.lock", "redis")
	v.SetDefault("match.staleWindow", 30*time.Minute)
	v.SetDefault("match.storeTimeout", 3*time.Second)
	v.SetDefault("match.lockTTL", 10*time.Second)
	v.SetDefault("match.scanBatch", 50)
	v.SetDefault("match.maxConflictRetries", 3)
}

// LoadConfig reads the YAML file at path. Any key can be overridden from the
// environment as WETIME_<SECTION>_<KEY>, e.g. WETIME_SLACK_BOTTOKEN.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("wetime")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Match.Store {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("match.store must be redis, postgres or memory, got %q", c.Match.Store)
	}
	switch c.Match.Lock {
	case "local", "redis":
	default:
		return fmt.Errorf("match.lock must be local or redis, got %q", c.Match.Lock)
	}
	if c.Match.StaleWindow <= 0 {
		return fmt.Errorf("match.staleWindow must be positive")
	}
	if c.Slack.Enabled && (c.Slack.BotToken == "" || c.Slack.AppToken == "") {
		return fmt.Errorf("slack.botToken and slack.appToken are required when slack is enabled")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
