package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Domains   DomainsConfig   `mapstructure:"domains"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Global GlobalDBConfig `mapstructure:"global"`
	Tenant TenantDBConfig `mapstructure:"tenant"`
}

type GlobalDBConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type TenantDBConfig struct {
	BasePath             string `mapstructure:"base_path"`
	MaxConnectionsPerOrg int    `mapstructure:"max_connections_per_org"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type RateLimitConfig struct {
	APIReadPerMinute  int `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
	AuthPerMinute     int `mapstructure:"auth_per_minute"`
}

// RedisConfig is optional; an empty Addr keeps the lookup cache in memory.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SchedulerConfig struct {
	RentGenerationSchedule string `mapstructure:"rent_generation_schedule"`
	LateFeeSchedule        string `mapstructure:"late_fee_schedule"`
	Timezone               string `mapstructure:"timezone"`
}

type BillingConfig struct {
	TrialDays   int    `mapstructure:"trial_days"`
	DefaultPlan string `mapstructure:"default_plan"`
}

type WebhooksConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type DomainsConfig struct {
	AppDomain      string   `mapstructure:"app_domain"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Origins is the CORS allow-list: the web app's domain plus any extra origins.
func (d DomainsConfig) Origins() []string {
	origins := append([]string{}, d.AllowedOrigins...)
	if d.AppDomain != "" {
		origins = append(origins, "https://"+d.AppDomain)
	}
	return origins
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("database.global.url", "file:./data/global.db")
	v.SetDefault("database.global.max_connections", 10)
	v.SetDefault("database.tenant.base_path", "./data/tenants")
	v.SetDefault("database.tenant.max_connections_per_org", 4)
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("rate_limit.api_read_per_minute", 1000)
	v.SetDefault("rate_limit.api_write_per_minute", 200)
	v.SetDefault("rate_limit.auth_per_minute", 20)
	v.SetDefault("redis.key_prefix", "propertyhub:")
	v.SetDefault("scheduler.rent_generation_schedule", "0 0 1 * *")
	v.SetDefault("scheduler.late_fee_schedule", "30 1 * * *")
	v.SetDefault("scheduler.timezone", "Asia/Kuala_Lumpur")
	v.SetDefault("billing.trial_days", 14)
	v.SetDefault("billing.default_plan", "starter")
	v.SetDefault("webhooks.timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Load reads the YAML file at path. Environment variables override file values
// (server.port -> SERVER_PORT); a .env in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
