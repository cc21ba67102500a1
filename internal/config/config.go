package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/validator"
)

type AlgotesterConfig struct {
	APIKey         string `mapstructure:"api_key"         validate:"required"`
	Subdomain      string `mapstructure:"subdomain"       validate:"required"`
	ContestID      int    `mapstructure:"contest_id"      validate:"required"`
	ShowUnofficial bool   `mapstructure:"show_unofficial"`
}

type AuthConfig struct {
	Username string `mapstructure:"username" validate:"required"`
	// Either an argon2id hash or a plaintext password must be set; the hash
	// wins when both are present.
	Password     string `mapstructure:"password"      validate:"required_without=PasswordHash"`
	PasswordHash string `mapstructure:"password_hash" validate:"required_without=Password"`
}

type DataConfig struct {
	Dir          string `mapstructure:"dir"            validate:"required"`
	ResetOnStart bool   `mapstructure:"reset_on_start"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type LoggingConfig struct {
	App     SlogConfig `mapstructure:"app"`
	UseOTLP bool       `mapstructure:"use_otlp"`
}

type RateLimitConfig struct {
	RedisHost     string `mapstructure:"redis_host"`
	FeedPerMinute int64  `mapstructure:"feed_per_minute"`
	FailOpen      bool   `mapstructure:"fail_open"`
}

// See ccseventfeed.yaml for an example config
type Config struct {
	Algotester           *AlgotesterConfig `mapstructure:"algotester"            validate:"required"`
	Auth                 *AuthConfig       `mapstructure:"auth"                  validate:"required"`
	Data                 *DataConfig       `mapstructure:"data"                  validate:"required"`
	Logging              *LoggingConfig    `mapstructure:"logging"`
	RateLimit            *RateLimitConfig  `mapstructure:"ratelimit"`
	ContestPackagePath   string            `mapstructure:"contest_package_path"  validate:"required"`
	TeamMappingFile      string            `mapstructure:"team_mapping_file"     validate:"required"`
	ProblemMappingFile   string            `mapstructure:"problem_mapping_file"  validate:"required"`
	ListenAddress        string            `mapstructure:"listen_address"        validate:"required"`
	PollingIntervalSecs  int64             `mapstructure:"polling_interval_secs" validate:"required"`
	GracefulShutdownSecs int64             `mapstructure:"graceful_shutdown_secs"`
}

const (
	AlgotesterAPIKey    string = "algotester.api_key"
	AlgotesterContestID string = "algotester.contest_id"
	AlgotesterSubdomain string = "algotester.subdomain"
	AppLogLevel         string = "logging.app.level"
	AuthPassword        string = "auth.password"
	AuthPasswordHash    string = "auth.password_hash"
	AuthUsername        string = "auth.username"
	ContestPackagePath  string = "contest_package_path"
	DataDir             string = "data.dir"
	DataResetOnStart    string = "data.reset_on_start"
	EnvPrefix           string = "ccseventfeed"
	FeedPerMinute       string = "ratelimit.feed_per_minute"
	GracefulShutdown    string = "graceful_shutdown_secs"
	ListenAddress       string = "listen_address"
	PollingInterval     string = "polling_interval_secs"
	ProblemMappingFile  string = "problem_mapping_file"
	RateLimitFailOpen   string = "ratelimit.fail_open"
	RedisHost           string = "ratelimit.redis_host"
	ShowUnofficial      string = "algotester.show_unofficial"
	TeamMappingFile     string = "team_mapping_file"
	UseOTLP             string = "logging.use_otlp"
)

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("ccseventfeed")

	v.AddConfigPath("/etc/ccseventfeed/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind secret env vars explicitly so they unmarshal into the nested structs
	for _, key := range []string{AlgotesterAPIKey, AuthPassword, AuthPasswordHash} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(ListenAddress, "[::]:8080")
	v.SetDefault(PollingInterval, 30)
	v.SetDefault(GracefulShutdown, 30)
	v.SetDefault(DataDir, "./data")
	v.SetDefault(DataResetOnStart, false)
	v.SetDefault(TeamMappingFile, "./team_mapping.yaml")
	v.SetDefault(ProblemMappingFile, "./problem_mapping.yaml")
	v.SetDefault(ShowUnofficial, false)

	v.SetDefault(AppLogLevel, int(slog.LevelInfo))
	v.SetDefault(UseOTLP, false)

	v.SetDefault(RedisHost, "")
	v.SetDefault(FeedPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}
