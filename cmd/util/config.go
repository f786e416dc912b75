package util

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/printhq/cloudprint/internal/cloud"
	"github.com/printhq/cloudprint/internal/metrics"
	"github.com/printhq/cloudprint/internal/store/recent"
	"github.com/spf13/viper"
)

// Config

type Config struct {
	Cloud  *cloud.Config `validate:"required"`
	Token  *TokenConfig
	Recent *RecentConfig
	Log    *LogConfig `validate:"required"`
}

type TokenConfig struct {
	// AccessToken is the bearer token used for device-authenticated
	// requests, provisioned out of band.
	AccessToken string        `mapstructure:"access-token"`
	CacheLeeway time.Duration `mapstructure:"cache-leeway"`
}

type LogConfig struct {
	Level string `validate:"required"`
}

// Recent store

type StoreKind string

const (
	Sqlite   StoreKind = "sqlite"
	Postgres StoreKind = "postgres"
)

type RecentConfig struct {
	Kind     StoreKind
	Sqlite   *recent.SqliteConfig
	Postgres *recent.PostgresConfig
}

func NewConfig() (*Config, error) {
	var config *Config

	decodeHooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	if err := viper.Unmarshal(&config, viper.DecodeHook(decodeHooks)); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

// NewClient wires a token provider and the orchestrator from config.
func NewClient(config *Config, metrics *metrics.Metrics) (*cloud.Client, error) {
	return cloud.New(config.Cloud, NewTokenProvider(config.Token), metrics)
}

func NewTokenProvider(config *TokenConfig) cloud.TokenProvider {
	if config == nil {
		return &cloud.StaticTokenProvider{}
	}

	var provider cloud.TokenProvider = &cloud.StaticTokenProvider{Token: config.AccessToken}
	if config.CacheLeeway > 0 {
		provider = &cloud.CachingTokenProvider{Provider: provider, Leeway: config.CacheLeeway}
	}

	return provider
}

// NewRecentStore builds the configured recent-destination backend; a nil
// or empty config disables persistence.
func NewRecentStore(config *RecentConfig) (recent.Store, error) {
	if config == nil || config.Kind == "" {
		return nil, nil
	}

	switch config.Kind {
	case Sqlite:
		return recent.NewSqlite(config.Sqlite)
	case Postgres:
		return recent.NewPostgres(config.Postgres)
	default:
		return nil, fmt.Errorf("unsupported recent store '%s'", config.Kind)
	}
}
