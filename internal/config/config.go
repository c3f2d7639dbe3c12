package config

import (
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig points the indexer at one Solana RPC endpoint and one program.
type ChainConfig struct {
	RpcUrl         string `mapstructure:"rpc_url"`         // Solana JSON-RPC endpoint
	ProgramAddress string `mapstructure:"program_address"` // monitored program id
	SponsorAddress string `mapstructure:"sponsor_address"` // file-service fee payer, optional
	MaxRetries     int    `mapstructure:"max_retries"`     // timeout retry ceiling
	RetryDelayMs   int    `mapstructure:"retry_delay_ms"`  // linear backoff step
}

type SyncConfig struct {
	BatchSize            int `mapstructure:"batch_size"`            // signature page size
	Interval             int `mapstructure:"interval"`              // ingestion period, seconds
	VerificationInterval int `mapstructure:"verification_interval"` // seconds
	CollectorInterval    int `mapstructure:"collector_interval"`    // seconds
	CollectorWorkers     int `mapstructure:"collector_workers"`     // ants pool size
}

type MetadataConfig struct {
	Gateway         string `mapstructure:"gateway"`          // primary arweave gateway
	FallbackGateway string `mapstructure:"fallback_gateway"` // used when the primary fails
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`   // log file path when output is file
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/nina-indexer")

	viper.SetDefault("server.port", "3004")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "nina_indexer")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("chain.program_address", "ninaN2tm9vUkxoanvGcNApEeWiidLMM2TPxGHsaTvW")
	viper.SetDefault("chain.sponsor_address", "")
	viper.SetDefault("chain.max_retries", 3)
	viper.SetDefault("chain.retry_delay_ms", 500)
	viper.SetDefault("sync.batch_size", 200)
	viper.SetDefault("sync.interval", 60)
	viper.SetDefault("sync.verification_interval", 300)
	viper.SetDefault("sync.collector_interval", 3600)
	viper.SetDefault("sync.collector_workers", 8)
	viper.SetDefault("metadata.gateway", "https://arweave.net")
	viper.SetDefault("metadata.fallback_gateway", "https://gateway.irys.xyz")
	viper.SetDefault("metadata.timeout_seconds", 10)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/indexer.log")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
