package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

type KafkaConfig struct {
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	IngestTopic     string   `toml:"ingestTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
}

// VaultConfig 凭据加密主密钥配置。masterKey 为 64 位十六进制（32 字节）。
type VaultConfig struct {
	MasterKey string `toml:"masterKey"`
}

type EmbeddingConfig struct {
	BaseURL        string `toml:"baseURL"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	BatchSize      int    `toml:"batchSize"`
	BatchDelayMs   int    `toml:"batchDelayMs"`
	RatePerSecond  int    `toml:"ratePerSecond"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type GenerationConfig struct {
	BaseURL        string  `toml:"baseURL"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"maxTokens"`
	TimeoutSeconds int     `toml:"timeoutSeconds"`
}

type VectorStoreConfig struct {
	APIKey         string `toml:"apiKey"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
	MaxLen  int `toml:"maxLen"`
}

type AIConfig struct {
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Generation  GenerationConfig  `toml:"generation"`
	VectorStore VectorStoreConfig `toml:"vectorStore"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	TopK        int               `toml:"topK"`
}

type Config struct {
	MainConfig  `toml:"mainConfig"`
	MysqlConfig `toml:"mysqlConfig"`
	JwtConfig   `toml:"jwtConfig"`
	RedisConfig `toml:"redisConfig"`
	KafkaConfig `toml:"kafkaConfig"`
	VaultConfig `toml:"vaultConfig"`
	AIConfig    `toml:"aiConfig"`
	LogConfig   `toml:"logConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := os.Getenv("DOCLINK_CONFIG")
	if configPath == "" {
		configPath = "configs/config_local.toml"
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
