// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Storage   StorageConfig
	Drive     DriveConfig
	Database  DatabaseConfig
	Analytics AnalyticsConfig
	Cache     CacheConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// DatasetConfig selects and orders the dataset sources tried at startup.
type DatasetConfig struct {
	Sources        []string
	Files          []string
	Dir            string
	DownloadDir    string
	Workers        int
	SyntheticItems int
	SyntheticSeed  int64
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Key       string
	Prefix    string
}

type DriveConfig struct {
	CredentialsJSON string
	CredentialsFile string
	FolderID        string
	FolderPath      string
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Table    string
	MaxRows  int
}

// DSN returns the connection string, preferring DB_URL when set.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AnalyticsConfig struct {
	ClusterK            int
	ClusterNInit        int
	ClusterSeed         *int64
	MinGroupSize        int
	SeasonalityPolicy   string
	SeasonalityKeyword  string
	SeasonalityMinMean  float64
	SeasonalityMinMonth int
	SeasonalityTopN     int
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = build()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DATASET_SOURCES", "file,synthetic")
	viper.SetDefault("DATASET_FILES", "df_analise.csv.gz,estoque.csv")
	viper.SetDefault("DATASET_DIR", "./data")
	viper.SetDefault("DATASET_DOWNLOAD_DIR", "./data/downloads")
	viper.SetDefault("DATASET_WORKERS", 4)
	viper.SetDefault("SYNTHETIC_ITEMS", 500)
	viper.SetDefault("SYNTHETIC_SEED", 42)

	viper.SetDefault("STORAGE_ENDPOINT", "")
	viper.SetDefault("STORAGE_ACCESS_KEY", "")
	viper.SetDefault("STORAGE_SECRET_KEY", "")
	viper.SetDefault("STORAGE_BUCKET", "")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_KEY", "")
	viper.SetDefault("STORAGE_PREFIX", "")

	viper.SetDefault("DRIVE_CREDENTIALS_JSON", "")
	viper.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	viper.SetDefault("DRIVE_FOLDER_ID", "")
	viper.SetDefault("DRIVE_FOLDER_PATH", "")

	viper.SetDefault("DB_DRIVER", "pgx")
	viper.SetDefault("DB_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "hospital")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TABLE", "movimentacao_estoque")
	viper.SetDefault("DB_MAX_ROWS", 0)

	viper.SetDefault("ANALYTICS_CLUSTER_K", 3)
	viper.SetDefault("ANALYTICS_CLUSTER_N_INIT", 10)
	viper.SetDefault("ANALYTICS_CLUSTER_SEED", 42)
	viper.SetDefault("ANALYTICS_MIN_GROUP_SIZE", 10)
	viper.SetDefault("SEASONALITY_POLICY", "threshold")
	viper.SetDefault("SEASONALITY_KEYWORD", "MEDICAMENTO")
	viper.SetDefault("SEASONALITY_MIN_MEAN", 10)
	viper.SetDefault("SEASONALITY_MIN_MONTHS", 6)
	viper.SetDefault("SEASONALITY_TOP_N", 10)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Dataset: DatasetConfig{
			Sources:        splitList(viper.GetString("DATASET_SOURCES")),
			Files:          splitList(viper.GetString("DATASET_FILES")),
			Dir:            viper.GetString("DATASET_DIR"),
			DownloadDir:    viper.GetString("DATASET_DOWNLOAD_DIR"),
			Workers:        viper.GetInt("DATASET_WORKERS"),
			SyntheticItems: viper.GetInt("SYNTHETIC_ITEMS"),
			SyntheticSeed:  viper.GetInt64("SYNTHETIC_SEED"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Key:       viper.GetString("STORAGE_KEY"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: viper.GetString("DRIVE_CREDENTIALS_JSON"),
			CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
			FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			URL:      viper.GetString("DB_URL"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			Table:    viper.GetString("DB_TABLE"),
			MaxRows:  viper.GetInt("DB_MAX_ROWS"),
		},
		Analytics: AnalyticsConfig{
			ClusterK:            viper.GetInt("ANALYTICS_CLUSTER_K"),
			ClusterNInit:        viper.GetInt("ANALYTICS_CLUSTER_N_INIT"),
			ClusterSeed:         clusterSeed(),
			MinGroupSize:        viper.GetInt("ANALYTICS_MIN_GROUP_SIZE"),
			SeasonalityPolicy:   viper.GetString("SEASONALITY_POLICY"),
			SeasonalityKeyword:  viper.GetString("SEASONALITY_KEYWORD"),
			SeasonalityMinMean:  viper.GetFloat64("SEASONALITY_MIN_MEAN"),
			SeasonalityMinMonth: viper.GetInt("SEASONALITY_MIN_MONTHS"),
			SeasonalityTopN:     viper.GetInt("SEASONALITY_TOP_N"),
		},
		Cache: CacheConfig{
			Enabled:       viper.GetBool("CACHE_ENABLED"),
			RedisURL:      viper.GetString("REDIS_URL"),
			RedisHost:     viper.GetString("REDIS_HOST"),
			RedisPort:     viper.GetString("REDIS_PORT"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
			TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
		},
	}
}

// clusterSeed is nil only when no seed is configured at all, so an explicit
// ANALYTICS_CLUSTER_SEED=0 is honored.
func clusterSeed() *int64 {
	if !viper.IsSet("ANALYTICS_CLUSTER_SEED") {
		return nil
	}
	seed := viper.GetInt64("ANALYTICS_CLUSTER_SEED")
	return &seed
}

// splitList reads a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
