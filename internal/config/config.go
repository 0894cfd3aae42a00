package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		LogLevel    string `mapstructure:"log_level"`
		JWTSecret   string `mapstructure:"jwt_secret"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Storage struct {
		Provider     string `mapstructure:"provider"` // "local" or "s3"
		LocalRoot    string `mapstructure:"local_root"`
		KeyID        string `mapstructure:"key_id"`
		AppKey       string `mapstructure:"app_key"`
		Endpoint     string `mapstructure:"endpoint"`
		Region       string `mapstructure:"region"`
		BucketAudio  string `mapstructure:"bucket_audio"`
		PresignHours int    `mapstructure:"presign_hours"`
	} `mapstructure:"storage"`
	Planner struct {
		BaseURL        string `mapstructure:"base_url"`
		EstimatorModel string `mapstructure:"estimator_model"`
		CuratorModel   string `mapstructure:"curator_model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		BatchSize      int    `mapstructure:"batch_size"`
	} `mapstructure:"planner"`
	Player struct {
		TickMillis     int     `mapstructure:"tick_millis"`
		PreviewSeconds float64 `mapstructure:"preview_seconds"`
		MasterVolume   float64 `mapstructure:"master_volume"`
		ProfilesPath   string  `mapstructure:"profiles_path"`
		DryRun         bool    `mapstructure:"dry_run"`
	} `mapstructure:"player"`
}

func Load() *Config {
	viper.SetEnvPrefix("MIXBOOTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.log_level")
	viper.BindEnv("server.jwt_secret")

	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	viper.BindEnv("storage.provider")
	viper.BindEnv("storage.local_root")
	viper.BindEnv("storage.key_id")
	viper.BindEnv("storage.app_key")
	viper.BindEnv("storage.endpoint")
	viper.BindEnv("storage.region")
	viper.BindEnv("storage.bucket_audio")
	viper.BindEnv("storage.presign_hours")

	viper.BindEnv("planner.base_url")
	viper.BindEnv("planner.estimator_model")
	viper.BindEnv("planner.curator_model")
	viper.BindEnv("planner.timeout_seconds")
	viper.BindEnv("planner.batch_size")

	viper.BindEnv("player.tick_millis")
	viper.BindEnv("player.preview_seconds")
	viper.BindEnv("player.master_volume")
	viper.BindEnv("player.profiles_path")

	// Defaults
	viper.SetDefault("server.port", ":8081")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("server.jwt_secret", "super-secret-booth-key-change-me")

	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_root", "./data")
	viper.SetDefault("storage.bucket_audio", "mixbooth-audio")
	viper.SetDefault("storage.presign_hours", 1)

	// Planner Defaults (local Ollama)
	viper.SetDefault("planner.base_url", "http://localhost:11434")
	viper.SetDefault("planner.estimator_model", "llama3.1:8b")
	viper.SetDefault("planner.curator_model", "llama3.1:8b")
	viper.SetDefault("planner.timeout_seconds", 120)
	viper.SetDefault("planner.batch_size", 20)

	// Player Defaults (100ms tick: timeupdate-style events are too coarse
	// for tight crossfade timing)
	viper.SetDefault("player.tick_millis", 100)
	viper.SetDefault("player.preview_seconds", 20)
	viper.SetDefault("player.master_volume", 1.0)
	viper.SetDefault("player.profiles_path", "")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Storage.Provider == "s3" && cfg.Storage.KeyID == "" {
		log.Fatal("Critical: S3 KeyID is missing (MIXBOOTH_STORAGE_KEY_ID)")
	}

	return &cfg
}
