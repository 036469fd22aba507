package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type ActivationConfig struct {
	Env          string `yaml:"env"`
	HTTPServer   `yaml:"http_server"`
	ActivationDB `yaml:"activation_db"`
	LogConfig    `yaml:"log_config"`
	RedisService `yaml:"redis-service"`
	KafkaService `yaml:"kafka-service"`
	ProviderHTTP `yaml:"provider-http"`
	Migrations   `yaml:"migrations"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type ActivationDB struct {
	Dsn string `yaml:"dsn"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

type RedisService struct {
	Addr string `yaml:"addr"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"activation-events"`
}

type ProviderHTTP struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env-default:"8"`
}

func (p ProviderHTTP) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type Migrations struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func MustLoad() *ActivationConfig {

	// Processing env config variable and file
	configPath := os.Getenv("ACTIVATION_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("ACTIVATION_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg ActivationConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
