// Package config carrega a configuração do serviço com viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	DatabaseURL   string
	MigrationsDir string
	KafkaBrokers  []string
	KafkaTopic    string
	Currency      string
	LogLevel      string
	FaucetEnabled bool
	ListenerBatch int
}

// MirrorEnabled indica se o espelho relacional (Postgres) está configurado.
func (c Config) MirrorEnabled() bool { return c.DatabaseURL != "" }

// KafkaEnabled indica se as notificações devem ser reenviadas ao Kafka.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// SetDefaults registra os valores padrão no viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":9090")
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations_dir", "./storage/migrations")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "tijolo.notifications")
	v.SetDefault("currency", "BRL")
	v.SetDefault("log.level", "info")
	v.SetDefault("custody.faucet", false)
	v.SetDefault("listener.batch", 100)
}

// Load lê o arquivo em path (opcional, yaml) e as variáveis TIJOLO_*.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("tijolo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("falha ao ler configuração %s: %w", path, err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		HTTPAddr:      v.GetString("http.addr"),
		GRPCAddr:      v.GetString("grpc.addr"),
		DatabaseURL:   v.GetString("database.url"),
		MigrationsDir: v.GetString("database.migrations_dir"),
		KafkaBrokers:  splitList(v.GetStringSlice("kafka.brokers")),
		KafkaTopic:    v.GetString("kafka.topic"),
		Currency:      v.GetString("currency"),
		LogLevel:      v.GetString("log.level"),
		FaucetEnabled: v.GetBool("custody.faucet"),
		ListenerBatch: v.GetInt("listener.batch"),
	}
}

// splitList aceita tanto listas yaml quanto "a,b" vindo do ambiente.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
