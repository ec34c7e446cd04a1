package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Room     Room   `yaml:"room"`
	Socket   Socket `yaml:"socket"`
	Redis    Redis  `yaml:"redis"`
}

type Room struct {
	Seats       int           `yaml:"seats" env:"ROOM_SEATS" env-default:"2"`
	DeleteGrace time.Duration `yaml:"delete-grace" env:"ROOM_DELETE_GRACE" env-default:"15s"`
	StartScore  int           `yaml:"start-score" env:"ROOM_START_SCORE" env-default:"501"`
	UndoDepth   int           `yaml:"undo-depth" env:"ROOM_UNDO_DEPTH" env-default:"64"`
}

type Socket struct {
	SendBuffer   int           `yaml:"send-buffer" env:"SOCKET_SEND_BUFFER" env-default:"64"`
	ReadLimit    int64         `yaml:"read-limit" env:"SOCKET_READ_LIMIT" env-default:"4096"`
	PongWait     time.Duration `yaml:"pong-wait" env:"SOCKET_PONG_WAIT" env-default:"60s"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"SOCKET_WRITE_TIMEOUT" env-default:"10s"`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"1h"`
}

// MustLoad - load configuration from the yml file, or from the environment only
// when the file does not exist.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
