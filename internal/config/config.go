package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string  `yaml:"http-port" env:"HTTP_PORT" env-default:"47673"`
	Storage  Storage `yaml:"storage"`
	Redis    Redis   `yaml:"redis"`
	Rooms    Rooms   `yaml:"rooms"`
	AI       AI      `yaml:"ai"`
	Defaults Room    `yaml:"room-defaults"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"database.db"`
}

type Redis struct {
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	DialTimeout time.Duration `yaml:"dial-timeout" env-default:"5s"`
}

type Rooms struct {
	CleanupInterval time.Duration `yaml:"cleanup-interval" env-default:"30s"`
	OnlineWindow    time.Duration `yaml:"online-window" env-default:"30s"`
	TickInterval    time.Duration `yaml:"tick-interval" env-default:"1s"`
	MaxSpectators   int           `yaml:"max-spectators" env-default:"16"`
}

type AI struct {
	ChessDepth     int           `yaml:"chess-depth" env-default:"2"`
	ChessTimeLimit time.Duration `yaml:"chess-time-limit" env-default:"5s"`
	CheckersDepth  int           `yaml:"checkers-depth" env-default:"4"`
	MaxFailures    int           `yaml:"max-failures" env-default:"5"`
	ThinkDelay     time.Duration `yaml:"think-delay" env-default:"0s"`
}

// Room holds the settings a room starts with when the creator leaves them out.
type Room struct {
	BoardSize         int           `yaml:"board-size" env-default:"10"`
	ShipCount         int           `yaml:"ship-count" env-default:"5"`
	AIEnable          bool          `yaml:"ai-enable" env-default:"true"`
	ChessVariant      string        `yaml:"chess-variant" env-default:"standard"`
	TimersEnabled     bool          `yaml:"timers-enabled" env-default:"false"`
	WhiteTime         time.Duration `yaml:"white-time" env-default:"5m"`
	BlackTime         time.Duration `yaml:"black-time" env-default:"5m"`
	Increment         time.Duration `yaml:"increment" env-default:"10s"`
	SpectatorFogOfWar bool          `yaml:"spectator-fog-of-war" env-default:"false"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Level maps log-level to a slog level. Unknown values fall back to info.
func (that *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(that.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
