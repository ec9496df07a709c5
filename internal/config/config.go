package config

import (
	"errors"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMongoDB  = "mongodb"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Storage struct {
		Driver string `env:"DRIVER" envDefault:"postgres"` // postgres 或 mongodb
	} `envPrefix:"STORAGE_"`
	Database struct {
		DSN                string `env:"DSN"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	MongoDB struct {
		URI            string `env:"URI" envDefault:"mongodb://localhost:27017"`
		Database       string `env:"DATABASE" envDefault:"punch_clock"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
	} `envPrefix:"MONGODB_"`
	JWT struct {
		Secret     string `env:"SECRET,required"`
		CookieName string `env:"COOKIE_NAME" envDefault:"__ecnc_punch_clock_token"`
	} `envPrefix:"JWT_"`
	Email struct {
		ManagerAddress string `env:"MANAGER_ADDRESS,required"` // 遗忘打卡提醒的收件人
		SMTP           struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD,required"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
		LockExpiration   int    `env:"LOCK_EXPIRATION" envDefault:"15"` // 打卡锁的过期时间，单位秒
	} `envPrefix:"REDIS_"`
	TimeClock struct {
		Timezone              string `env:"TIMEZONE" envDefault:"Asia/Shanghai"`
		MaxPunchDurationHours int    `env:"MAX_PUNCH_DURATION_HOURS" envDefault:"24"`
	} `envPrefix:"TIME_CLOCK_"`
	Sweeper struct {
		Enabled bool   `env:"ENABLED" envDefault:"true"`
		Spec    string `env:"SPEC" envDefault:"0 */5 * * * *"` // 带秒的 cron 表达式
	} `envPrefix:"SWEEPER_"`
	I18n struct {
		DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"zh"`
	} `envPrefix:"I18N_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	switch cfg.Storage.Driver {
	case StorageDriverPostgres:
		if cfg.Database.DSN == "" {
			return nil, errors.New("使用 postgres 存储时必须设置 DATABASE_DSN")
		}
	case StorageDriverMongoDB:
	default:
		return nil, errors.New("STORAGE_DRIVER 只能是 postgres 或 mongodb")
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location 返回计算日历日所用的时区
func (cfg *Config) Location() (*time.Location, error) {
	return time.LoadLocation(cfg.TimeClock.Timezone)
}

func (cfg *Config) MaxPunchDuration() time.Duration {
	return time.Duration(cfg.TimeClock.MaxPunchDurationHours) * time.Hour
}
