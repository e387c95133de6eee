package config

// Config 配置主体
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"database"`
	Redis  RedisConfig  `mapstructure:"redis"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	IM     IMConfig     `mapstructure:"im"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"` // debug | info | warn | error
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// IMConfig 消息核心配置
type IMConfig struct {
	TypingWindowSeconds int    `mapstructure:"typing_window_seconds"` // 输入状态存活窗口
	HistoryPageSize     int    `mapstructure:"history_page_size"`
	PresenceSweepSpec   string `mapstructure:"presence_sweep_spec"` // cron 表达式
	FeedBufferSize      int    `mapstructure:"feed_buffer_size"`    // 订阅通道缓冲
}
