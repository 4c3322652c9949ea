package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"layup-scheduler/internal/scheduler"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`

	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 排产计算接口限流（按客户端 IP + 路由）
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RunTTL   time.Duration `mapstructure:"run_ttl"`  // 排产结果缓存时长
	LockTTL  time.Duration `mapstructure:"lock_ttl"` // 正式排产互斥锁时长
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CategoryCapConfig 品类日上下限
type CategoryCapConfig struct {
	Min int `mapstructure:"min" validate:"gte=0"`
	Max int `mapstructure:"max" validate:"gte=0,gtefield=Min"`
}

// SchedulerConfig 排产引擎配置
type SchedulerConfig struct {
	Weekdays           []int                        `mapstructure:"weekdays" validate:"dive,gte=0,lte=6"`
	MinHorizonWeeks    int                          `mapstructure:"min_horizon_weeks" validate:"gte=1,lte=52"`
	MaxHorizonWeeks    int                          `mapstructure:"max_horizon_weeks" validate:"gte=1,lte=52,gtefield=MinHorizonWeeks"`
	UniversalCategory  string                       `mapstructure:"universal_category"`
	ReservedCategories []string                     `mapstructure:"reserved_categories" validate:"dive,required"`
	CategoryCaps       map[string]CategoryCapConfig `mapstructure:"category_caps" validate:"dive"`
	HolidayICSPath     string                       `mapstructure:"holiday_ics_path"`
	AdjustmentWeekday  int                          `mapstructure:"adjustment_weekday" validate:"gte=0,lte=6"`
	MaxScenarios       int                          `mapstructure:"max_scenarios" validate:"gte=1,lte=64"`
}

// ToEngineConfig 转换为排产引擎配置（停产日由调用方另行注入）
func (s *SchedulerConfig) ToEngineConfig() scheduler.Config {
	weekdays := make([]time.Weekday, 0, len(s.Weekdays))
	for _, d := range s.Weekdays {
		weekdays = append(weekdays, time.Weekday(d))
	}

	// viper 读出的 map 键已小写；引擎按小写匹配订单品类
	caps := make(map[string]scheduler.CategoryCap, len(s.CategoryCaps))
	for cat, c := range s.CategoryCaps {
		caps[strings.ToLower(cat)] = scheduler.CategoryCap{Min: c.Min, Max: c.Max}
	}

	return scheduler.Config{
		Weekdays:           weekdays,
		MinHorizonWeeks:    s.MinHorizonWeeks,
		MaxHorizonWeeks:    s.MaxHorizonWeeks,
		UniversalCategory:  s.UniversalCategory,
		ReservedCategories: append([]string(nil), s.ReservedCategories...),
		CategoryCaps:       caps,
		AdjustmentWeekday:  time.Weekday(s.AdjustmentWeekday),
	}
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("LAYUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.rate_limit.limit", 30)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "layup")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.run_ttl", "24h")
	v.SetDefault("redis.lock_ttl", "2m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.weekdays", []int{1, 2, 3, 4})
	v.SetDefault("scheduler.min_horizon_weeks", 2)
	v.SetDefault("scheduler.max_horizon_weeks", 8)
	v.SetDefault("scheduler.universal_category", "universal")
	v.SetDefault("scheduler.reserved_categories", []string{"mesa"})
	v.SetDefault("scheduler.holiday_ics_path", "")
	v.SetDefault("scheduler.adjustment_weekday", 1)
	v.SetDefault("scheduler.max_scenarios", 8)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if err := validate.Struct(&c.Scheduler); err != nil {
		return fmt.Errorf("配置校验失败: scheduler 段不合法: %w", err)
	}
	return nil
}
