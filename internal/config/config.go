package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/spf13/viper"
)

const maxBps = 10000

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Program  ProgramConfig  `mapstructure:"program"`
	Rent     RentConfig     `mapstructure:"rent"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径，":memory:" 为内存库
}

// ProgramConfig 程序身份与募资参数
type ProgramConfig struct {
	ID                 string `mapstructure:"id"`                   // 程序地址(hex)
	TokenProgramID     string `mapstructure:"token_program_id"`     // 代币程序地址(hex)
	SystemProgramID    string `mapstructure:"system_program_id"`    // 系统程序地址(hex)
	MaxContributionBps uint64 `mapstructure:"max_contribution_bps"` // 单个出资者上限，占目标金额的万分比
}

type RentConfig struct {
	LamportsPerByte uint64 `mapstructure:"lamports_per_byte"`
	AccountOverhead uint64 `mapstructure:"account_overhead"`
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
	Workers  int `mapstructure:"workers"`  // 协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// ProgramID 解析后的程序地址
func (p ProgramConfig) ProgramID() (pubkey.Address, error) {
	return pubkey.Parse(p.ID)
}

// TokenProgram 解析后的代币程序地址
func (p ProgramConfig) TokenProgram() (pubkey.Address, error) {
	return pubkey.Parse(p.TokenProgramID)
}

// SystemProgram 解析后的系统程序地址
func (p ProgramConfig) SystemProgram() (pubkey.Address, error) {
	return pubkey.Parse(p.SystemProgramID)
}

// SetDefaults 注册默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fundraiser")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "fundraiser.db")
	v.SetDefault("program.id", "0x"+strings.Repeat("46", pubkey.Size))
	v.SetDefault("program.token_program_id", "0x"+strings.Repeat("54", pubkey.Size))
	v.SetDefault("program.system_program_id", "0x"+strings.Repeat("00", pubkey.Size))
	v.SetDefault("program.max_contribution_bps", maxBps)
	v.SetDefault("rent.lamports_per_byte", 6960)
	v.SetDefault("rent.account_overhead", 128)
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.workers", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取配置文件与 FUNDRAISER_ 前缀的环境变量。path 为空时按默认目录查找 config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fundraiser")
	}

	SetDefaults(v)

	// 自动读取环境变量，例如 FUNDRAISER_DATABASE_HOST
	v.SetEnvPrefix("FUNDRAISER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Program.MaxContributionBps == 0 || c.Program.MaxContributionBps > maxBps {
		return fmt.Errorf("program.max_contribution_bps must be in (0, %d], got %d", maxBps, c.Program.MaxContributionBps)
	}
	ids := map[string]string{
		"program.id":                c.Program.ID,
		"program.token_program_id":  c.Program.TokenProgramID,
		"program.system_program_id": c.Program.SystemProgramID,
	}
	for key, raw := range ids {
		if _, err := pubkey.Parse(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Program.ID == c.Program.TokenProgramID {
		return errors.New("program.id and program.token_program_id must differ")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Task.Interval <= 0 {
		return fmt.Errorf("task.interval must be positive, got %d", c.Task.Interval)
	}
	if c.Task.Workers <= 0 {
		return fmt.Errorf("task.workers must be positive, got %d", c.Task.Workers)
	}
	return nil
}
