package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "DASBOARD_"

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Display DisplayConfig `toml:"display"`
	Log     LogConfig     `toml:"log"`

	// baseDir 相对路径的解析基准（config.toml 所在目录）
	baseDir string
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	Source  string `toml:"source"` // 数据集文件（.csv/.xlsx），相对路径基于 data_dir
	Sheet   string `toml:"sheet"`  // xlsx Sheet 名，为空时自动识别
	Watch   bool   `toml:"watch"`  // 数据集文件变化时自动重新加载
}

// DisplayConfig 展示配置
type DisplayConfig struct {
	Title    string `toml:"title"`
	Locale   string `toml:"locale"`   // 货币/数字格式，如 pt-BR
	Currency string `toml:"currency"` // ISO 4217，如 BRL
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			Source:  "data_gabung_latihan.csv",
		},
		Display: DisplayConfig{
			Title:    "Y.AH Dasboard",
			Locale:   "pt-BR",
			Currency: "BRL",
		},
		Log: LogConfig{
			Level: "info",
		},
		baseDir: ".",
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadFrom(exeDir)
}

// LoadFrom 从指定目录加载 .env 与 config.toml，再应用环境变量覆盖
//
// 优先级：环境变量 > config.toml > 默认值。配置文件不存在时使用默认配置。
func LoadFrom(dir string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: filepath.Join(dir, "config.toml")}
	config := DefaultConfig()
	config.baseDir = dir

	// .env 只补充未设置的环境变量
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, info, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(info.Path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", info.Path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖
func applyEnv(c *AppConfig, info *LoadConfigInfo) error {
	if v, ok := lookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %sPORT %q", EnvPrefix, v)
		}
		c.Server.Port = port
		info.PortSpecified = true
	}
	if v, ok := lookupEnv("DEV_MODE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEV_MODE %q", EnvPrefix, v)
		}
		c.Server.DevMode = b
	}
	if v, ok := lookupEnv("WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sWATCH %q", EnvPrefix, v)
		}
		c.Data.Watch = b
	}
	if v, ok := lookupEnv("DATA_DIR"); ok {
		c.Data.DataDir = v
	}
	if v, ok := lookupEnv("SOURCE"); ok {
		c.Data.Source = v
	}
	if v, ok := lookupEnv("SHEET"); ok {
		c.Data.Sheet = v
	}
	if v, ok := lookupEnv("LOCALE"); ok {
		c.Display.Locale = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// DataDir 数据目录绝对路径
func (c *AppConfig) DataDir() string {
	if filepath.IsAbs(c.Data.DataDir) {
		return c.Data.DataDir
	}
	return filepath.Join(c.baseDir, c.Data.DataDir)
}

// SourcePath 数据集文件路径
func (c *AppConfig) SourcePath() string {
	if filepath.IsAbs(c.Data.Source) {
		return c.Data.Source
	}
	return filepath.Join(c.DataDir(), c.Data.Source)
}

// DBPath SQLite 数据库路径
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir(), "dasboard.db")
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(config.baseDir, "config.toml"), data, 0644)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}
