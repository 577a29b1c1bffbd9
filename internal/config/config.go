// Package config 读取 .properties 配置文件、.env 和 SCHCRWLR_* 环境变量
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"schemacrawler/internal/adapter"
	"schemacrawler/internal/filter"
	"schemacrawler/internal/renderer"
)

const (
	// DefaultConfigFile 当前目录下存在时自动读取
	DefaultConfigFile = "schemacrawler.config.properties"
	// EnvPrefix 环境变量前缀
	EnvPrefix = "SCHCRWLR"

	formatPrefix  = "schemacrawler.format."
	patternPrefix = "schemacrawler."
)

// templateMarker 读取配置文件时临时替换 "${"
const templateMarker = "\uE000{"

// connectionKeys 可以由环境变量提供的连接参数
var connectionKeys = []string{"url", "server", "host", "port", "database", "user", "password"}

// Config 合并后的配置
type Config struct {
	v *viper.Viper
	// File 实际读取的配置文件，没有时为空
	File string
}

// Load 读取配置；path 为空时尝试默认文件
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range connectionKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path == "" && fileExists(DefaultConfigFile) {
		path = DefaultConfigFile
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// 属性解析器会展开 ${...}，命名查询里的模板变量要原样保留
		data = bytes.ReplaceAll(data, []byte("${"), []byte(templateMarker))
		v.SetConfigType("properties")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	return &Config{v: v, File: path}, nil
}

// loadDotEnv 加载 .env，已经存在的环境变量不会被覆盖
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// String 读取任意属性
func (c *Config) String(key string) string {
	return strings.ReplaceAll(c.v.GetString(key), templateMarker, "${")
}

// Connection 环境变量或配置文件里的连接参数
func (c *Config) Connection() adapter.ConnectionOptions {
	return adapter.ConnectionOptions{
		URL:      c.String("url"),
		Server:   c.String("server"),
		Host:     c.String("host"),
		Port:     c.v.GetInt("port"),
		Database: c.String("database"),
		User:     c.String("user"),
		Password: c.String("password"),
	}
}

// FormatOptions schemacrawler.format.* 格式开关
func (c *Config) FormatOptions() renderer.Options {
	return renderer.Options{
		Title:                c.String(formatPrefix + "title"),
		NoInfo:               c.v.GetBool(formatPrefix + "no_info"),
		HideWeakAssociations: c.v.GetBool(formatPrefix + "hide_weakassociations"),
		ShowOrdinalNumbers:   c.v.GetBool(formatPrefix + "show_ordinal_numbers"),
		HideRemarks:          c.v.GetBool(formatPrefix + "hide_remarks"),
	}
}

// Rule schemacrawler.<kind>.pattern.include/exclude 组成的过滤规则，两者都没配置时返回 nil
func (c *Config) Rule(kind string) (*filter.Rule, error) {
	include := c.String(patternPrefix + kind + ".pattern.include")
	exclude := c.String(patternPrefix + kind + ".pattern.exclude")
	if include == "" && exclude == "" {
		return nil, nil
	}
	rule, err := filter.NewRule(include, exclude)
	if err != nil {
		return nil, fmt.Errorf("%s pattern in config: %w", kind, err)
	}
	return rule, nil
}

// InformationSchemaQueries select.INFORMATION_SCHEMA.* 覆盖查询
//
// viper 会把键转成小写，这里恢复成适配器使用的大写查询名。
func (c *Config) InformationSchemaQueries() map[string]string {
	queries := make(map[string]string)
	lowerPrefix := strings.ToLower(adapter.QueryKeyPrefix)
	for _, key := range c.v.AllKeys() {
		name, ok := strings.CutPrefix(key, lowerPrefix)
		if !ok {
			continue
		}
		queries[adapter.QueryKeyPrefix+strings.ToUpper(name)] = c.String(key)
	}
	return queries
}

// Queries 命名查询：不属于其他配置项的属性，键为小写
func (c *Config) Queries() map[string]string {
	queries := make(map[string]string)
	lowerPrefix := strings.ToLower(adapter.QueryKeyPrefix)
	for _, key := range c.v.AllKeys() {
		if strings.HasPrefix(key, patternPrefix) || strings.HasPrefix(key, lowerPrefix) || isConnectionKey(key) {
			continue
		}
		queries[key] = c.String(key)
	}
	return queries
}

func isConnectionKey(key string) bool {
	for _, k := range connectionKeys {
		if k == key {
			return true
		}
	}
	return false
}
