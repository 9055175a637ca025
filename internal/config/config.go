package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	DefaultBaseURL        = "https://www.imdb.com"
	DefaultTimeoutSeconds = 20
	DefaultSearchLimit    = 10
	DefaultConcurrency    = 4
	DefaultLogLevel       = zerolog.WarnLevel
)

// DefaultFileNames 是未指定 --config 时在 cwd 下依次查找的文件（都是可选的）。
var DefaultFileNames = []string{"imdbx.yaml", "imdbx.yml", "imdbx.json"}

// CLIArgs 是 CLI 可以覆盖的配置项，并保留“是否显式指定”的信息：
// 例如 --record-dir="" 必须能关闭配置文件里的 record_dir。
type CLIArgs struct {
	ConfigPath string

	BaseURL    string
	BaseURLSet bool

	LogLevel    string
	LogLevelSet bool

	RecordDir    string
	RecordDirSet bool
}

// FileConfig 对应 imdbx.yaml / imdbx.json 的解析结构。
type FileConfig struct {
	BaseURL        string       `json:"base_url" yaml:"base_url"`
	Proxy          *ProxyConfig `json:"proxy" yaml:"proxy"`
	TimeoutSeconds int          `json:"timeout_seconds" yaml:"timeout_seconds"`
	UserAgent      string       `json:"user_agent" yaml:"user_agent"`
	AcceptLanguage string       `json:"accept_language" yaml:"accept_language"`
	RecordDir      string       `json:"record_dir" yaml:"record_dir"`
	LogLevel       string       `json:"log_level" yaml:"log_level"`
	SearchLimit    int          `json:"search_limit" yaml:"search_limit"`
	Concurrency    int          `json:"concurrency" yaml:"concurrency"`
}

type ProxyConfig struct {
	URL string `json:"url" yaml:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	// Source 是实际读取的配置文件；没有读到任何文件时为空。
	Source string

	BaseURL        string
	ProxyURL       string
	Timeout        time.Duration
	UserAgent      string
	AcceptLanguage string

	// RecordDir 为空表示不记录页面；非空时已是绝对路径。
	RecordDir string

	LogLevel    zerolog.Level
	SearchLimit int
	// Concurrency 是批量加载人物页时的并发数。
	Concurrency int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 给了 --config：必须存在
// 2) 否则依次尝试 <cwd>/imdbx.yaml、imdbx.yml、imdbx.json，都不存在则只用默认值
//
// 覆盖优先级：
// - base_url / log_level / record_dir：CLI（显式指定）> 配置文件 > 默认
// - 其他字段：仅由配置文件控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		for _, name := range DefaultFileNames {
			p := filepath.Join(cwdAbs, name)
			f, exists, err := readFileConfig(p)
			if err != nil {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
			}
			if exists {
				cfgPath, fc = p, f
				break
			}
		}
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		p := cfgPath
		if p == "" {
			p = "<flags>"
		}
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
	}

	baseURL := DefaultBaseURL
	if cli.BaseURLSet {
		baseURL = cli.BaseURL
	} else if strings.TrimSpace(fc.BaseURL) != "" {
		baseURL = fc.BaseURL
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if err := validateHTTPURL("base_url", baseURL); err != nil {
		return invalid(err)
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	timeout := fc.TimeoutSeconds
	if timeout == 0 {
		timeout = DefaultTimeoutSeconds
	}
	timeout = clamp(timeout, 1, 300)

	limit := fc.SearchLimit
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	limit = clamp(limit, 1, 100)

	workers := fc.Concurrency
	if workers == 0 {
		workers = DefaultConcurrency
	}
	workers = clamp(workers, 1, 16)

	levelText := fc.LogLevel
	if cli.LogLevelSet {
		levelText = cli.LogLevel
	}
	level, err := parseLevel(levelText)
	if err != nil {
		return invalid(err)
	}

	recordDir := fc.RecordDir
	if cli.RecordDirSet {
		recordDir = cli.RecordDir
	}
	recordDir = absCleanFrom(cwdAbs, recordDir)

	return EffectiveConfig{
		Source:         cfgPath,
		BaseURL:        baseURL,
		ProxyURL:       proxyURL,
		Timeout:        time.Duration(timeout) * time.Second,
		UserAgent:      strings.TrimSpace(fc.UserAgent),
		AcceptLanguage: strings.TrimSpace(fc.AcceptLanguage),
		RecordDir:      recordDir,
		LogLevel:       level,
		SearchLimit:    limit,
		Concurrency:    workers,
	}, nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return nil
}

func parseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLogLevel, nil
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil || l == zerolog.NoLevel {
		return DefaultLogLevel, fmt.Errorf("log_level 无效：%q", s)
	}
	return l, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；空串保持为空。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析配置文件（按扩展名选择 YAML 或 JSON）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return FileConfig{}, true, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return FileConfig{}, true, fmt.Errorf("parse yaml: %w", err)
		}
	}
	return fc, true, nil
}
