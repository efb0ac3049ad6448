// Package config resolves locode's settings from command-line flags,
// LOCODE_* environment variables, an optional YAML config file and
// built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. LOCODE_ADDR.
const EnvPrefix = "LOCODE"

// Keys, shared by flags, env and the config file.
const (
	KeyConfig           = "config"
	KeyAddr             = "addr"
	KeyAPIKey           = "api-key"
	KeyModel            = "model"
	KeyBaseURL          = "base-url"
	KeyProxy            = "proxy"
	KeyLogLevel         = "log-level"
	KeyLogFormat        = "log-format"
	KeyUILang           = "ui-lang"
	KeyStrictValidation = "strict-validation"
	KeyPromptsFile      = "prompts-file"
	KeyMaxUpload        = "max-upload"
	KeySessionTTL       = "session-ttl"
	KeyMock             = "mock"
)

// Config is the resolved configuration.
type Config struct {
	// ConfigFile is the file that was read, if any.
	ConfigFile string

	Addr    string
	APIKey  string
	Model   string
	BaseURL string
	Proxy   string

	LogLevel  string
	LogFormat string
	// UILang selects the interface language; empty means detect from the
	// environment.
	UILang string

	StrictValidation bool
	PromptsFile      string
	MaxUpload        int64
	SessionTTL       time.Duration
	Mock             bool
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:       ":8080",
		Model:      "gemini-1.5-flash",
		BaseURL:    "https://generativelanguage.googleapis.com",
		LogLevel:   "info",
		LogFormat:  "console",
		MaxUpload:  1 << 20,
		SessionTTL: 30 * time.Minute,
	}
}

// RegisterFlags adds every configuration flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyConfig, "", "config file (default is $XDG_CONFIG_HOME/locode/locode.yaml)")
	fs.String(KeyAddr, d.Addr, "HTTP listen address")
	fs.String(KeyAPIKey, "", "Gemini API key (or LOCODE_API_KEY / GEMINI_API_KEY)")
	fs.String(KeyModel, d.Model, "Gemini model id")
	fs.String(KeyBaseURL, d.BaseURL, "Generative Language API base URL")
	fs.String(KeyProxy, "", "HTTP/HTTPS proxy URL for API calls")
	fs.String(KeyLogLevel, d.LogLevel, "log level (debug|info|warn|error)")
	fs.String(KeyLogFormat, d.LogFormat, "log format (console|json)")
	fs.String(KeyUILang, "", "interface language, e.g. fr (default: from LANG)")
	fs.Bool(KeyStrictValidation, false, "fully parse yaml, xml, properties and strings files before submission")
	fs.String(KeyPromptsFile, "", "YAML file overriding the built-in prompt templates")
	fs.Int64(KeyMaxUpload, d.MaxUpload, "maximum upload size in bytes")
	fs.Duration(KeySessionTTL, d.SessionTTL, "idle time after which a browser session is dropped")
	fs.Bool(KeyMock, false, "use a canned generator instead of the Gemini API")
}

// newViper wires defaults, environment and flags into a fresh viper.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyAddr, d.Addr)
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyMaxUpload, d.MaxUpload)
	v.SetDefault(KeySessionTTL, d.SessionTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyAPIKey, EnvPrefix+"_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	return v, nil
}

// Load resolves the configuration. fs may be nil. An explicitly named
// config file must exist; the default one is optional.
func Load(fs *pflag.FlagSet) (Config, error) {
	v, err := newViper(fs)
	if err != nil {
		return Config{}, err
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "locode"))
		v.SetConfigName("locode")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return Config{
		ConfigFile:       v.ConfigFileUsed(),
		Addr:             v.GetString(KeyAddr),
		APIKey:           v.GetString(KeyAPIKey),
		Model:            v.GetString(KeyModel),
		BaseURL:          v.GetString(KeyBaseURL),
		Proxy:            v.GetString(KeyProxy),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
		UILang:           v.GetString(KeyUILang),
		StrictValidation: v.GetBool(KeyStrictValidation),
		PromptsFile:      v.GetString(KeyPromptsFile),
		MaxUpload:        v.GetInt64(KeyMaxUpload),
		SessionTTL:       v.GetDuration(KeySessionTTL),
		Mock:             v.GetBool(KeyMock),
	}, nil
}

// Validate reports settings that would make the server unusable.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" && !c.Mock {
		errs = append(errs, errors.New("no API key: set --api-key, LOCODE_API_KEY or GEMINI_API_KEY (or use --mock)"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.MaxUpload <= 0 {
		errs = append(errs, fmt.Errorf("max-upload must be positive, got %d", c.MaxUpload))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session-ttl must be positive, got %s", c.SessionTTL))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
