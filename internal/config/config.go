package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	GatewayAbacatePay = "abacatepay"
	GatewaySandbox    = "sandbox"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	Gateway    GatewayConfig
	Store      StoreConfig
	Reconciler ReconcilerConfig
}

type AppConfig struct {
	Env      string
	Name     string
	LogLevel string
}

func (c AppConfig) IsDevelopment() bool { return c.Env == EnvDevelopment }
func (c AppConfig) IsProduction() bool  { return c.Env == EnvProduction }

type HTTPConfig struct {
	Port           int
	AllowedOrigins []string
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type GatewayConfig struct {
	Driver  string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Configured reports whether checkout and status calls can reach a gateway.
func (c GatewayConfig) Configured() bool {
	return c.Driver == GatewaySandbox || c.APIKey != ""
}

type StoreConfig struct {
	Driver   string
	Database DatabaseConfig
}

// DatabaseConfig mirrors the BLUEPRINT_DB_* variables; URL takes precedence.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
}

func (c DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable&search_path=" + url.QueryEscape(c.Schema),
	}
	return u.String()
}

type ReconcilerConfig struct {
	Interval  time.Duration // zero disables the worker
	OlderThan time.Duration
	BatchSize int
}

// defaultOrigins are always allowed for local frontend development.
var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; real environment variables win.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := v.GetString("APP_ENV")
	if env == "" {
		env = v.GetString("NODE_ENV")
	}
	if env == "" {
		env = EnvDevelopment
	}

	cfg := &Config{
		App: AppConfig{
			Env:      env,
			Name:     v.GetString("APP_NAME"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Port:           v.GetInt("PORT"),
			AllowedOrigins: allowedOrigins(v.GetString("FRONTEND_URL"), v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Gateway: GatewayConfig{
			Driver:  strings.ToLower(v.GetString("GATEWAY_DRIVER")),
			APIKey:  v.GetString("ABACATEPAY_API_KEY"),
			BaseURL: strings.TrimRight(v.GetString("ABACATEPAY_BASE_URL"), "/"),
			Timeout: v.GetDuration("GATEWAY_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("STORE_DRIVER")),
			Database: DatabaseConfig{
				URL:      v.GetString("DATABASE_URL"),
				Host:     v.GetString("BLUEPRINT_DB_HOST"),
				Port:     v.GetString("BLUEPRINT_DB_PORT"),
				Username: v.GetString("BLUEPRINT_DB_USERNAME"),
				Password: v.GetString("BLUEPRINT_DB_PASSWORD"),
				Database: v.GetString("BLUEPRINT_DB_DATABASE"),
				Schema:   v.GetString("BLUEPRINT_DB_SCHEMA"),
			},
		},
		Reconciler: ReconcilerConfig{
			Interval:  v.GetDuration("RECONCILE_INTERVAL"),
			OlderThan: v.GetDuration("RECONCILE_AFTER"),
			BatchSize: v.GetInt("RECONCILE_BATCH_SIZE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "confeitaria-api")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("FRONTEND_URL", "https://your-app.netlify.app")
	v.SetDefault("GATEWAY_DRIVER", GatewayAbacatePay)
	v.SetDefault("ABACATEPAY_BASE_URL", "https://api.abacatepay.com/v1")
	v.SetDefault("GATEWAY_TIMEOUT", "30s")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("BLUEPRINT_DB_HOST", "localhost")
	v.SetDefault("BLUEPRINT_DB_PORT", "5432")
	v.SetDefault("BLUEPRINT_DB_SCHEMA", "public")
	v.SetDefault("RECONCILE_INTERVAL", "0s")
	v.SetDefault("RECONCILE_AFTER", "1m")
	v.SetDefault("RECONCILE_BATCH_SIZE", 50)
}

func (c *Config) validate() error {
	switch c.Gateway.Driver {
	case GatewayAbacatePay, GatewaySandbox:
	default:
		return fmt.Errorf("unknown GATEWAY_DRIVER %q", c.Gateway.Driver)
	}
	switch c.Store.Driver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.HTTP.Port)
	}
	if c.Gateway.Driver == GatewaySandbox && c.App.IsProduction() {
		return fmt.Errorf("sandbox gateway is not allowed in %s", EnvProduction)
	}
	for _, origin := range c.HTTP.AllowedOrigins {
		if !validOrigin(origin) {
			return fmt.Errorf("invalid CORS origin %q: must start with http:// or https://", origin)
		}
	}
	return nil
}

func validOrigin(origin string) bool {
	return origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")
}

func allowedOrigins(frontendURL, extra string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(origin string) {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" || seen[origin] {
			return
		}
		seen[origin] = true
		out = append(out, origin)
	}
	add(frontendURL)
	for _, o := range strings.Split(extra, ",") {
		add(o)
	}
	for _, o := range defaultOrigins {
		add(o)
	}
	return out
}
