package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "turnengine.cfg.json"

// MemoryConfig holds settings for the in-memory journal and its JSON export.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the sqlite journal. An empty Path keeps the
// database in memory and dumps it to DumpPath every DumpInterval.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN formats the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds settings for the influx telemetry journal.
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL is the influx server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// JournalConfig selects and configures the match journal.
type JournalConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	DB     DBConfig     `json:"db" mapstructure:"db"`
	Influx InfluxConfig `json:"influx" mapstructure:"influx"`
}

// SessionConfig holds game session settings.
type SessionConfig struct {
	Role           string `json:"role" mapstructure:"role"`
	AutoInitiative bool   `json:"autoInitiative" mapstructure:"autoInitiative"`
	// Seed feeds the dice; 0 picks a random seed.
	Seed int64 `json:"seed" mapstructure:"seed"`
	// Authority is the server session id a replica trusts. Empty accepts any origin.
	Authority string `json:"authority" mapstructure:"authority"`
	Scenario  string `json:"scenario" mapstructure:"scenario"`
}

// ServerConfig holds websocket hub settings.
type ServerConfig struct {
	Listen string `json:"listen" mapstructure:"listen"`
	Path   string `json:"path" mapstructure:"path"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// ClientConfig holds settings for a replica connecting to a hub.
type ClientConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// ArchiveConfig holds the match archive upload settings.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// OTelConfig holds OpenTelemetry log and metric export settings.
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout   time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// Env holds process-level overrides read from the environment.
type Env struct {
	ConfigDir string `env:"TURNENGINE_CONFIG_DIR" envDefault:"."`
	Listen    string `env:"TURNENGINE_LISTEN"`
	Role      string `env:"TURNENGINE_ROLE"`
	LogLevel  string `env:"TURNENGINE_LOG_LEVEL"`
}

// ReadEnv parses the environment overrides.
func ReadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return e, nil
}

// Apply copies the non-empty overrides into viper.
func (e Env) Apply() {
	if e.Listen != "" {
		viper.Set("server.listen", e.Listen)
	}
	if e.Role != "" {
		viper.Set("session.role", e.Role)
	}
	if e.LogLevel != "" {
		viper.Set("logLevel", e.LogLevel)
	}
}

// SetDefaults registers every default value.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("session.role", "server")
	viper.SetDefault("session.autoInitiative", true)
	viper.SetDefault("session.seed", 0)
	viper.SetDefault("session.authority", "")
	viper.SetDefault("session.scenario", "")

	viper.SetDefault("server.listen", ":8089")
	viper.SetDefault("server.path", "/ws")
	viper.SetDefault("server.secret", "")

	viper.SetDefault("client.url", "ws://localhost:8089/ws")
	viper.SetDefault("client.secret", "")

	viper.SetDefault("journal.type", "memory")
	viper.SetDefault("journal.memory.outputDir", "./matches")
	viper.SetDefault("journal.memory.compressOutput", true)
	viper.SetDefault("journal.sqlite.path", "")
	viper.SetDefault("journal.sqlite.dumpPath", "./matches/journal.db")
	viper.SetDefault("journal.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "turnengine")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "turnengine")
	viper.SetDefault("influx.bucket", "matches")

	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("archive.url", "http://localhost:5000")
	viper.SetDefault("archive.secret", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "turnengine")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "30s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)
}

// Load reads configuration from the JSON file in configDir on top of the defaults.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetJournalConfig returns the journal settings, with the shared db and influx sections filled in.
func GetJournalConfig() JournalConfig {
	return JournalConfig{
		Type: viper.GetString("journal.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("journal.memory.outputDir"),
			CompressOutput: viper.GetBool("journal.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("journal.sqlite.path"),
			DumpPath:     viper.GetString("journal.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("journal.sqlite.dumpInterval"),
		},
		DB:     GetDBConfig(),
		Influx: GetInfluxConfig(),
	}
}

// GetDBConfig returns the postgres settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the influx settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetSessionConfig returns the session settings.
func GetSessionConfig() SessionConfig {
	return SessionConfig{
		Role:           viper.GetString("session.role"),
		AutoInitiative: viper.GetBool("session.autoInitiative"),
		Seed:           viper.GetInt64("session.seed"),
		Authority:      viper.GetString("session.authority"),
		Scenario:       viper.GetString("session.scenario"),
	}
}

// GetServerConfig returns the hub settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Listen: viper.GetString("server.listen"),
		Path:   viper.GetString("server.path"),
		Secret: viper.GetString("server.secret"),
	}
}

// GetClientConfig returns the replica connection settings.
func GetClientConfig() ClientConfig {
	return ClientConfig{
		URL:    viper.GetString("client.url"),
		Secret: viper.GetString("client.secret"),
	}
}

// GetArchiveConfig returns the archive upload settings.
func GetArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled: viper.GetBool("archive.enabled"),
		URL:     viper.GetString("archive.url"),
		Secret:  viper.GetString("archive.secret"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
