package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "animconv.cfg.json"

// ConverterConfig holds the conversion settings.
type ConverterConfig struct {
	DefaultBone   string `json:"defaultBone" mapstructure:"defaultBone"`
	Steps         int    `json:"steps" mapstructure:"steps"`
	AnimationName string `json:"animationName" mapstructure:"animationName"`
}

// OutputConfig holds settings for writing converted files.
type OutputConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// HistoryConfig selects where conversion history is recorded.
type HistoryConfig struct {
	Type       string `json:"type" mapstructure:"type"` // none, sqlite or postgres
	SQLitePath string `json:"sqlitePath" mapstructure:"sqlitePath"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// PreviewConfig holds the live preview WebSocket settings.
type PreviewConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// PublishConfig holds the asset server upload settings.
type PublishConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// InfluxConfig holds InfluxDB metric settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// GraylogConfig holds the GELF log sink settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// WatchConfig holds drop-folder settings.
type WatchConfig struct {
	Debounce       time.Duration `json:"debounce" mapstructure:"debounce"`
	Extensions     []string      `json:"extensions" mapstructure:"extensions"`
	StatusInterval time.Duration `json:"statusInterval" mapstructure:"statusInterval"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./animconvlogs")

	viper.SetDefault("defaultBone", "root")
	viper.SetDefault("steps", 10)
	viper.SetDefault("animationName", "animation")

	viper.SetDefault("output.dir", "")
	viper.SetDefault("output.compress", false)

	viper.SetDefault("history.type", "none")
	viper.SetDefault("history.sqlitePath", "./animconv_history.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "animconv")

	viper.SetDefault("preview.enabled", false)
	viper.SetDefault("preview.url", "ws://localhost:5000/api/preview")
	viper.SetDefault("preview.secret", "")

	viper.SetDefault("publish.enabled", false)
	viper.SetDefault("publish.url", "http://localhost:5000")
	viper.SetDefault("publish.secret", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "animconv-metrics")
	viper.SetDefault("influx.bucket", "conversions")
	viper.SetDefault("influx.backupPath", "./animconv_metrics.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "animconv")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("watch.debounce", "500ms")
	viper.SetDefault("watch.extensions", []string{".miframes"})
	viper.SetDefault("watch.statusInterval", "10s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in
// effect when the file cannot be read.
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

// GetConverterConfig returns the conversion settings.
func GetConverterConfig() ConverterConfig {
	return ConverterConfig{
		DefaultBone:   viper.GetString("defaultBone"),
		Steps:         viper.GetInt("steps"),
		AnimationName: viper.GetString("animationName"),
	}
}

// GetOutputConfig returns the output settings.
func GetOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:      viper.GetString("output.dir"),
		Compress: viper.GetBool("output.compress"),
	}
}

// GetHistoryConfig returns the history settings with the type lower-cased.
func GetHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Type:       strings.ToLower(viper.GetString("history.type")),
		SQLitePath: viper.GetString("history.sqlitePath"),
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetPreviewConfig returns the live preview settings.
func GetPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Enabled: viper.GetBool("preview.enabled"),
		URL:     viper.GetString("preview.url"),
		Secret:  viper.GetString("preview.secret"),
	}
}

// GetPublishConfig returns the asset server upload settings.
func GetPublishConfig() PublishConfig {
	return PublishConfig{
		Enabled: viper.GetBool("publish.enabled"),
		URL:     viper.GetString("publish.url"),
		Secret:  viper.GetString("publish.secret"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetWatchConfig returns the drop-folder settings. Extensions are lower-cased
// and always carry a leading dot.
func GetWatchConfig() WatchConfig {
	raw := viper.GetStringSlice("watch.extensions")
	exts := make([]string, 0, len(raw))
	for _, ext := range raw {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return WatchConfig{
		Debounce:       viper.GetDuration("watch.debounce"),
		Extensions:     exts,
		StatusInterval: viper.GetDuration("watch.statusInterval"),
	}
}
