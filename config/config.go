package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v2"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the database file for the sqlite driver.
	Path string `yaml:"path"`
}

type PathsConfig struct {
	SchemaFile           string `yaml:"schema_file"`
	TablesQueryFile      string `yaml:"tables_query_file"`
	ConstraintsQueryFile string `yaml:"constraints_query_file"`
	MissingObjectsFile   string `yaml:"missing_objects_file"`
	PlanFile             string `yaml:"plan_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Paths    PathsConfig    `yaml:"paths"`
	Log      LogConfig      `yaml:"log"`
}

// Environment variables that override values read from the file.
const (
	EnvHost     = "PGRECONCILE_DB_HOST"
	EnvPort     = "PGRECONCILE_DB_PORT"
	EnvUser     = "PGRECONCILE_DB_USER"
	EnvPassword = "PGRECONCILE_DB_PASSWORD"
	EnvName     = "PGRECONCILE_DB_NAME"
	EnvLogLevel = "PGRECONCILE_LOG_LEVEL"
)

func (db *DatabaseConfig) GetConnectionString() string {
	switch db.Driver {
	case "pgx":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(db.User, db.Password),
			Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.port())),
			Path:   "/" + db.DBName,
		}
		if db.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
		}
		return u.String()
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(db.Host, strconv.Itoa(db.port()))
		mc.DBName = db.DBName
		mc.ParseTime = true
		return mc.FormatDSN()
	case "sqlite":
		return db.Path
	case "sqlserver":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(db.User, db.Password),
			Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.port())),
			RawQuery: url.Values{"database": {db.DBName}}.Encode(),
		}
		return u.String()
	default:
		pairs := []string{
			"host=" + quoteValue(db.Host),
			"port=" + strconv.Itoa(db.port()),
			"user=" + quoteValue(db.User),
		}
		if db.Password != "" {
			pairs = append(pairs, "password="+quoteValue(db.Password))
		}
		pairs = append(pairs, "dbname="+quoteValue(db.DBName))
		if db.SSLMode != "" {
			pairs = append(pairs, "sslmode="+quoteValue(db.SSLMode))
		}
		return strings.Join(pairs, " ")
	}
}

// quoteValue quotes a lib/pq connection string value.
func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// DefaultPort returns the usual server port for driver, or 0 when the
// driver does not listen on one.
func DefaultPort(driver string) int {
	switch driver {
	case "", "postgres", "pgx":
		return 5432
	case "mysql":
		return 3306
	case "sqlserver":
		return 1433
	default:
		return 0
	}
}

func (db *DatabaseConfig) port() int {
	if db.Port == 0 {
		return DefaultPort(db.Driver)
	}
	return db.Port
}

// SlogLevel maps Level to an slog.Level; unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultPort(cfg.Database.Driver)
	}
	cfg.resolvePaths(filepath.Dir(path))

	return cfg, nil
}

// Default returns the configuration used for values missing from the file.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			SSLMode: "disable",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvHost); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvName); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// resolvePaths makes relative file paths relative to the config file.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{
		&c.Paths.SchemaFile,
		&c.Paths.TablesQueryFile,
		&c.Paths.ConstraintsQueryFile,
		&c.Paths.MissingObjectsFile,
		&c.Paths.PlanFile,
		&c.Database.Path,
	} {
		if *p != "" && *p != "-" && !filepath.IsAbs(*p) && !strings.HasPrefix(*p, ":") {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks that the configuration can be used to run a pass.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "pgx", "mysql", "sqlserver":
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Paths.SchemaFile == "" {
		errs = append(errs, errors.New("paths.schema_file is required"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

func GetDefaultConfigPath() string {
	dir, _ := os.Getwd()
	return filepath.Join(dir, "config.yaml")
}
