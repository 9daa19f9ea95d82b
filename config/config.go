package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults.
const (
	DefaultMongoURI       = "mongodb://localhost:27017"
	DefaultDatabase       = "educacao_indigena"
	DefaultPort           = 8080
	DefaultDatasetsDir    = "./datasets"
	DefaultSkipRows       = 5
	DefaultConnectTimeout = 5 * time.Second
	DefaultCacheTTL       = 10 * time.Minute

	DefaultCensusFile       = "microdados_ed_basica_2023.csv"
	DefaultAttendanceFile   = "frequencia_escolar.xlsx"
	DefaultYearsOfStudyFile = "media_anos.xlsx"
	DefaultInstructionFile  = "nivel_instrucao.xlsx"
)

// Config holds every setting of the loader, the report runner and the API
// server. Each field is backed by a flag; the flag name upper-cased with
// dashes turned into underscores is its environment variable.
type Config struct {
	MongoURI       string
	Database       string
	ConnectTimeout time.Duration
	ConnectRetries int

	DatasetsDir      string
	CensusFile       string
	AttendanceFile   string
	YearsOfStudyFile string
	InstructionFile  string
	SkipRows         int

	Parallel bool
	LogLevel string

	Port        int
	CacheTTL    time.Duration
	CORSOrigins []string

	ConfigFile string
	EnvFile    string
}

// AddFlags registers the flags backing c on fs, with the defaults as
// their initial values.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.MongoURI, "mongo-uri", DefaultMongoURI, "MongoDB connection string")
	fs.StringVar(&c.Database, "mongo-db-name", DefaultDatabase, "database holding the collections")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", DefaultConnectTimeout, "server selection timeout")
	fs.IntVar(&c.ConnectRetries, "connect-retries", 1, "connection attempts before giving up")

	fs.StringVar(&c.DatasetsDir, "datasets-dir", DefaultDatasetsDir, "directory holding the input files")
	fs.StringVar(&c.CensusFile, "census-file", DefaultCensusFile, "census microdata CSV")
	fs.StringVar(&c.AttendanceFile, "attendance-file", DefaultAttendanceFile, "school attendance spreadsheet")
	fs.StringVar(&c.YearsOfStudyFile, "years-file", DefaultYearsOfStudyFile, "mean years of study spreadsheet")
	fs.StringVar(&c.InstructionFile, "instruction-file", DefaultInstructionFile, "instruction level spreadsheet")
	fs.IntVar(&c.SkipRows, "skip-rows", DefaultSkipRows, "header rows above the data in each spreadsheet")

	fs.BoolVar(&c.Parallel, "parallel", false, "decode spreadsheets and run reports concurrently")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug, info, warn or error")

	fs.IntVar(&c.Port, "port", DefaultPort, "HTTP port for serve")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", DefaultCacheTTL, "how long served reports are cached")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", []string{"*"}, "origins allowed to call the API")

	fs.StringVarP(&c.ConfigFile, "config", "c", "", "YAML configuration file")
	fs.StringVar(&c.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

// Load fills the flags of fs from, in priority order, the command line,
// the environment, the config file named by the "config" flag, and the
// flag defaults. Values reach Config through the flag pointers.
func Load(fs *pflag.FlagSet) error {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return errors.Wrap(err, "binding flags")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	valid := make(map[string]bool)
	fs.VisitAll(func(f *pflag.Flag) {
		valid[f.Name] = true
	})

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file %q", path)
		}
		for _, key := range v.AllKeys() {
			if !valid[key] {
				return errors.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			// a list from the config file reads as "" through GetString
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = errors.Wrapf(err, "option %s", f.Name)
		}
	})
	return flagErr
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "stat %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return false, errors.Wrapf(err, "loading %s", path)
	}
	return true, nil
}

// Validate checks the settings needed to reach the store and read inputs.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.MongoURI) == "":
		return errors.Wrap(ErrInvalidConfig, "mongo-uri is empty")
	case strings.TrimSpace(c.Database) == "":
		return errors.Wrap(ErrInvalidConfig, "mongo-db-name is empty")
	case c.ConnectTimeout <= 0:
		return errors.Wrap(ErrInvalidConfig, "connect-timeout must be positive")
	case c.ConnectRetries < 1:
		return errors.Wrap(ErrInvalidConfig, "connect-retries must be at least 1")
	case c.SkipRows < 0:
		return errors.Wrap(ErrInvalidConfig, "skip-rows is negative")
	case c.Port <= 0 || c.Port > 65535:
		return errors.Wrapf(ErrInvalidConfig, "port %d out of range", c.Port)
	}
	return nil
}

// Path resolves an input file name against DatasetsDir. Absolute names are
// returned unchanged.
func (c Config) Path(name string) string {
	if filepath.IsAbs(name) || c.DatasetsDir == "" {
		return name
	}
	return filepath.Join(c.DatasetsDir, name)
}
