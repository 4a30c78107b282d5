package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REAM_"

// Config is the controller configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Journal JournalConfig `yaml:"journal" json:"journal"`
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// ServerConfig configures the TCP command server.
type ServerConfig struct {
	Host           string `yaml:"host" json:"host"`
	Port           int    `yaml:"port" json:"port"`
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`
	Signature      uint32 `yaml:"signature" json:"signature"`
	VerifyChecksum bool   `yaml:"verify_checksum" json:"verify_checksum"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// EngineConfig configures the cycle and the list pools.
type EngineConfig struct {
	CyclePeriod time.Duration `yaml:"cycle_period" json:"cycle_period"`
	Lists       int           `yaml:"lists" json:"lists"`
	ListEntries int           `yaml:"list_entries" json:"list_entries"`
	QueueSize   int           `yaml:"queue_size" json:"queue_size"`
}

// JournalConfig configures the journal history ring.
type JournalConfig struct {
	RingSize int `yaml:"ring_size" json:"ring_size"`
}

// ArchiveConfig configures the SQLite archive. An empty path disables it.
type ArchiveConfig struct {
	Path      string `yaml:"path" json:"path"`
	Buffer    int    `yaml:"buffer" json:"buffer"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// MonitorConfig configures the HTTP monitor. An empty address disables it.
type MonitorConfig struct {
	Address string `yaml:"address" json:"address"`
}

// Default returns the configuration of a stock controller.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           12200,
			MaxConnections: 8,
			Signature:      171,
		},
		Engine: EngineConfig{
			CyclePeriod: 10 * time.Millisecond,
			Lists:       1024,
			ListEntries: 1024,
			QueueSize:   256,
		},
		Journal: JournalConfig{RingSize: 65536},
		Archive: ArchiveConfig{Buffer: 4096, BatchSize: 256},
	}
}

// ValidationError is one rejected configuration field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one configuration.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Error codes of ValidationError.
const (
	CodeSchema = "E_CONFIG_SCHEMA"
	CodeEnv    = "E_CONFIG_ENV"
)

type loader struct {
	envFile string
	lookup  func(string) (string, bool)
}

// Option configures Load.
type Option func(*loader)

// WithEnvFile reads overrides from a dotenv file. Variables set in the
// process environment win over the file. A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithLookup replaces the process environment, for tests.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		l.lookup = fn
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// not empty), then REAM_* environment overrides, then validation.
func Load(path string, opts ...Option) (Config, error) {
	l := loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&l)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	lookup := l.lookup
	if l.envFile != "" {
		file, err := godotenv.Read(l.envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read env file: %w", err)
		}
		lookup = func(key string) (string, bool) {
			if v, ok := l.lookup(key); ok {
				return v, true
			}
			v, ok := file[key]
			return v, ok
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode merges YAML data into cfg. Unknown fields are rejected.
func Decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs ValidationErrors
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, ValidationError{Field: EnvPrefix + name, Message: "not an integer: " + v, Code: CodeEnv})
			return
		}
		*dst = n
	}

	str("HOST", &cfg.Server.Host)
	integer("PORT", &cfg.Server.Port)
	integer("MAX_CONNECTIONS", &cfg.Server.MaxConnections)
	if v, ok := lookup(EnvPrefix + "SIGNATURE"); ok {
		n, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			errs = append(errs, ValidationError{Field: EnvPrefix + "SIGNATURE", Message: "not a 32-bit unsigned integer: " + v, Code: CodeEnv})
		} else {
			cfg.Server.Signature = uint32(n)
		}
	}
	if v, ok := lookup(EnvPrefix + "VERIFY_CHECKSUM"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, ValidationError{Field: EnvPrefix + "VERIFY_CHECKSUM", Message: "not a boolean: " + v, Code: CodeEnv})
		} else {
			cfg.Server.VerifyChecksum = b
		}
	}
	if v, ok := lookup(EnvPrefix + "CYCLE_PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, ValidationError{Field: EnvPrefix + "CYCLE_PERIOD", Message: "not a duration: " + v, Code: CodeEnv})
		} else {
			cfg.Engine.CyclePeriod = d
		}
	}
	integer("LISTS", &cfg.Engine.Lists)
	integer("LIST_ENTRIES", &cfg.Engine.ListEntries)
	integer("QUEUE_SIZE", &cfg.Engine.QueueSize)
	integer("JOURNAL_RING", &cfg.Journal.RingSize)
	str("ARCHIVE", &cfg.Archive.Path)
	str("MONITOR", &cfg.Monitor.Address)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema and returns
// ValidationErrors listing every violated field.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.Encode(cfg)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	err := def.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var errs ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    CodeSchema,
		})
	}
	return errs
}
