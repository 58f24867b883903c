// Package config loads typeuml settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TYPEUML_"

type Config struct {
	Project struct {
		Roots    []string `yaml:"roots" validate:"required,min=1,dive,required"`
		Exclude  []string `yaml:"exclude"`
		Language string   `yaml:"language" validate:"oneof=java"`
		Workers  int      `yaml:"workers" validate:"gte=0"`
	} `yaml:"project"`
	Output struct {
		Format string `yaml:"format" validate:"oneof=plantuml mermaid"`
		Path   string `yaml:"path"` // empty or "-" writes to stdout
		Fenced bool   `yaml:"fenced"`
	} `yaml:"output"`
	Resolve struct {
		Oracle     string   `yaml:"oracle" validate:"oneof=imports none"`
		KnownTypes []string `yaml:"known_types" validate:"dive,required"`
	} `yaml:"resolve"`
	Classify struct {
		Operations            bool `yaml:"operations"`
		SignatureDependencies bool `yaml:"signature_dependencies"`
		ExternalDependencies  bool `yaml:"external_dependencies"`
	} `yaml:"classify"`
	Storage struct {
		DB string `yaml:"db"` // empty disables run history
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Roots = []string{"."}
	cfg.Project.Language = "java"
	cfg.Output.Format = "plantuml"
	cfg.Resolve.Oracle = "imports"
	cfg.Classify.Operations = true
	cfg.Classify.SignatureDependencies = true
	cfg.Classify.ExternalDependencies = true
	cfg.Storage.DB = "typeuml.db"
	cfg.Log.Level = "info"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
// Variables from .env and TYPEUML_* overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with environment variables if present
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports them together.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = splitList(v)
		}
	}
	flag := func(name string, dst *bool) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = b
		return nil
	}

	list("ROOTS", &c.Project.Roots)
	list("EXCLUDE", &c.Project.Exclude)
	str("FORMAT", &c.Output.Format)
	str("OUT", &c.Output.Path)
	str("ORACLE", &c.Resolve.Oracle)
	list("KNOWN_TYPES", &c.Resolve.KnownTypes)
	str("DB", &c.Storage.DB)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup(envPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", envPrefix, err)
		}
		c.Project.Workers = n
	}
	for name, dst := range map[string]*bool{
		"OPERATIONS":             &c.Classify.Operations,
		"SIGNATURE_DEPENDENCIES": &c.Classify.SignatureDependencies,
		"EXTERNAL_DEPENDENCIES":  &c.Classify.ExternalDependencies,
		"FENCED":                 &c.Output.Fenced,
	} {
		if err := flag(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
