package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/imdario/mergo"

	"github.com/oddslab/scratch-analyzer/pkg/common/constant"
)

var validate = validator.New()

type Config struct {
	Environment string         `yaml:"environment" validate:"required,oneof=production development"`
	Sources     SourcesConfig  `yaml:"sources" validate:"required"`
	Analysis    AnalysisConfig `yaml:"analysis"`
	NATS        NATSConfig     `yaml:"nats"`
	Server      ServerConfig   `yaml:"server"`
	Log         LogConfig      `yaml:"log"`
}

// NATSConfig controls event publishing. When Enabled is false the rest of
// the section only provides defaults for the events subcommand.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url" validate:"required,url"`
	SubjectPrefix string `yaml:"subject_prefix" validate:"required"`
}

// AnalysisConfig holds the adjustment defaults used when a run does not
// override them. TaxRate is a percent; 0 means "use the standard rate".
type AnalysisConfig struct {
	IgnoreUnder500 bool    `yaml:"ignore_under_500"`
	ApplyTax       bool    `yaml:"apply_tax"`
	TaxRate        float64 `yaml:"tax_rate" validate:"gte=0,lte=100"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	// merge defaults, fill names from map keys
	for name, src := range cfg.Sources.Items {
		if err := mergo.Merge(&src, cfg.Sources.Defaults); err != nil {
			return cfg, err
		}
		if src.Name == "" {
			src.Name = name
		}
		cfg.Sources.Items[name] = src
	}

	if cfg.Analysis.TaxRate == 0 {
		cfg.Analysis.TaxRate = constant.DefaultTaxRate
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = constant.DefaultNATSURL
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = constant.DefaultSubjectPrefix
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = constant.DefaultServerPort
	}

	// finalize mirrors
	if err := cfg.Sources.FinalizeMirrors(); err != nil {
		return cfg, err
	}

	// validate
	if err := validate.Struct(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
