package config

import (
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/samber/lo"

	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
)

type SourcesConfig struct {
	Defaults SourceConfig            `yaml:"defaults" validate:"-"`
	Items    map[string]SourceConfig `yaml:",inline" validate:"required,min=1,dive,keys,required,endkeys,required"`
}

// UnmarshalYAML splits out "defaults" from inline source entries
func (s *SourcesConfig) UnmarshalYAML(b []byte) error {
	var raw map[string]SourceConfig
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		raw = map[string]SourceConfig{}
	}
	if def, ok := raw["defaults"]; ok {
		s.Defaults = def
		delete(raw, "defaults")
	} else {
		s.Defaults = SourceConfig{}
	}
	s.Items = raw
	return nil
}

type SourceConfig struct {
	Name         string          `yaml:"name" validate:"required"`
	Type         enum.SourceType `yaml:"type" validate:"required,oneof=file feed"`
	Path         string          `yaml:"path" validate:"required_if=Type file"`
	Mirrors      []Mirror        `yaml:"mirrors" validate:"required_if=Type feed,omitempty,min=1,dive"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	Client       ClientCfg       `yaml:"client"`
}

type ClientCfg struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Throttle   ThrottleCfg   `yaml:"throttle"`
}

type ThrottleCfg struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

func (s *SourcesConfig) GetAllSourceNames() []string {
	return lo.Keys(s.Items)
}

func (s *SourcesConfig) ValidateSources(names []string) error {
	for _, name := range names {
		if _, ok := s.Items[name]; !ok {
			return fmt.Errorf("source %s not found", name)
		}
	}
	return nil
}

func (s *SourcesConfig) GetSource(name string) (SourceConfig, error) {
	if sc, ok := s.Items[name]; ok {
		return sc, nil
	}
	return SourceConfig{}, fmt.Errorf("source %s not found", name)
}
