package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type Mirror struct {
	URL       string            `yaml:"url" validate:"required,url"`
	ApiKey    string            `yaml:"api_key"`
	ApiKeyEnv string            `yaml:"api_key_env"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Query     map[string]string `yaml:"query,omitempty"`
}

// FinalizeMirrors: fill api key, env substitution, attach query params
func (s *SourcesConfig) FinalizeMirrors() error {
	for srcName, src := range s.Items {
		mirrors := make([]Mirror, len(src.Mirrors))
		for i, m := range src.Mirrors {
			if m.Headers == nil {
				m.Headers = map[string]string{}
			}
			if m.Query == nil {
				m.Query = map[string]string{}
			}

			// fill API key
			key := m.ApiKey
			if key == "" && m.ApiKeyEnv != "" {
				key = os.Getenv(m.ApiKeyEnv)
			}
			m.ApiKey = key

			// substitute ${VAR} in URL / headers / query
			m.URL = substituteKey(m.URL, key)
			for k, v := range m.Headers {
				m.Headers[k] = substituteEnvVars(v)
			}
			for k, v := range m.Query {
				m.Query[k] = substituteEnvVars(v)
			}

			// attach query into URL
			if len(m.Query) > 0 {
				u, err := url.Parse(m.URL)
				if err != nil {
					return fmt.Errorf("%s: invalid mirror url: %q", srcName, m.URL)
				}
				q := u.Query()
				for k, v := range m.Query {
					q.Set(k, v)
				}
				u.RawQuery = q.Encode()
				m.URL = u.String()
			}

			mirrors[i] = m
		}
		src.Mirrors = mirrors
		s.Items[srcName] = src
	}
	return nil
}

// helpers
func substituteKey(s, key string) string {
	if s == "" || key == "" {
		return s
	}
	return strings.ReplaceAll(s, "${API_KEY}", key)
}

func substituteEnvVars(s string) string {
	if s == "" {
		return s
	}
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			break
		}
		end += start
		varName := s[start+2 : end]
		envValue := os.Getenv(varName)
		s = strings.ReplaceAll(s, "${"+varName+"}", envValue)
	}
	return s
}
