package allowlist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Environment variables read by FromEnv. Each holds either a comma-separated
// mask list or a path ("/..." or "./...") to a YAML rules file.
const (
	EnvAllow = "LOGSHIP_ALLOW"
	EnvDeny  = "LOGSHIP_DENY"
)

// FromEnv loads allow/deny rules from the environment. Unset variables leave
// the corresponding list empty. A variable holding a comma-separated list
// feeds only its own list; a variable pointing at a YAML rules file
// contributes the file's allow and deny lists in their declared roles, never
// reassigned to the list the variable names. Invalid mask expressions are
// rejected, not skipped: a rule that cannot be validated must not be silently
// dropped from an access-control decision.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if v := os.Getenv(EnvAllow); v != "" {
		if err := applySource(cfg, v, &cfg.Allow); err != nil {
			return nil, fmt.Errorf("allowlist: invalid %s: %w", EnvAllow, err)
		}
	}
	if v := os.Getenv(EnvDeny); v != "" {
		if err := applySource(cfg, v, &cfg.Deny); err != nil {
			return nil, fmt.Errorf("allowlist: invalid %s: %w", EnvDeny, err)
		}
	}
	return cfg, nil
}

func applySource(cfg *Config, value string, dst *[]Rule) error {
	if strings.HasPrefix(value, "/") || strings.HasPrefix(value, "./") {
		file, err := LoadYAML(value)
		if err != nil {
			return err
		}
		cfg.Allow = append(cfg.Allow, file.Allow...)
		cfg.Deny = append(cfg.Deny, file.Deny...)
		return nil
	}
	rules, err := ParseList(value)
	if err != nil {
		return err
	}
	*dst = append(*dst, rules...)
	return nil
}

// ParseList parses a comma-separated list of mask expressions or bare
// addresses. Empty elements are ignored; invalid elements fail the whole
// list.
func ParseList(list string) ([]Rule, error) {
	parts := strings.Split(list, ",")
	rules := make([]Rule, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		r, err := ParseRule(p)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

type yamlRules struct {
	Allowlist struct {
		Allow []string `yaml:"allow"`
		Deny  []string `yaml:"deny"`
	} `yaml:"allowlist"`
}

// LoadYAML loads a full Config from a YAML file of the form:
//
//	allowlist:
//	  allow: ["10.0.0.0/8", "192.168.1.7"]
//	  deny:  ["10.13.0.0/16"]
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("allowlist: read rules file: %w", err)
	}
	var doc yamlRules
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("allowlist: parse rules file: %w", err)
	}
	cfg := &Config{}
	if cfg.Allow, err = parseAll(doc.Allowlist.Allow); err != nil {
		return nil, err
	}
	if cfg.Deny, err = parseAll(doc.Allowlist.Deny); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseAll(exprs []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(exprs))
	for _, e := range exprs {
		r, err := ParseRule(strings.TrimSpace(e))
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
