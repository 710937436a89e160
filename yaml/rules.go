// Package yaml loads site rules from YAML documents.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/glimpse"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout:
//
//	rules:
//	  - domain: example.com
//	    name: Example
//	    waitFor: main img
//	    singlePageApp: true
//	    settleDelay: 750ms
type ruleFile struct {
	Rules []glimpse.SiteRule `yaml:"rules"`
}

// LoadRules decodes site rules from r. Each rule must declare a domain.
func LoadRules(r io.Reader) ([]glimpse.SiteRule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, glimpse.Errorf(glimpse.EINVALID, "invalid rule file: %v", err)
	}

	for i, rule := range f.Rules {
		if rule.Domain == "" {
			return nil, glimpse.Errorf(glimpse.EINVALID, "rule %d: domain required", i)
		}
		if rule.MinImageSize < 0 {
			return nil, glimpse.Errorf(glimpse.EINVALID, "rule %q: minImageSize must not be negative", rule.Domain)
		}
		if rule.MinInterval < 0 {
			return nil, glimpse.Errorf(glimpse.EINVALID, "rule %q: minInterval must not be negative", rule.Domain)
		}
	}
	return f.Rules, nil
}

// LoadRulesFile reads rules from the file at path.
func LoadRulesFile(path string) ([]glimpse.SiteRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer f.Close()

	return LoadRules(f)
}
