// config/rules.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
)

// LoadRuleDefinitions reads the declarative security rules from a YAML
// file. The file is parsed with yaml.v3 directly instead of viper because
// condition names like AnyOf are case sensitive and viper lowercases
// nested map keys.
func LoadRuleDefinitions(path string) ([]accesscontrol.RuleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var document accesscontrol.SecurityDefinitions
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return document.Rules, nil
}

// LoadRuleSet reads and compiles the rules file in one step.
func LoadRuleSet(path string) (*accesscontrol.RuleSet, error) {
	definitions, err := LoadRuleDefinitions(path)
	if err != nil {
		return nil, err
	}
	return accesscontrol.Compile(definitions)
}
