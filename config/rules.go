package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// localRulesDir is the per-user rule location relative to a home directory.
const localRulesDir = ".reniced"

// Rule is one administrator-defined renice policy. Rules are evaluated in
// declaration order and the first match wins, so overlapping rules should go
// from most to least specific.
type Rule struct {
	Name    string  `yaml:"name" json:"name" validate:"required"`
	Owner   string  `yaml:"owner,omitempty" json:"owner,omitempty"`
	Bin     string  `yaml:"bin" json:"bin"`
	Nice    int     `yaml:"nice" json:"nice" validate:"min=-20,max=19"`
	Matcher Matcher `yaml:"matcher" json:"matcher"`
}

// Matcher controls how a rule is compared against a process command line.
// An empty MatchString falls back to Bin plus a trailing space, which keeps
// "/usr/bin/foo" from also matching "/usr/bin/foobar". Unrecognized types
// never match; they are reserved for future match kinds, so a newer rule file
// on an older daemon degrades to inert rules instead of errors.
type Matcher struct {
	Type        string `yaml:"type" json:"type" validate:"required"`
	MatchString string `yaml:"match_string,omitempty" json:"match_string,omitempty"`
	StripPath   bool   `yaml:"strip_path,omitempty" json:"strip_path,omitempty"`
}

// RuleSet is an ordered list of rules as loaded from one or more YAML files.
type RuleSet struct {
	Process []Rule `yaml:"process" json:"process"`
}

// Dump renders the rule set as YAML, the same shape it is loaded from.
func (rs RuleSet) Dump() (string, error) {
	out, err := yaml.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("error rendering rules: %w", err)
	}
	return string(out), nil
}

var validate = validator.New()

// LoadAll builds the effective rule set: the system-wide file first, then each
// user's local rules folded in on top. No layer is required. A missing or
// broken file is logged and skipped so the daemon always comes up, worst case
// with nothing to match.
func LoadAll(globalPath, homeRoot string) RuleSet {
	merged, err := loadFile(globalPath)
	if err != nil {
		log.Debugf("no global rules loaded from %s: %v", globalPath, err)
		merged = RuleSet{}
	}

	users, err := homeUsers(homeRoot)
	if err != nil {
		log.Warnf("error listing home directories under %s: %v", homeRoot, err)
	}
	for _, user := range users {
		local, err := loadLocal(homeRoot, user)
		if err != nil {
			if os.IsNotExist(err) {
				log.Debugf("no local rules for user %s", user)
			} else {
				log.Warnf("error loading local rules for user %s: %v", user, err)
			}
			continue
		}
		merged = Merge(merged, local)
	}

	return Validate(merged)
}

// Merge folds local rules into merged. A local rule whose name matches an
// existing one replaces that rule's owner, nice value and matcher in place,
// keeping its position; anything else is appended in order.
func Merge(merged, local RuleSet) RuleSet {
	for _, lr := range local.Process {
		replaced := false
		for i := range merged.Process {
			if merged.Process[i].Name != lr.Name {
				continue
			}
			merged.Process[i].Owner = lr.Owner
			merged.Process[i].Nice = lr.Nice
			merged.Process[i].Matcher = lr.Matcher
			replaced = true
			break
		}
		if !replaced {
			merged.Process = append(merged.Process, lr)
		}
	}
	return merged
}

// Validate drops rules that fail structural validation. Dropping instead of
// failing keeps one bad stanza from taking the whole daemon down.
func Validate(rules RuleSet) RuleSet {
	kept := make([]Rule, 0, len(rules.Process))
	for _, r := range rules.Process {
		if err := validate.Struct(r); err != nil {
			log.Warnf("dropping invalid rule %q: %v", r.Name, err)
			continue
		}
		kept = append(kept, r)
	}
	rules.Process = kept
	return rules
}

// loadLocal reads one user's rules and defaults their owner to that user, so
// local rules only ever touch the user's own processes unless they say
// otherwise.
func loadLocal(homeRoot, user string) (RuleSet, error) {
	if user == "lost+found" {
		return RuleSet{}, nil
	}
	rules, err := loadFile(filepath.Join(homeRoot, user, localRulesDir, "config.yaml"))
	if err != nil {
		return RuleSet{}, err
	}
	for i := range rules.Process {
		if rules.Process[i].Owner == "" {
			rules.Process[i].Owner = user
		}
	}
	return rules, nil
}

func loadFile(path string) (RuleSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, err
	}
	var rules RuleSet
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return RuleSet{}, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return rules, nil
}

func homeUsers(homeRoot string) ([]string, error) {
	entries, err := os.ReadDir(homeRoot)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		users = append(users, entry.Name())
	}
	return users, nil
}
