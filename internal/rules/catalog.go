// Package rules evaluates the fixed alert rule catalog against a client's
// adherence state and creates notifications for rules that fire.
package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/afikmenashe/adherence-platform/internal/notification"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Rule is one catalog entry: a notification template bound to a predicate.
type Rule struct {
	Key               string                `yaml:"key" json:"key"`
	Name              string                `yaml:"name" json:"name"`
	Severity          notification.Severity `yaml:"severity" json:"severity"`
	Owner             string                `yaml:"owner" json:"owner"`
	SLAHours          int                   `yaml:"sla_hours" json:"sla_hours"`
	Message           string                `yaml:"message" json:"message_template"`
	RecommendedAction string                `yaml:"recommended_action" json:"recommended_action"`
	Params            map[string]float64    `yaml:"params,omitempty" json:"params,omitempty"`

	message   *template.Template
	predicate Predicate
}

// Param returns a numeric rule parameter, or def when unset.
func (r *Rule) Param(name string, def float64) float64 {
	if v, ok := r.Params[name]; ok {
		return v
	}
	return def
}

func (r *Rule) render(data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.message.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render message for rule %s: %w", r.Key, err)
	}
	return buf.String(), nil
}

// Catalog is the ordered, validated set of rules.
type Catalog struct {
	rules []*Rule
	byKey map[string]*Rule
}

// Rules returns the rules in catalog order.
func (c *Catalog) Rules() []*Rule {
	return c.rules
}

// Get returns the rule with key.
func (c *Catalog) Get(key string) (*Rule, bool) {
	r, ok := c.byKey[key]
	return r, ok
}

var templateFuncs = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}

// DefaultCatalog loads the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(embeddedCatalog, predicates)
}

// LoadCatalog parses a YAML catalog and binds each rule to its predicate.
// Every rule needs a predicate and every predicate needs a rule.
func LoadCatalog(data []byte, preds map[string]Predicate) (*Catalog, error) {
	var doc struct {
		Rules []*Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]*Rule, len(doc.Rules))}
	for _, r := range doc.Rules {
		if err := validateRule(r); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[r.Key]; dup {
			return nil, fmt.Errorf("duplicate rule key %q", r.Key)
		}
		pred, ok := preds[r.Key]
		if !ok {
			return nil, fmt.Errorf("rule %q has no predicate", r.Key)
		}
		tmpl, err := template.New(r.Key).Funcs(templateFuncs).Option("missingkey=error").Parse(r.Message)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid message template: %w", r.Key, err)
		}
		r.message = tmpl
		r.predicate = pred
		c.rules = append(c.rules, r)
		c.byKey[r.Key] = r
	}

	for key := range preds {
		if _, ok := c.byKey[key]; !ok {
			return nil, fmt.Errorf("predicate %q has no catalog entry", key)
		}
	}
	return c, nil
}

func validateRule(r *Rule) error {
	if r.Key == "" {
		return fmt.Errorf("rule key cannot be empty")
	}
	if _, err := notification.ParseSeverity(string(r.Severity)); err != nil {
		return fmt.Errorf("rule %q: %w", r.Key, err)
	}
	if r.Owner == "" {
		return fmt.Errorf("rule %q: owner cannot be empty", r.Key)
	}
	if r.SLAHours <= 0 {
		return fmt.Errorf("rule %q: sla_hours must be positive", r.Key)
	}
	if r.Message == "" {
		return fmt.Errorf("rule %q: message cannot be empty", r.Key)
	}
	return nil
}
