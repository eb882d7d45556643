package services

import (
	"context"
	"errors"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cpharmston/fieldlevel/pkg/gate"
)

// PolicyFile is the declarative per-model field/inline policy document.
// Example:
//
//	version: 1
//	models:
//	  article:
//	    fields:
//	      approved: {capability: can_approve, require_object: true}
//	      status: {superuser_only: true}
//	    inlines:
//	      MetaTagInline: {capability: can_edit_meta}
type PolicyFile struct {
	Version int                    `yaml:"version"`
	Models  map[string]ModelPolicy `yaml:"models"`
}

type ModelPolicy struct {
	Fields  map[string]FieldPolicy  `yaml:"fields"`
	Inlines map[string]InlinePolicy `yaml:"inlines"`
}

type FieldPolicy struct {
	Capability    string `yaml:"capability"`
	RequireObject bool   `yaml:"require_object"`
	SuperuserOnly bool   `yaml:"superuser_only"`
	Expr          string `yaml:"expr"`
}

type InlinePolicy struct {
	Capability    string `yaml:"capability"`
	SuperuserOnly bool   `yaml:"superuser_only"`
	Expr          string `yaml:"expr"`
}

func ParsePolicyYAML(b []byte) (PolicyFile, error) {
	var p PolicyFile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return PolicyFile{}, err
	}
	if p.Version != 1 {
		return PolicyFile{}, errors.New("field policy: unsupported version")
	}
	if p.Models == nil {
		return PolicyFile{}, errors.New("field policy: missing models")
	}
	for model, mp := range p.Models {
		for field, fp := range mp.Fields {
			if !fp.SuperuserOnly && fp.Capability == "" && fp.Expr == "" {
				return PolicyFile{}, errors.New("field policy: empty policy for " + model + "." + field)
			}
			if fp.RequireObject && fp.Capability == "" {
				return PolicyFile{}, errors.New("field policy: require_object needs a capability for " + model + "." + field)
			}
		}
		for inline, ip := range mp.Inlines {
			if !ip.SuperuserOnly && ip.Capability == "" && ip.Expr == "" {
				return PolicyFile{}, errors.New("field policy: empty policy for " + model + " inline " + inline)
			}
		}
	}
	return p, nil
}

func LoadPolicy(path string) (PolicyFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PolicyFile{}, err
	}
	return ParsePolicyYAML(b)
}

// CompileGate turns one model's declarative policy into a gate. Fields and
// inlines without a policy entry fall through permissively. Rule order is
// deterministic (sorted by name); every matching rule must allow.
func (p PolicyFile) CompileGate(model string) (gate.Gate, error) {
	mp, ok := p.Models[model]
	if !ok {
		return gate.Gate{}, nil
	}

	fieldRules := make([]gate.FieldRule, 0, len(mp.Fields)*2)
	for _, name := range sortedKeys(mp.Fields) {
		fp := mp.Fields[name]
		if fp.SuperuserOnly {
			fieldRules = append(fieldRules, gate.SuperuserOnly(name))
		}
		if fp.Capability != "" {
			if fp.RequireObject {
				fieldRules = append(fieldRules, gate.RequireCapabilityOnObject(name, fp.Capability))
			} else {
				fieldRules = append(fieldRules, gate.RequireCapability(name, fp.Capability))
			}
		}
		if fp.Expr != "" {
			rule, err := gate.CELFieldRule(fp.Expr)
			if err != nil {
				return gate.Gate{}, err
			}
			fieldRules = append(fieldRules, forField(name, rule))
		}
	}

	inlineRules := make([]gate.InlineRule, 0, len(mp.Inlines)*2)
	for _, name := range sortedKeys(mp.Inlines) {
		ip := mp.Inlines[name]
		if ip.SuperuserOnly {
			inlineRules = append(inlineRules, superuserOnlyInline(name))
		}
		if ip.Capability != "" {
			inlineRules = append(inlineRules, gate.InlineRequireCapability(name, ip.Capability))
		}
		if ip.Expr != "" {
			rule, err := gate.CELInlineRule(ip.Expr)
			if err != nil {
				return gate.Gate{}, err
			}
			inlineRules = append(inlineRules, forInline(name, rule))
		}
	}

	g := gate.Gate{}
	if len(fieldRules) > 0 {
		g.FieldRule = gate.AllFieldRules(fieldRules...)
	}
	if len(inlineRules) > 0 {
		g.InlineRule = gate.AllInlineRules(inlineRules...)
	}
	return g, nil
}

// forField scopes a rule to a single field name; other names pass.
func forField(fieldName string, rule gate.FieldRule) gate.FieldRule {
	return func(ctx context.Context, req gate.Request, obj any, name string) (bool, error) {
		if name != fieldName {
			return true, nil
		}
		return rule(ctx, req, obj, name)
	}
}

func forInline(inlineName string, rule gate.InlineRule) gate.InlineRule {
	return func(ctx context.Context, req gate.Request, obj any, name string) (bool, error) {
		if name != inlineName {
			return true, nil
		}
		return rule(ctx, req, obj, name)
	}
}

func superuserOnlyInline(inlineName string) gate.InlineRule {
	return func(ctx context.Context, req gate.Request, obj any, name string) (bool, error) {
		if name != inlineName {
			return true, nil
		}
		return req.Principal.Superuser, nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
