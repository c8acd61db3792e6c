package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

// NameResolver renders templated engine names.
//
// Implementations must be safe for concurrent use; one resolver is shared
// by all extraction workers.
type NameResolver interface {
	Resolve(ref domain.NameRef) (string, error)
}

// ErrUnknownNameKey is returned for a template key the resolver does not know.
var ErrUnknownNameKey = errors.New("unknown name key")

// variableDelimiters are the placeholder styles a template may use.
var variableDelimiters = [][2]string{{"<", ">"}, {"[", "]"}, {"$", "$"}}

// LocalizationResolver resolves names from localization files. It is
// read-only after loading.
type LocalizationResolver struct {
	templates map[string]string
}

// NewLocalizationResolver creates a resolver holding the given templates.
func NewLocalizationResolver(templates map[string]string) *LocalizationResolver {
	r := &LocalizationResolver{templates: make(map[string]string, len(templates)+1)}
	r.templates["global_event_country"] = "Global event country"
	for k, v := range templates {
		r.templates[k] = v
	}
	return r
}

// LoadLocalization reads localization files into a resolver. Each file
// is either YAML (a mapping of keys to templates, optionally nested under
// a language key) or the engine's line format `KEY:0 "template"`.
func LoadLocalization(paths ...string) (*LocalizationResolver, error) {
	templates := make(map[string]string)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read localization %s: %w", p, err)
		}
		if err := parseLocalization(data, templates); err != nil {
			return nil, fmt.Errorf("parse localization %s: %w", p, err)
		}
	}
	return NewLocalizationResolver(templates), nil
}

// engineLine matches the engine's `KEY:0 "template"` entries, which YAML
// would read as one folded plain scalar.
var engineLine = regexp.MustCompile(`(?m)^\s*[^\s:#"]+:\d+\s*"`)

func parseLocalization(data []byte, into map[string]string) error {
	if !engineLine.Match(data) {
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err == nil {
			flattenTemplates(doc, into)
			return nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rest, ok := strings.Cut(line, "\"")
		if !ok {
			continue
		}
		val, _, ok := strings.Cut(rest, "\"")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if i := strings.LastIndexByte(key, ':'); i >= 0 {
			key = key[:i]
		}
		if key != "" {
			into[key] = strings.TrimSpace(val)
		}
	}
	return sc.Err()
}

// flattenTemplates copies string leaves into into. Nested mappings (such
// as a top-level language key) are descended into.
func flattenTemplates(doc map[string]any, into map[string]string) {
	for k, v := range doc {
		switch val := v.(type) {
		case string:
			into[k] = val
		case map[string]any:
			flattenTemplates(val, into)
		}
	}
}

// Resolve renders ref. Literal names are returned as is; other names
// look up their template and substitute variables recursively.
func (r *LocalizationResolver) Resolve(ref domain.NameRef) (string, error) {
	if ref.Literal {
		return ref.Key, nil
	}
	tmpl, ok := r.templates[ref.Key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNameKey, ref.Key)
	}
	for _, v := range ref.Variables {
		sub, err := r.Resolve(v.Value)
		if err != nil {
			sub = v.Value.Key
		}
		for _, d := range variableDelimiters {
			tmpl = strings.ReplaceAll(tmpl, d[0]+v.Key+d[1], sub)
		}
	}
	return tmpl, nil
}

// Len returns the number of known templates.
func (r *LocalizationResolver) Len() int { return len(r.templates) }

// parseNameRef reads an engine name: a plain string or a
// {key literal variables} block.
func parseNameRef(v savefmt.Value) (domain.NameRef, bool) {
	if s, ok := v.AsString(); ok {
		return domain.NameRef{Key: s, Literal: true}, true
	}
	if v.Kind() != savefmt.KindMapping {
		return domain.NameRef{}, false
	}
	key, ok := v.Get("key").AsString()
	if !ok {
		return domain.NameRef{}, false
	}
	ref := domain.NameRef{Key: key, Literal: boolOf(v.Get("literal"))}
	for _, item := range v.Get("variables").Elements() {
		vk := stringOf(item.Get("key"), "")
		val, ok := parseNameRef(item.Get("value"))
		if vk == "" || !ok {
			continue
		}
		ref.Variables = append(ref.Variables, domain.NameVariable{Key: vk, Value: val})
	}
	return ref, true
}
