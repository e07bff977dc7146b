// Package fields holds the versioned registry of editable event field keys and their
// human-readable labels.
package fields

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultLabels []byte

type Field struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

type Registry struct {
	Version int     `yaml:"version" json:"version"`
	Core    []Field `yaml:"core" json:"core"`
	Public  []Field `yaml:"public" json:"public"`
	Markers []Field `yaml:"markers" json:"markers"`

	order  map[string]int
	labels map[string]string
	public map[string]bool
}

// Parse builds a registry from YAML. Keys must be unique across all sections.
func Parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse field registry: %w", err)
	}
	if r.Version <= 0 {
		return nil, fmt.Errorf("field registry version must be positive")
	}

	r.order = make(map[string]int)
	r.labels = make(map[string]string)
	r.public = make(map[string]bool)
	for _, section := range [][]Field{r.Core, r.Public, r.Markers} {
		for _, f := range section {
			if f.Key == "" {
				return nil, fmt.Errorf("field registry: empty key")
			}
			if _, dup := r.order[f.Key]; dup {
				return nil, fmt.Errorf("field registry: duplicate key %q", f.Key)
			}
			r.order[f.Key] = len(r.order)
			r.labels[f.Key] = f.Label
		}
	}
	for _, f := range r.Public {
		r.public[f.Key] = true
	}
	return &r, nil
}

var std *Registry

func init() {
	r, err := Parse(defaultLabels)
	if err != nil {
		panic(err)
	}
	std = r
}

// Default returns the embedded registry.
func Default() *Registry { return std }

// Label returns the display label for key, falling back to a humanized key.
func (r *Registry) Label(key string) string {
	if l, ok := r.labels[key]; ok && l != "" {
		return l
	}
	return humanize(key)
}

// Labels maps keys to labels, preserving the input order.
func (r *Registry) Labels(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.Label(k))
	}
	return out
}

func (r *Registry) IsPublic(key string) bool { return r.public[key] }

// Sort orders keys by registry position; unknown keys follow alphabetically.
func (r *Registry) Sort(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		oi, iok := r.order[keys[i]]
		oj, jok := r.order[keys[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
}

// UnknownPublic returns the keys of an extension map that the registry does not list as public.
func (r *Registry) UnknownPublic(m map[string]any) []string {
	var unknown []string
	for k := range m {
		if !r.IsPublic(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func humanize(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
