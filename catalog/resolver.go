package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ordnance/internal/bonus"
	"ordnance/internal/weapon"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// Override patches an already declared weapon. Patch holds the raw JSON
// object; only the fields it names change.
type Override struct {
	Name   string
	Source string
	Patch  json.RawMessage
}

// Resolver merges one or more catalog sources into a stable weapon table.
// Call Reload to pick up on-disk changes.
type Resolver struct {
	mu        sync.RWMutex
	sources   []source
	templates map[string]*weapon.Template
	global    *bonus.Set
	overrides []Override
}

// DefaultPaths returns the canonical catalog locations relative to the module
// root. Callers may pass these to Load.
func DefaultPaths() []string {
	candidates := []string{
		filepath.Join("config", "weapons", "definitions.json"),
		filepath.Join("..", "config", "weapons", "definitions.json"),
	}

	paths := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		cleaned := filepath.Clean(candidate)
		if _, duplicate := seen[cleaned]; duplicate {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

// Load constructs a Resolver over the provided catalog file paths.
func Load(paths ...string) (*Resolver, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return NewResolver(sources...)
}

// NewResolver constructs a Resolver from arbitrary sources. The resolver is
// returned even when some entries failed; the error joins every rejected
// entry.
func NewResolver(sources ...source) (*Resolver, error) {
	r := &Resolver{
		sources:   append([]source(nil), sources...),
		templates: make(map[string]*weapon.Template),
	}
	err := r.Reload()
	return r, err
}

// Reload re-parses all catalog sources. Later sources replace weapons of the
// same name from earlier ones. Missing files are skipped. A malformed source
// or entry is skipped and reported; everything else still loads.
func (r *Resolver) Reload() error {
	if r == nil {
		return nil
	}
	var errs []error
	templates := make(map[string]*weapon.Template)
	global := bonus.NewSet()
	var overrides []Override

	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err))
			continue
		}
		doc, err := decodeDocument(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err))
			continue
		}

		for i, decl := range doc.GlobalBonuses {
			if err := global.Declare(decl); err != nil {
				errs = append(errs, fmt.Errorf("catalog: %s: globalBonuses[%d]: %w", src.Path(), i, err))
			}
		}

		seen := make(map[string]struct{}, len(doc.Weapons))
		for i, raw := range doc.Weapons {
			t, err := decodeTemplate(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("catalog: %s: weapons[%d]: %w", src.Path(), i, err))
				continue
			}
			if _, dup := seen[t.Name]; dup {
				errs = append(errs, fmt.Errorf("catalog: %s: duplicate weapon %q", src.Path(), t.Name))
				continue
			}
			seen[t.Name] = struct{}{}
			templates[t.Name] = t
		}

		for i, raw := range doc.Overrides {
			name, err := overrideName(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("catalog: %s: overrides[%d]: %w", src.Path(), i, err))
				continue
			}
			overrides = append(overrides, Override{Name: name, Source: src.Path(), Patch: append(json.RawMessage(nil), raw...)})
		}
	}

	errs = append(errs, pruneDangling(templates)...)

	kept := overrides[:0]
	for _, o := range overrides {
		if _, ok := templates[o.Name]; !ok {
			errs = append(errs, fmt.Errorf("catalog: %s: override of unknown weapon %q", o.Source, o.Name))
			continue
		}
		kept = append(kept, o)
	}

	r.mu.Lock()
	r.templates = templates
	r.global = global
	r.overrides = kept
	r.mu.Unlock()
	return errors.Join(errs...)
}

// pruneDangling drops weapons whose shrapnel or combo weapon is not declared,
// and every weapon on a historic combo cycle, repeating until the table is
// closed under those references.
func pruneDangling(templates map[string]*weapon.Template) []error {
	var errs []error
	for {
		var dropped []string
		for _, name := range sortedNames(templates) {
			t := templates[name]
			if t.Shrapnel != nil {
				if _, ok := templates[t.Shrapnel.Weapon]; !ok {
					errs = append(errs, fmt.Errorf("catalog: weapon %q: shrapnel references unknown weapon %q", name, t.Shrapnel.Weapon))
					dropped = append(dropped, name)
					continue
				}
			}
			if t.Combo != nil {
				if _, ok := templates[t.Combo.Weapon]; !ok {
					errs = append(errs, fmt.Errorf("catalog: weapon %q: historicCombo references unknown weapon %q", name, t.Combo.Weapon))
					dropped = append(dropped, name)
					continue
				}
				if cycle := comboCycle(templates, name); cycle != nil {
					errs = append(errs, fmt.Errorf("catalog: weapon %q: historicCombo cycle %s", name, strings.Join(cycle, " -> ")))
					dropped = append(dropped, name)
				}
			}
		}
		if len(dropped) == 0 {
			return errs
		}
		for _, name := range dropped {
			delete(templates, name)
		}
	}
}

// comboCycle returns the combo chain from name when it leads back to name.
func comboCycle(templates map[string]*weapon.Template, name string) []string {
	path := []string{name}
	seen := map[string]bool{name: true}
	for t := templates[name]; t != nil && t.Combo != nil; t = templates[t.Combo.Weapon] {
		path = append(path, t.Combo.Weapon)
		if t.Combo.Weapon == name {
			return path
		}
		if seen[t.Combo.Weapon] {
			return nil
		}
		seen[t.Combo.Weapon] = true
	}
	return nil
}

// Template returns a copy of the named weapon.
func (r *Resolver) Template(name string) (*weapon.Template, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Templates returns copies of every loaded weapon ordered by name.
func (r *Resolver) Templates() []*weapon.Template {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*weapon.Template, 0, len(r.templates))
	for _, name := range sortedNames(r.templates) {
		out = append(out, r.templates[name].Clone())
	}
	return out
}

// GlobalBonus returns a copy of the merged global bonus declarations.
func (r *Resolver) GlobalBonus() *bonus.Set {
	if r == nil {
		return bonus.NewSet()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.global == nil {
		return bonus.NewSet()
	}
	return r.global.Clone()
}

// Overrides returns the loaded overrides in application order.
func (r *Resolver) Overrides() []Override {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Override, len(r.overrides))
	for i, o := range r.overrides {
		o.Patch = append(json.RawMessage(nil), o.Patch...)
		out[i] = o
	}
	return out
}

// Apply registers every loaded weapon with store and then stacks the
// overrides on top in file order. Failures are joined; the rest still apply.
func (r *Resolver) Apply(store *weapon.Store) error {
	if r == nil || store == nil {
		return nil
	}
	var errs []error
	for _, t := range r.Templates() {
		if err := store.Register(t); err != nil {
			errs = append(errs, fmt.Errorf("catalog: register %q: %w", t.Name, err))
		}
	}
	for _, o := range r.Overrides() {
		patch := o.Patch
		if _, err := store.RegisterOverride(o.Name, func(t *weapon.Template) error {
			return json.Unmarshal(patch, t)
		}); err != nil {
			errs = append(errs, fmt.Errorf("catalog: %s: %w", o.Source, err))
		}
	}
	return errors.Join(errs...)
}

func sortedNames(templates map[string]*weapon.Template) []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rawDocument struct {
	GlobalBonuses []bonus.Declaration `json:"globalBonuses"`
	Weapons       []json.RawMessage   `json:"weapons"`
	Overrides     []json.RawMessage   `json:"overrides"`
}

func decodeTemplate(raw json.RawMessage) (*weapon.Template, error) {
	var t weapon.Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func overrideName(raw json.RawMessage) (string, error) {
	var head struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", err
	}
	name := strings.TrimSpace(head.Name)
	if name == "" {
		return "", errors.New("override missing name")
	}
	return name, nil
}

// decodeDocument accepts a full catalog document, a bare array of weapons,
// or an object of weapons keyed by name.
func decodeDocument(data []byte) (rawDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return rawDocument{}, nil
	}
	switch trimmed[0] {
	case '[':
		var weapons []json.RawMessage
		if err := json.Unmarshal(trimmed, &weapons); err != nil {
			return rawDocument{}, err
		}
		return rawDocument{Weapons: weapons}, nil
	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return rawDocument{}, err
		}
		if isDocument(object) {
			var doc rawDocument
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return rawDocument{}, err
			}
			return doc, nil
		}
		names := make([]string, 0, len(object))
		for name := range object {
			names = append(names, name)
		}
		sort.Strings(names)
		weapons := make([]json.RawMessage, 0, len(names))
		for _, name := range names {
			raw, err := keyedEntry(name, object[name])
			if err != nil {
				return rawDocument{}, err
			}
			weapons = append(weapons, raw)
		}
		return rawDocument{Weapons: weapons}, nil
	default:
		return rawDocument{}, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}

func isDocument(object map[string]json.RawMessage) bool {
	for _, key := range []string{"weapons", "globalBonuses", "overrides"} {
		if _, ok := object[key]; ok {
			return true
		}
	}
	return false
}

// keyedEntry fills in the name of an entry keyed by name, rejecting entries
// whose own name disagrees with the key.
func keyedEntry(key string, raw json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("weapon %q: %w", key, err)
	}
	if existing, ok := fields["name"]; ok {
		var name string
		if err := json.Unmarshal(existing, &name); err != nil {
			return nil, fmt.Errorf("weapon %q: %w", key, err)
		}
		if name != key {
			return nil, fmt.Errorf("weapon name %q does not match key %q", name, key)
		}
		return raw, nil
	}
	encoded, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	fields["name"] = encoded
	return json.Marshal(fields)
}
