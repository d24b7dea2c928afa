package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk shape of one catalog layer.
type Manifest struct {
	Skills []Entry `yaml:"skills"`
	Agents []Entry `yaml:"agents"`
}

// Layer names one manifest source. Layers are merged lowest precedence
// first, so later layers override earlier ones entry by entry.
type Layer struct {
	Name string
	Path string
}

// Snapshot is an immutable view of the merged catalog. Routing calls hold a
// snapshot for their whole lifetime and never observe a partial reload.
type Snapshot struct {
	skills []Entry
	agents []Entry
}

// Entries returns the entries of the given kind in declaration order.
// The returned slice must not be modified.
func (s *Snapshot) Entries(kind Kind) []Entry {
	if s == nil {
		return nil
	}
	if kind == KindAgent {
		return s.agents
	}
	return s.skills
}

// Lookup finds an entry by kind and id.
func (s *Snapshot) Lookup(kind Kind, id string) (Entry, bool) {
	for _, e := range s.Entries(kind) {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Loader merges layered manifests into a Snapshot.
type Loader struct {
	layers []Layer
	log    *zap.Logger
}

// NewLoader creates a loader over the given layers, lowest precedence first.
func NewLoader(layers []Layer, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{layers: layers, log: log}
}

// Load reads every layer and merges them. A missing layer file is skipped
// silently; a malformed entry is skipped with a warning. Load only fails
// when a layer file exists but cannot be parsed at all.
func (l *Loader) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	for _, layer := range l.layers {
		m, err := readManifest(layer.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("catalog layer %s: %w", layer.Name, err)
		}
		snap.skills = mergeEntries(snap.skills, l.sanitize(m.Skills, KindSkill, layer.Name))
		snap.agents = mergeEntries(snap.agents, l.sanitize(m.Agents, KindAgent, layer.Name))
	}
	return snap, nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// sanitize validates entries of one layer, dropping malformed ones with a
// warning so a single bad entry never aborts loading.
func (l *Loader) sanitize(entries []Entry, kind Kind, layer string) []Entry {
	var out []Entry
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		e.Kind = kind
		if err := validateEntry(&e); err != nil {
			l.log.Warn("skipping malformed catalog entry",
				zap.String("layer", layer),
				zap.String("kind", string(kind)),
				zap.String("id", e.ID),
				zap.Error(err))
			continue
		}
		if seen[e.ID] {
			l.log.Warn("skipping duplicate catalog entry",
				zap.String("layer", layer),
				zap.String("kind", string(kind)),
				zap.String("id", e.ID))
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

func validateEntry(e *Entry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("missing id")
	}
	if e.Complexity == 0 {
		e.Complexity = 2
	}
	if e.Complexity < 1 || e.Complexity > 3 {
		return fmt.Errorf("complexity %d out of range 1..3", e.Complexity)
	}
	if err := e.Compile(); err != nil {
		return fmt.Errorf("invalid trigger pattern: %w", err)
	}
	return nil
}

// NewSnapshot builds a snapshot directly from entries, compiling triggers
// and dropping malformed entries the same way the loader does. Used by
// tests and embedders that do not load manifests from disk.
func NewSnapshot(skills, agents []Entry) *Snapshot {
	snap := &Snapshot{}
	for _, e := range skills {
		e.Kind = KindSkill
		if validateEntry(&e) == nil {
			snap.skills = append(snap.skills, e)
		}
	}
	for _, e := range agents {
		e.Kind = KindAgent
		if validateEntry(&e) == nil {
			snap.agents = append(snap.agents, e)
		}
	}
	return snap
}

// mergeEntries overlays a higher-precedence layer on the accumulated list.
// An overriding entry replaces the base entry in place, keeping the base
// declaration order; new entries append in their own declaration order.
func mergeEntries(base, overlay []Entry) []Entry {
	out := make([]Entry, len(base))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, e := range out {
		index[e.ID] = i
	}
	for _, e := range overlay {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

// DiscoverStubs scans a handler directory and returns minimal stub entries,
// one per executable file, with id taken from the file stem. Used as the
// lowest-precedence layer so curated and user manifests can enrich them.
func DiscoverStubs(dir string, kind Kind) []Entry {
	infos, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []Entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if id == "" {
			continue
		}
		e := Entry{
			ID:         id,
			Kind:       kind,
			Complexity: 2,
			Handler:    name,
		}
		if err := validateEntry(&e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// WriteStubManifest serializes discovered stubs to a manifest file so the
// discovered layer is inspectable and editable like any other.
func WriteStubManifest(path string, skills, agents []Entry) error {
	m := Manifest{Skills: skills, Agents: agents}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
