package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Set is a collection of profiles with a default, built from the built-in
// profiles and optionally a YAML file.
type Set struct {
	Default  string
	profiles map[string]Profile
}

// file is the on-disk YAML layout:
//
//	default_profile: small
//	profiles:
//	  small:
//	    base: robust
//	    tolerance_ratio: 0.01
//
// An entry starts from its base (or the built-in profile of the same name,
// or default) and overrides only the keys it sets.
type file struct {
	DefaultProfile string               `yaml:"default_profile"`
	Profiles       map[string]yaml.Node `yaml:"profiles"`
}

// Builtin returns a Set holding only the built-in profiles.
func Builtin() *Set {
	s := &Set{Default: DefaultName, profiles: make(map[string]Profile, len(profiles))}
	for name, p := range profiles {
		s.profiles[name] = p
	}
	return s
}

// Load reads a YAML profiles file layered over the built-in profiles.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML profile definitions layered over the built-in profiles.
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	s := Builtin()
	// Resolve in name order so errors are deterministic.
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := f.Profiles[name]
		var hdr struct {
			Base string `yaml:"base"`
		}
		if err := node.Decode(&hdr); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}

		base := name
		if hdr.Base != "" {
			base = hdr.Base
		}
		p, ok := profiles[base]
		if !ok {
			if hdr.Base != "" {
				return nil, fmt.Errorf("profile %q: unknown base %q", name, hdr.Base)
			}
			p = profiles[DefaultName]
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		s.profiles[name] = p
	}

	if f.DefaultProfile != "" {
		if _, ok := s.profiles[f.DefaultProfile]; !ok {
			return nil, fmt.Errorf("default_profile %q is not defined", f.DefaultProfile)
		}
		s.Default = f.DefaultProfile
	}
	return s, nil
}

// Get returns the named profile, the set's default for "", and falls back
// to the default profile (keeping the requested name) when unknown.
func (s *Set) Get(name string) Profile {
	if name == "" {
		name = s.Default
	}
	if p, ok := s.profiles[name]; ok {
		return p
	}
	p := s.profiles[s.Default]
	p.Name = name
	return p
}

// Has reports whether name is defined in the set.
func (s *Set) Has(name string) bool {
	_, ok := s.profiles[name]
	return ok
}

// Names lists the profiles in the set, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for n := range s.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
