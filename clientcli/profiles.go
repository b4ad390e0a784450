package clientcli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile names a gateway endpoint. The gateway has no authentication, so
// the endpoint is all a profile carries.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
}

// ProfileSet is the content of the profile file:
//
//	default: prod
//	profiles:
//	  - name: local
//	    endpoint: http://localhost:3030
//	  - name: prod
//	    endpoint: https://img.example.com
type ProfileSet struct {
	Default  string    `yaml:"default,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

func (s *ProfileSet) index(name string) int {
	return slices.IndexFunc(s.Profiles, func(p Profile) bool { return p.Name == name })
}

// DefaultName returns the profile used when none is requested: the
// recorded default while it exists, else the first profile, else "".
func (s *ProfileSet) DefaultName() string {
	if s.Default != "" && s.index(s.Default) >= 0 {
		return s.Default
	}
	if len(s.Profiles) > 0 {
		return s.Profiles[0].Name
	}
	return ""
}

// Resolve returns the named profile, or the default one for an empty name.
func (s *ProfileSet) Resolve(name string) (Profile, error) {
	if len(s.Profiles) == 0 {
		return Profile{}, ErrNoProfiles
	}
	if name == "" {
		name = s.DefaultName()
	}

	i := s.index(name)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return s.Profiles[i], nil
}

// Put stores p, replacing any profile of the same name, and reports
// whether it was new. The endpoint must be an absolute http(s) URL and is
// stored in normalized form.
func (s *ProfileSet) Put(p Profile) (bool, error) {
	if p.Name == "" || strings.ContainsFunc(p.Name, isProfileNameSpace) {
		return false, fmt.Errorf("%w: %q", ErrInvalidProfileName, p.Name)
	}

	endpoint, err := NormalizeEndpoint(p.Endpoint)
	if err != nil {
		return false, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	p.Endpoint = endpoint

	if i := s.index(p.Name); i >= 0 {
		s.Profiles[i] = p
		return false, nil
	}
	s.Profiles = append(s.Profiles, p)
	return true, nil
}

// Remove deletes a profile. Removing the default clears it, so the first
// remaining profile takes over.
func (s *ProfileSet) Remove(name string) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	s.Profiles = slices.Delete(s.Profiles, i, i+1)
	if s.Default == name {
		s.Default = ""
	}
	return nil
}

func (s *ProfileSet) SetDefault(name string) error {
	if s.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.Default = name
	return nil
}

// Save writes the set to path with owner-only permissions. The file is
// replaced by rename, so an interrupted write leaves the old one intact.
func (s *ProfileSet) Save(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp profile file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// LoadProfiles reads a profile file. Unknown keys and repeated names are
// errors; an empty file is an empty set.
func LoadProfiles(path string) (*ProfileSet, error) {
	f, err := os.Open(filepath.Clean(path)) //#nosec G304 -- user-selected profile file
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer func() { _ = f.Close() }()

	var set ProfileSet
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, p := range set.Profiles {
		if set.index(p.Name) != i {
			return nil, fmt.Errorf("parse %s: %w: %s", path, ErrDuplicateProfile, p.Name)
		}
	}

	return &set, nil
}

// DefaultProfilesPath returns ~/.imgtransfer/config.yaml, or "" when the
// home directory is unknown.
func DefaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".imgtransfer", "config.yaml")
}

func isProfileNameSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '/'
}
