package enum

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of an enumeration overlay:
//
//	enumerations:
//	  amenity: [rooftop, bike_storage]
//	  lease_term: [monthly, semester, yearly]
//
// Sets that already exist are extended; new names are registered.
type File struct {
	Enumerations map[string][]string `yaml:"enumerations"`
}

// Load applies a YAML overlay to the registry
func (r *Registry) Load(rd io.Reader) error {
	var f File
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode enumerations: %w", err)
	}

	// Apply in a stable order so errors are reproducible.
	names := make([]string, 0, len(f.Enumerations))
	for name := range f.Enumerations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tokens := f.Enumerations[name]
		var err error
		if r.Has(name) {
			err = r.Extend(name, tokens...)
		} else {
			err = r.Register(name, tokens...)
		}
		if err != nil {
			return fmt.Errorf("enumeration %q: %w", name, err)
		}
	}
	return nil
}

// LoadFile applies the YAML overlay at path
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open enumerations file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return r.Load(f)
}
