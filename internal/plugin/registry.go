// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// CodeDescriptorParse marks a descriptor file that could not be read.
const CodeDescriptorParse = "DESCRIPTOR_PARSE_FAILED"

// Registry discovers installed plugins in a plugin directory.
type Registry struct {
	dir string
}

// NewRegistry creates a registry rooted at pluginDir.
func NewRegistry(pluginDir string) *Registry {
	return &Registry{dir: pluginDir}
}

// List returns a descriptor for every subdirectory holding a descriptor file.
//
// A missing plugin directory yields an empty list. Unreadable descriptors are
// logged and skipped so one broken plugin never hides the others. Malformed
// lines lose only their own key. A descriptor without a name key falls back
// to its directory name.
func (r *Registry) List(ctx context.Context) ([]*Descriptor, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oops.With("plugin_dir", r.dir).Wrapf(err, "read plugin directory")
	}

	var found []*Descriptor
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(r.dir, entry.Name())
		path := filepath.Join(pluginDir, DescriptorFile)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		desc, err := readDescriptor(ctx, pluginDir, path)
		if err != nil {
			slog.WarnContext(ctx, "skipping plugin with unreadable descriptor",
				"dir", entry.Name(),
				"error", err)
			continue
		}
		found = append(found, desc)
	}

	return found, nil
}

func readDescriptor(ctx context.Context, pluginDir, path string) (*Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from ReadDir entries
	if err != nil {
		return nil, oops.Code(CodeDescriptorParse).
			With("path", path).
			Wrapf(err, "read %s", DescriptorFile)
	}

	props, malformed := ParseProperties(data)
	if len(malformed) > 0 {
		slog.WarnContext(ctx, "ignoring malformed descriptor lines",
			"path", path,
			"lines", malformed)
	}

	name := props["name"]
	if name == "" {
		name = filepath.Base(pluginDir)
	}

	return &Descriptor{
		Name:       name,
		Version:    props["version"],
		Ensure:     EnsurePresent,
		SourcePath: pluginDir,
		Properties: props,
	}, nil
}

// Lookup returns the installed descriptor called name, or nil.
func (r *Registry) Lookup(ctx context.Context, name string) (*Descriptor, error) {
	descriptors, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range descriptors {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, nil
}

// Prefetch binds discovered descriptors to the records that name them.
//
// Matching is exact equality between the descriptor name and the record's
// short name. Records without a match are left with a nil Current.
func (r *Registry) Prefetch(ctx context.Context, desired []*DesiredState) error {
	descriptors, err := r.List(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]*Descriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}

	for _, rec := range desired {
		rec.Current = nil
		d, ok := byName[rec.ShortName()]
		if !ok {
			continue
		}
		bound := *d
		bound.Vendor = rec.ParsedName().Vendor
		rec.Current = &bound
	}

	return nil
}
