/*
	Copyright NetFoundry, Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package xstatic

import (
	"os"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// DirectoryScanner lists the names of the immediate subdirectories of a directory.
type DirectoryScanner interface {
	Scan(dir string) ([]string, error)
}

// OsDirectoryScanner is a DirectoryScanner backed by os.ReadDir. Names are returned in directory order (sorted by
// name). Symlinks and regular files are skipped.
type OsDirectoryScanner struct{}

func (OsDirectoryScanner) Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// ProjectRegistry is the immutable set of known projects. It is built once at startup and is safe for concurrent
// reads without locking because nothing mutates it afterwards.
type ProjectRegistry struct {
	projects []string
	index    map[string]struct{}
}

// NewProjectRegistry creates a ProjectRegistry from a list of project names. Duplicates and entries equal to
// defaultProject are dropped, order is preserved.
func NewProjectRegistry(defaultProject string, projects ...string) *ProjectRegistry {
	registry := &ProjectRegistry{
		index: map[string]struct{}{},
	}

	for _, project := range projects {
		if project == defaultProject {
			continue
		}
		if _, ok := registry.index[project]; ok {
			continue
		}
		registry.index[project] = struct{}{}
		registry.projects = append(registry.projects, project)
	}

	return registry
}

// ScanProjectRegistry builds a ProjectRegistry from the immediate subdirectories of webRoot, minus defaultProject.
// A failed scan is returned as an error and no registry is produced.
func ScanProjectRegistry(scanner DirectoryScanner, webRoot, defaultProject string) (*ProjectRegistry, error) {
	names, err := scanner.Scan(webRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to scan web root [%s] for projects", webRoot)
	}

	registry := NewProjectRegistry(defaultProject, names...)
	pfxlog.Logger().Debugf("found %d project(s) in [%s]: %v", registry.Len(), webRoot, registry.projects)

	return registry, nil
}

// Contains returns true if name is a known project. The default project is never contained.
func (registry *ProjectRegistry) Contains(name string) bool {
	_, ok := registry.index[name]
	return ok
}

// All returns a copy of the known project names in registry order.
func (registry *ProjectRegistry) All() []string {
	result := make([]string, len(registry.projects))
	copy(result, registry.projects)
	return result
}

// Len returns the number of known projects.
func (registry *ProjectRegistry) Len() int {
	return len(registry.projects)
}
