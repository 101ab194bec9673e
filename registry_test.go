/*
Copyright NetFoundry Inc.

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
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockScanner struct {
	names []string
	err   error
}

func (m *mockScanner) Scan(string) ([]string, error) {
	return m.names, m.err
}

func Test_ScanProjectRegistry(t *testing.T) {
	t.Run("only directories are kept and the default project is dropped", func(t *testing.T) {
		req := require.New(t)
		webRoot := newTestWebRoot(t)

		registry, err := ScanProjectRegistry(OsDirectoryScanner{}, webRoot, "html")
		req.NoError(err)
		req.Equal([]string{"blog", "shop"}, registry.All())
		req.True(registry.Contains("blog"))
		req.True(registry.Contains("shop"))
		req.False(registry.Contains("html"))
		req.False(registry.Contains("notes.txt"))
		req.Equal(2, registry.Len())
	})

	t.Run("a missing web root is an error and no registry is returned", func(t *testing.T) {
		req := require.New(t)
		registry, err := ScanProjectRegistry(OsDirectoryScanner{}, filepath.Join(t.TempDir(), "missing"), "html")
		req.Error(err)
		req.Nil(registry)
	})

	t.Run("scanner errors are returned", func(t *testing.T) {
		req := require.New(t)
		registry, err := ScanProjectRegistry(&mockScanner{err: errors.New("boom")}, "/www", "html")
		req.Error(err)
		req.Contains(err.Error(), "boom")
		req.Nil(registry)
	})

	t.Run("scanner order is preserved", func(t *testing.T) {
		req := require.New(t)
		registry, err := ScanProjectRegistry(&mockScanner{names: []string{"zeta", "html", "alpha"}}, "/www", "html")
		req.NoError(err)
		req.Equal([]string{"zeta", "alpha"}, registry.All())
	})
}

func Test_ProjectRegistry(t *testing.T) {
	t.Run("duplicates are dropped", func(t *testing.T) {
		req := require.New(t)
		registry := NewProjectRegistry("html", "a", "b", "a")
		req.Equal([]string{"a", "b"}, registry.All())
	})

	t.Run("All returns a copy", func(t *testing.T) {
		req := require.New(t)
		registry := NewProjectRegistry("html", "a", "b")
		all := registry.All()
		all[0] = "changed"
		req.Equal([]string{"a", "b"}, registry.All())
		req.False(registry.Contains("changed"))
	})

	t.Run("an empty registry contains nothing", func(t *testing.T) {
		req := require.New(t)
		registry := NewProjectRegistry("html")
		req.Equal(0, registry.Len())
		req.Empty(registry.All())
		req.False(registry.Contains(""))
	})
}
