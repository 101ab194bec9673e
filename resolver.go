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
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrTraversal is returned by PathResolver.Resolve when a request would resolve to a location outside of the web root.
var ErrTraversal = errors.New("path resolves outside of the web root")

// PathResolver maps a project and a request relative path to an absolute file system path inside the web root.
type PathResolver struct {
	webRoot   string
	indexFile string
}

// NewPathResolver creates a PathResolver. The web root is made absolute and its symlinks are evaluated once so that
// containment checks compare canonical paths on both sides.
func NewPathResolver(webRoot, indexFile string) (*PathResolver, error) {
	root, err := filepath.Abs(webRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to make web root [%s] absolute", webRoot)
	}

	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve web root [%s]", webRoot)
	}

	return &PathResolver{
		webRoot:   root,
		indexFile: indexFile,
	}, nil
}

// WebRoot returns the canonical web root.
func (resolver *PathResolver) WebRoot() string {
	return resolver.webRoot
}

// Resolve joins the web root, project and relativePath, canonicalizes the result and verifies that it is still a
// descendant of the web root. An empty (or "/") relativePath, or a path that canonicalizes to a directory, has the
// index file appended and is checked again. ErrTraversal is returned for anything that escapes the web root. Any other
// error means the path could not be canonicalized and should be treated as not found.
//
// ".." segments are removed lexically before symlinks are evaluated.
func (resolver *PathResolver) Resolve(project, relativePath string) (string, error) {
	candidate := filepath.Join(resolver.webRoot, project, filepath.FromSlash(relativePath))

	resolved, err := resolver.canonicalWithin(candidate)
	if err != nil {
		return "", err
	}

	if strings.Trim(relativePath, "/") == "" || isDir(resolved) {
		return resolver.canonicalWithin(filepath.Join(resolved, resolver.indexFile))
	}

	return resolved, nil
}

func (resolver *PathResolver) canonicalWithin(path string) (string, error) {
	resolved, err := canonicalize(path)
	if err != nil {
		return "", err
	}

	if !isWithin(resolver.webRoot, resolved) {
		return "", ErrTraversal
	}

	return resolved, nil
}

// isWithin compares by path component so that /var/www-evil is not treated as being inside /var/www.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	return true
}

// canonicalize evaluates symlinks for the longest existing prefix of path and appends the missing tail literally.
// path must already be absolute and clean. An entry that exists but cannot be evaluated (e.g. a dangling symlink)
// is an error.
func canonicalize(path string) (string, error) {
	var tail []string
	current := path

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}

		if _, statErr := os.Lstat(current); statErr == nil {
			return "", errors.Wrapf(err, "unable to resolve [%s]", current)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.Wrapf(err, "unable to resolve [%s]", path)
		}

		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
