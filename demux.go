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
	"strings"
)

// Router selects the project and the project relative path for a request URI path. An empty relative path asks
// for the project's index file. Routers never guarantee safety, their output always goes through PathResolver.
type Router interface {
	Route(uriPath string) (project string, relativePath string)
}

// ProjectRouter sends every request to a single fixed project.
type ProjectRouter struct {
	Project string
}

var _ Router = ProjectRouter{}

func (router ProjectRouter) Route(uriPath string) (string, string) {
	return router.Project, strings.TrimPrefix(uriPath, "/")
}

// CatchAllRouter routes requests that are not bound to a project listener. Only the first path segment is inspected:
// if it names a known project the request goes to that project with the remainder of the path, otherwise the whole
// path is served from the default project.
type CatchAllRouter struct {
	registry       *ProjectRegistry
	defaultProject string
}

var _ Router = (*CatchAllRouter)(nil)

func NewCatchAllRouter(registry *ProjectRegistry, defaultProject string) *CatchAllRouter {
	return &CatchAllRouter{
		registry:       registry,
		defaultProject: defaultProject,
	}
}

// Route implements the catch-all policy:
//
//	/{project}/{rest}  -> (project, rest)
//	/{other}/{rest}    -> (default, other/rest)
//	/{project}         -> (project, "")
//	/{file}            -> (default, file)
//	/                  -> (default, "")
func (router *CatchAllRouter) Route(uriPath string) (string, string) {
	path := strings.TrimPrefix(uriPath, "/")

	if head, tail, found := strings.Cut(path, "/"); found {
		if router.registry.Contains(head) {
			return head, tail
		}
		return router.defaultProject, path
	}

	if path == "" {
		return router.defaultProject, ""
	}

	if router.registry.Contains(path) {
		return path, ""
	}

	return router.defaultProject, path
}
