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

/*
Package xstatic serves read-only static content for many projects from a single web root, one listener per project.

Basics

Every immediate subdirectory of the web root is a project. At startup the web root is scanned once into a
ProjectRegistry (the default project is kept out of it) and AssignPorts produces a port plan from the configured
port range and CatchAllPolicy. A ListenerSet then creates one Server (and so one http.Server) per PortAssignment.
Listeners are independent: a port that cannot be bound is logged and the remaining listeners keep serving.

Project listeners serve their project's subtree directly. The optional catch-all listener uses a CatchAllRouter that
looks only at the first path segment: a known project name selects that project, anything else is served from the
default project with the full request path.

Every routed request goes through PathResolver before any file is read. The joined path is canonicalized (".."
segments and symlinks) and must remain inside the web root, compared by path component, or the request is answered
with 400. Directory requests get the configured index file appended. Unreadable or missing files are answered
with 404.

Configuration is read from a YAML map by InstanceConfig.Parse and checked by InstanceConfig.Validate. The registry and
configuration are never mutated once listeners are running and are shared by all handlers without locking.
*/
package xstatic
