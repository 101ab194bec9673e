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

import "context"

type ContextKey string

const (
	ServerContextKey = ContextKey("xstatic.Server.ContextKey")
)

// ServerContext is placed on the base context of every listener so handlers can see which listener accepted a
// request and the configuration it was built from.
type ServerContext struct {
	Assignment PortAssignment
	BindPoint  *BindPointConfig
	Config     *InstanceConfig
}

// ServerContextFromRequestContext is a utility function to retrieve a *ServerContext reference from the http.Request
// context.
func ServerContextFromRequestContext(ctx context.Context) *ServerContext {
	if val := ctx.Value(ServerContextKey); val != nil {
		if serverContext, ok := val.(*ServerContext); ok {
			return serverContext
		}
	}
	return nil
}
