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
	"context"
	"sync"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

const DefaultShutdownTimeout = time.Second * 15

// ListenerSet owns every listener of the process: one per project, one for the default project, an optional
// catch-all and an optional metrics listener. Each listener runs independently; a listener that fails to bind is
// logged and does not affect the others.
type ListenerSet struct {
	Config   *InstanceConfig
	Registry *ProjectRegistry
	Resolver *PathResolver
	Reader   FileReader
	Metrics  *Metrics

	lock     sync.Mutex
	servers  []*Server
	shutdown bool
}

// NewListenerSet creates a ListenerSet for a validated config and the registry scanned from its web root.
func NewListenerSet(config *InstanceConfig, registry *ProjectRegistry) (*ListenerSet, error) {
	resolver, err := NewPathResolver(config.WebRoot, config.IndexFile)
	if err != nil {
		return nil, err
	}

	return &ListenerSet{
		Config:   config,
		Registry: registry,
		Resolver: resolver,
		Reader:   OsFileReader{},
		Metrics:  NewMetrics(),
	}, nil
}

// Build computes the port plan and creates a Server per assignment. Nothing is bound yet.
func (set *ListenerSet) Build() error {
	assignments, err := AssignPorts(set.Config, set.Registry)
	if err != nil {
		return err
	}

	var servers []*Server
	for _, assignment := range assignments {
		var router Router
		if assignment.Role == RoleCatchAll {
			router = NewCatchAllRouter(set.Registry, set.Config.DefaultProject)
		} else {
			router = ProjectRouter{Project: assignment.Project}
		}

		handler := set.Metrics.Wrap(assignment.Name(), NewFileHandler(router, set.Resolver, set.Reader))
		bindPoint := NewBindPointConfig(set.Config.IP, assignment.Port)
		servers = append(servers, NewServer(set.Config, assignment, bindPoint, handler))
	}

	if set.Config.Metrics != nil {
		assignment := PortAssignment{Role: RoleMetrics, Port: set.Config.Metrics.Port()}
		servers = append(servers, NewServer(set.Config, assignment, set.Config.Metrics, set.Metrics.Handler()))
	}

	set.lock.Lock()
	defer set.lock.Unlock()
	set.servers = servers

	return nil
}

// Start binds every built Server and starts its accept loop on its own goroutine. Bind failures are logged and
// recorded on the failing Server only. One handle per built Server is returned, in port plan order.
func (set *ListenerSet) Start() []*Server {
	set.lock.Lock()
	defer set.lock.Unlock()

	logger := pfxlog.Logger()

	for _, server := range set.servers {
		if set.shutdown {
			server.finish(errors.New("listener set is shutting down"))
			continue
		}

		if err := server.Listen(); err != nil {
			logger.WithError(err).Errorf("unable to start %s listener [%s]", server.Assignment.Role, server.Assignment.Name())
			continue
		}

		logger.Infof("%s listener [%s] serving on %s", server.Assignment.Role, server.Assignment.Name(), server.ListenAddr())

		s := server //avoid closure scoping issues
		go func() {
			if err := s.Serve(); err != nil {
				pfxlog.Logger().WithError(err).Errorf("%s listener [%s] stopped", s.Assignment.Role, s.Assignment.Name())
			}
		}()
	}

	result := make([]*Server, len(set.servers))
	copy(result, set.servers)
	return result
}

// Servers returns the built Servers.
func (set *ListenerSet) Servers() []*Server {
	set.lock.Lock()
	defer set.lock.Unlock()

	result := make([]*Server, len(set.servers))
	copy(result, set.servers)
	return result
}

// Wait blocks until every listener has stopped or failed to bind.
func (set *ListenerSet) Wait() {
	for _, server := range set.Servers() {
		<-server.Done()
	}
}

// Run builds and starts all listeners and blocks until they have all stopped. An error is returned when the set could
// not be built or when no listener could be bound at all.
func (set *ListenerSet) Run() error {
	if err := set.Build(); err != nil {
		return err
	}

	servers := set.Start()

	listening := 0
	for _, server := range servers {
		if server.ListenAddr() != nil {
			listening++
		}
	}

	if listening == 0 {
		return errors.Errorf("none of the %d listener(s) could be started", len(servers))
	}

	set.Wait()
	return nil
}

// Shutdown stops all running listeners and waits for them to finish, bounded by ctx.
func (set *ListenerSet) Shutdown(ctx context.Context) {
	set.lock.Lock()
	set.shutdown = true
	servers := make([]*Server, len(set.servers))
	copy(servers, set.servers)
	set.lock.Unlock()

	wg := sync.WaitGroup{}
	for _, server := range servers {
		localServer := server
		wg.Add(1)
		go func() {
			defer wg.Done()
			localServer.Shutdown(ctx)
		}()
	}
	wg.Wait()
}

// Execute runs the ListenerSet, it is the execute function of an oklog/run actor.
func (set *ListenerSet) Execute() error {
	return set.Run()
}

// Interrupt shuts the ListenerSet down, it is the interrupt function of an oklog/run actor.
func (set *ListenerSet) Interrupt(err error) {
	pfxlog.Logger().WithError(err).Info("stopping listeners")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	set.Shutdown(ctx)
}
