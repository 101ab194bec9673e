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
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/debugz"
	"github.com/openziti/xstatic/middleware"
)

// Server is a single listener: one http.Server bound to one address for one PortAssignment. It doubles as the handle
// returned by ListenerSet.Start.
type Server struct {
	*http.Server
	Assignment     PortAssignment
	BindPoint      *BindPointConfig
	Config         *InstanceConfig
	OnHandlerPanic func(writer http.ResponseWriter, request *http.Request, panicVal interface{})

	logWriter *io.PipeWriter
	listener  net.Listener
	err       error
	done      chan struct{}
}

// NewServer creates a Server that will listen on bindPoint and serve handler, wrapped with panic recovery and
// (when enabled in config) response compression.
func NewServer(config *InstanceConfig, assignment PortAssignment, bindPoint *BindPointConfig, handler http.Handler) *Server {
	logWriter := pfxlog.Logger().Writer()

	server := &Server{
		Assignment: assignment,
		BindPoint:  bindPoint,
		Config:     config,
		logWriter:  logWriter,
		done:       make(chan struct{}),
	}

	server.Server = &http.Server{
		Addr:         bindPoint.InterfaceAddress,
		WriteTimeout: config.Options.WriteTimeout,
		ReadTimeout:  config.Options.ReadTimeout,
		IdleTimeout:  config.Options.IdleTimeout,
		Handler:      server.wrapHandler(handler),
		ErrorLog:     log.New(logWriter, "", 0),
		BaseContext:  server.NewBaseContext,
	}

	return server
}

// NewBaseContext places a ServerContext for this listener on every request context.
func (server *Server) NewBaseContext(_ net.Listener) context.Context {
	serverContext := &ServerContext{
		Assignment: server.Assignment,
		BindPoint:  server.BindPoint,
		Config:     server.Config,
	}

	return context.WithValue(context.Background(), ServerContextKey, serverContext)
}

func (server *Server) wrapHandler(handler http.Handler) http.Handler {
	//innermost/bottom -> outermost/top
	handler = server.wrapPanicRecovery(handler)
	if server.Config.Compression {
		handler = middleware.NewCompressionHandler(handler)
	}
	return handler
}

// wrapPanicRecovery wraps a http.Handler with another http.Handler that provides recovery.
func (server *Server) wrapPanicRecovery(handler http.Handler) http.Handler {
	wrappedHandler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			if panicVal := recover(); panicVal != nil {
				if server.OnHandlerPanic != nil {
					server.OnHandlerPanic(writer, request, panicVal)
					return
				}
				pfxlog.Logger().Errorf("panic caught by server handler for %s: %v\n%v", server.Assignment, panicVal, debugz.GenerateLocalStack())
				http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		handler.ServeHTTP(writer, request)
	})

	return wrappedHandler
}

// Listen binds the listener. On failure the Server is finished: Done is closed and Err returns the bind error.
func (server *Server) Listen() error {
	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		server.finish(fmt.Errorf("error listening on %s: %w", server.Addr, err))
		return server.err
	}

	server.listener = listener
	return nil
}

// Serve runs the accept loop until the server is shut down. Listen must have succeeded first.
func (server *Server) Serve() error {
	if server.listener == nil {
		return errors.New("server is not listening")
	}

	err := server.Server.Serve(server.listener)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	} else if err != nil {
		err = fmt.Errorf("error serving on %s: %w", server.Addr, err)
	}

	server.finish(err)
	return err
}

// Start binds and serves, blocking until the server stops.
func (server *Server) Start() error {
	if err := server.Listen(); err != nil {
		return err
	}
	return server.Serve()
}

func (server *Server) finish(err error) {
	server.err = err
	_ = server.logWriter.Close()
	close(server.done)
}

// Shutdown gracefully stops the server. It is a no-op for a Server that never bound.
func (server *Server) Shutdown(ctx context.Context) {
	if server.listener == nil {
		return
	}
	_ = server.Server.Shutdown(ctx)
}

// ListenAddr returns the bound address or nil if the server is not listening.
func (server *Server) ListenAddr() net.Addr {
	if server.listener == nil {
		return nil
	}
	return server.listener.Addr()
}

// Done is closed once the server has stopped serving or failed to bind.
func (server *Server) Done() <-chan struct{} {
	return server.done
}

// Err returns the error the server stopped with. It is only meaningful after Done is closed.
func (server *Server) Err() error {
	return server.err
}
