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

package main

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/michaelquigley/pfxlog"
	"github.com/oklog/run"
	"github.com/openziti/xstatic"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [config.yml]",
		Short: "Start all listeners and serve until interrupted",
		Long: `Start one listener per project (plus the default project and, depending on the catchAll policy, a
catch-all listener) and serve until SIGINT or SIGTERM. Without a config file the defaults are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, registry, err := prepare(args)
			if err != nil {
				return err
			}

			pfxlog.Logger().Infof("starting xstatic on %s watching directories in %s with %s acting as the default",
				config.IP, config.WebRoot, config.DefaultProject)

			listeners, err := xstatic.NewListenerSet(config, registry)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var g run.Group
			g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
			g.Add(listeners.Execute, listeners.Interrupt)

			err = g.Run()

			var signalErr run.SignalError
			if errors.As(err, &signalErr) {
				pfxlog.Logger().Infof("received %v, shut down complete", signalErr.Signal)
				return nil
			}
			return err
		},
	}
}

// prepare loads and validates the configuration and scans the web root. Any error here is fatal: nothing has been
// bound yet.
func prepare(args []string) (*xstatic.InstanceConfig, *xstatic.ProjectRegistry, error) {
	config := xstatic.NewInstanceConfig()
	if len(args) == 1 {
		var err error
		if config, err = xstatic.LoadConfigFile(args[0]); err != nil {
			return nil, nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	registry, err := xstatic.ScanProjectRegistry(xstatic.OsDirectoryScanner{}, config.WebRoot, config.DefaultProject)
	if err != nil {
		return nil, nil, err
	}

	return config, registry, nil
}
