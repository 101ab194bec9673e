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
	"fmt"
	"net"
	"strconv"
	"text/tabwriter"

	"github.com/openziti/xstatic"
	"github.com/spf13/cobra"
)

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [config.yml]",
		Short: "Print the port assignment without binding anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, registry, err := prepare(args)
			if err != nil {
				return err
			}

			assignments, err := xstatic.AssignPorts(config, registry)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ROLE\tPROJECT\tADDRESS")
			for _, assignment := range assignments {
				project := assignment.Project
				if assignment.Role == xstatic.RoleCatchAll {
					project = "*"
				}
				address := net.JoinHostPort(config.IP, strconv.Itoa(int(assignment.Port)))
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", assignment.Role, project, address)
			}
			if config.Metrics != nil {
				_, _ = fmt.Fprintf(w, "%s\t-\t%s\n", xstatic.RoleMetrics, config.Metrics.InterfaceAddress)
			}
			return w.Flush()
		},
	}
}
