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
	"testing"

	"github.com/stretchr/testify/require"
)

func planConfig(policy CatchAllPolicy) *InstanceConfig {
	config := NewInstanceConfig()
	config.PortRange = PortRange{Start: 42069, End: 42100}
	config.CatchAll = policy
	config.DefaultProject = "html"
	return config
}

func Test_AssignPorts(t *testing.T) {
	registry := NewProjectRegistry("html", "a", "b")

	t.Run("First gives the catch-all the lower bound and shifts every project by one", func(t *testing.T) {
		req := require.New(t)
		assignments, err := AssignPorts(planConfig(CatchAllPolicy{Type: CatchAllFirst}), registry)
		req.NoError(err)
		req.Equal([]PortAssignment{
			{Role: RoleCatchAll, Port: 42069},
			{Role: RoleProject, Project: "html", Port: 42070},
			{Role: RoleProject, Project: "a", Port: 42071},
			{Role: RoleProject, Project: "b", Port: 42072},
		}, assignments)
	})

	t.Run("Last gives the catch-all the upper bound and leaves the cursor alone", func(t *testing.T) {
		req := require.New(t)
		assignments, err := AssignPorts(planConfig(CatchAllPolicy{Type: CatchAllLast}), registry)
		req.NoError(err)
		req.Equal([]PortAssignment{
			{Role: RoleCatchAll, Port: 42100},
			{Role: RoleProject, Project: "html", Port: 42069},
			{Role: RoleProject, Project: "a", Port: 42070},
			{Role: RoleProject, Project: "b", Port: 42071},
		}, assignments)
	})

	t.Run("Set gives the catch-all its own port even outside the range", func(t *testing.T) {
		req := require.New(t)
		assignments, err := AssignPorts(planConfig(CatchAllPolicy{Type: CatchAllSet, Port: 8080}), registry)
		req.NoError(err)
		req.Equal([]PortAssignment{
			{Role: RoleCatchAll, Port: 8080},
			{Role: RoleProject, Project: "html", Port: 42069},
			{Role: RoleProject, Project: "a", Port: 42070},
			{Role: RoleProject, Project: "b", Port: 42071},
		}, assignments)
	})

	t.Run("None creates no catch-all", func(t *testing.T) {
		req := require.New(t)
		assignments, err := AssignPorts(planConfig(CatchAllPolicy{Type: CatchAllNone}), registry)
		req.NoError(err)
		req.Equal([]PortAssignment{
			{Role: RoleProject, Project: "html", Port: 42069},
			{Role: RoleProject, Project: "a", Port: 42070},
			{Role: RoleProject, Project: "b", Port: 42071},
		}, assignments)
	})

	t.Run("ports are unique for First and None", func(t *testing.T) {
		for _, policy := range []CatchAllPolicy{{Type: CatchAllFirst}, {Type: CatchAllNone}} {
			assignments, err := AssignPorts(planConfig(policy), NewProjectRegistry("html", "a", "b", "c", "d"))
			require.NoError(t, err)

			seen := map[uint16]bool{}
			for _, assignment := range assignments {
				require.False(t, seen[assignment.Port], "port %d assigned twice", assignment.Port)
				seen[assignment.Port] = true
			}
		}
	})

	t.Run("a plan that does not fit the range is an error", func(t *testing.T) {
		req := require.New(t)
		config := planConfig(CatchAllPolicy{Type: CatchAllFirst})
		config.PortRange = PortRange{Start: 42069, End: 42071}

		assignments, err := AssignPorts(config, registry)
		req.Error(err)
		req.Contains(err.Error(), "exhausted")
		req.Nil(assignments)
	})

	t.Run("a plan that exactly fills the range is accepted", func(t *testing.T) {
		req := require.New(t)
		config := planConfig(CatchAllPolicy{Type: CatchAllFirst})
		config.PortRange = PortRange{Start: 42069, End: 42072}

		assignments, err := AssignPorts(config, registry)
		req.NoError(err)
		req.Len(assignments, 4)
		req.Equal(uint16(42072), assignments[3].Port)
	})

	t.Run("the top of the port space does not overflow", func(t *testing.T) {
		req := require.New(t)
		config := planConfig(CatchAllPolicy{Type: CatchAllNone})
		config.PortRange = PortRange{Start: 65535, End: 65535}

		_, err := AssignPorts(config, registry)
		req.Error(err)
	})
}

func Test_CatchAllPolicy_Parse(t *testing.T) {
	t.Run("Set requires a value", func(t *testing.T) {
		req := require.New(t)
		policy := CatchAllPolicy{}
		req.Error(policy.Parse(map[interface{}]interface{}{"type": "Set"}))
		req.NoError(policy.Parse(map[interface{}]interface{}{"type": "Set", "value": 8080}))
		req.Equal(CatchAllPolicy{Type: CatchAllSet, Port: 8080}, policy)
		req.Equal("Set(8080)", policy.String())
	})

	t.Run("First, Last and None ignore the value", func(t *testing.T) {
		for _, typ := range []CatchAllType{CatchAllFirst, CatchAllLast, CatchAllNone} {
			policy := CatchAllPolicy{}
			require.NoError(t, policy.Parse(map[interface{}]interface{}{"type": string(typ), "value": 1}))
			require.Equal(t, CatchAllPolicy{Type: typ}, policy)
			require.NoError(t, policy.Validate())
		}
	})

	t.Run("unknown types and bad ports are rejected", func(t *testing.T) {
		req := require.New(t)
		policy := CatchAllPolicy{}
		req.Error(policy.Parse(map[interface{}]interface{}{"type": "first"}))
		req.Error(policy.Parse(map[interface{}]interface{}{"type": 1}))
		req.Error(policy.Parse(map[interface{}]interface{}{}))
		req.Error(policy.Parse(map[interface{}]interface{}{"type": "Set", "value": 70000}))
		req.Error(policy.Parse(map[interface{}]interface{}{"type": "Set", "value": "8080"}))
	})
}

func Test_PortRange(t *testing.T) {
	t.Run("parse and validate", func(t *testing.T) {
		req := require.New(t)
		portRange := PortRange{}
		req.NoError(portRange.Parse(map[interface{}]interface{}{"start": 8000, "end": 8010}))
		req.Equal(PortRange{Start: 8000, End: 8010}, portRange)
		req.NoError(portRange.Validate())
		req.Equal("8000-8010", portRange.String())
	})

	t.Run("an inverted range is invalid", func(t *testing.T) {
		req := require.New(t)
		portRange := PortRange{Start: 8010, End: 8000}
		req.Error(portRange.Validate())
	})

	t.Run("a single port range is valid", func(t *testing.T) {
		req := require.New(t)
		portRange := PortRange{Start: 8000, End: 8000}
		req.NoError(portRange.Validate())
	})

	t.Run("missing bounds are rejected", func(t *testing.T) {
		req := require.New(t)
		portRange := PortRange{}
		req.Error(portRange.Parse(map[interface{}]interface{}{"start": 8000}))
		req.Error(portRange.Parse(map[interface{}]interface{}{"end": 8000}))
		req.Error(portRange.Parse(map[interface{}]interface{}{"start": 0, "end": 8000}))
	})
}
