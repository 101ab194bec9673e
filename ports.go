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
	"fmt"
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// PortRange is an inclusive range of ports that project listeners are assigned from.
type PortRange struct {
	Start uint16
	End   uint16
}

// Parse parses a config map with the keys start and end.
func (portRange *PortRange) Parse(config map[interface{}]interface{}) error {
	if val, ok := config["start"]; ok {
		port, err := parsePort(val)
		if err != nil {
			return fmt.Errorf("invalid start: %v", err)
		}
		portRange.Start = port
	} else {
		return errors.New("start is required")
	}

	if val, ok := config["end"]; ok {
		port, err := parsePort(val)
		if err != nil {
			return fmt.Errorf("invalid end: %v", err)
		}
		portRange.End = port
	} else {
		return errors.New("end is required")
	}

	return nil
}

// Validate returns an error if the range is empty or starts at zero.
func (portRange *PortRange) Validate() error {
	if portRange.Start == 0 {
		return errors.New("start must be at least 1")
	}

	if portRange.Start > portRange.End {
		return errors.Errorf("start [%d] must be less than or equal to end [%d]", portRange.Start, portRange.End)
	}

	return nil
}

func (portRange PortRange) String() string {
	return fmt.Sprintf("%d-%d", portRange.Start, portRange.End)
}

type CatchAllType string

const (
	CatchAllSet   CatchAllType = "Set"
	CatchAllFirst CatchAllType = "First"
	CatchAllLast  CatchAllType = "Last"
	CatchAllNone  CatchAllType = "None"
)

// CatchAllPolicy decides whether a catch-all listener exists and which port it receives. Port is only meaningful
// for CatchAllSet.
type CatchAllPolicy struct {
	Type CatchAllType
	Port uint16
}

// Parse parses a config map of the form {type: Set|First|Last|None, value: <port>}. The value key is required for
// Set and ignored otherwise.
func (policy *CatchAllPolicy) Parse(config map[interface{}]interface{}) error {
	typeVal, ok := config["type"]
	if !ok {
		return errors.New("type is required")
	}

	typeStr, ok := typeVal.(string)
	if !ok {
		return errors.New("type must be a string")
	}

	switch CatchAllType(typeStr) {
	case CatchAllSet:
		val, ok := config["value"]
		if !ok {
			return errors.New("value is required when type is Set")
		}
		port, err := parsePort(val)
		if err != nil {
			return fmt.Errorf("invalid value: %v", err)
		}
		policy.Type = CatchAllSet
		policy.Port = port
	case CatchAllFirst, CatchAllLast, CatchAllNone:
		policy.Type = CatchAllType(typeStr)
		policy.Port = 0
	default:
		return errors.Errorf("unknown type [%s], must be one of Set, First, Last, None", typeStr)
	}

	return nil
}

// Validate returns an error for an unknown type or a Set policy without a port.
func (policy *CatchAllPolicy) Validate() error {
	switch policy.Type {
	case CatchAllSet:
		if policy.Port == 0 {
			return errors.New("Set requires a port in 1-65535")
		}
	case CatchAllFirst, CatchAllLast, CatchAllNone:
	default:
		return errors.Errorf("unknown type [%s]", policy.Type)
	}
	return nil
}

func (policy CatchAllPolicy) String() string {
	if policy.Type == CatchAllSet {
		return fmt.Sprintf("Set(%d)", policy.Port)
	}
	return string(policy.Type)
}

// ListenerRole identifies what a listener serves.
type ListenerRole string

const (
	RoleProject  ListenerRole = "project"
	RoleCatchAll ListenerRole = "catch-all"
	RoleMetrics  ListenerRole = "metrics"
)

// PortAssignment binds one listener role (and, for RoleProject, one project) to a port.
type PortAssignment struct {
	Role    ListenerRole
	Project string
	Port    uint16
}

// Name is the label used for logs and metrics: the project name for project listeners, the role otherwise.
func (assignment PortAssignment) Name() string {
	if assignment.Role == RoleProject {
		return assignment.Project
	}
	return string(assignment.Role)
}

func (assignment PortAssignment) String() string {
	return fmt.Sprintf("%s:%d", assignment.Name(), assignment.Port)
}

// AssignPorts computes the port plan. A cursor starts at the lower bound of the range. The catch-all policy is
// applied first (First takes the cursor and advances it, Last takes the upper bound, Set takes its own port). The
// default project then takes the cursor, and every registered project takes the next sequential port in registry
// order. A plan that runs past the upper bound of the range is an error. Ports that collide are only warned about,
// the later bind of one of the listeners fails on its own.
func AssignPorts(config *InstanceConfig, registry *ProjectRegistry) ([]PortAssignment, error) {
	var assignments []PortAssignment
	cursor := int(config.PortRange.Start)
	upper := int(config.PortRange.End)

	switch config.CatchAll.Type {
	case CatchAllSet:
		assignments = append(assignments, PortAssignment{Role: RoleCatchAll, Port: config.CatchAll.Port})
	case CatchAllFirst:
		assignments = append(assignments, PortAssignment{Role: RoleCatchAll, Port: uint16(cursor)})
		cursor++
	case CatchAllLast:
		assignments = append(assignments, PortAssignment{Role: RoleCatchAll, Port: config.PortRange.End})
	case CatchAllNone:
	default:
		return nil, errors.Errorf("unknown catch-all type [%s]", config.CatchAll.Type)
	}

	projects := append([]string{config.DefaultProject}, registry.All()...)
	for _, project := range projects {
		if cursor > upper {
			return nil, errors.Errorf("port range %s exhausted, no port left for project [%s]", config.PortRange, project)
		}
		assignments = append(assignments, PortAssignment{Role: RoleProject, Project: project, Port: uint16(cursor)})
		cursor++
	}

	warnOnCollisions(assignments)

	return assignments, nil
}

func warnOnCollisions(assignments []PortAssignment) {
	byPort := map[uint16][]string{}
	for _, assignment := range assignments {
		byPort[assignment.Port] = append(byPort[assignment.Port], assignment.Name())
	}

	for _, assignment := range assignments {
		if names := byPort[assignment.Port]; len(names) > 1 {
			pfxlog.Logger().Warnf("port %d is assigned to more than one listener [%s], only one of them will bind", assignment.Port, strings.Join(names, ", "))
			delete(byPort, assignment.Port)
		}
	}
}
