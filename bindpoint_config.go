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
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BindPointConfig represents the interface:port address of where a http.Server should listen.
type BindPointConfig struct {
	InterfaceAddress string //<interface>:<port>
}

// NewBindPointConfig creates a BindPointConfig for an ip and port pair.
func NewBindPointConfig(ip string, port uint16) *BindPointConfig {
	return &BindPointConfig{
		InterfaceAddress: net.JoinHostPort(ip, strconv.Itoa(int(port))),
	}
}

// Parse the configuration map for a BindPointConfig.
func (bindPoint *BindPointConfig) Parse(config map[interface{}]interface{}) error {
	if interfaceVal, ok := config["interface"]; ok {
		if address, ok := interfaceVal.(string); ok {
			bindPoint.InterfaceAddress = address
		} else {
			return errors.New("could not use value for interface, not a string")
		}
	} else {
		return errors.New("interface is required")
	}

	return nil
}

// Validate this configuration object.
func (bindPoint *BindPointConfig) Validate() error {
	if err := validateHostPort(bindPoint.InterfaceAddress); err != nil {
		return errors.Errorf("invalid interface address [%s]: %v", bindPoint.InterfaceAddress, err)
	}

	return nil
}

func validateHostPort(address string) error {
	address = strings.TrimSpace(address)

	if address == "" {
		return errors.New("must not be an empty string or unspecified")
	}

	host, port, err := net.SplitHostPort(address)

	if err != nil {
		return errors.Errorf("could not split host and port: %v", err)
	}

	if host == "" {
		return errors.New("host must be specified")
	}

	if port == "" {
		return errors.New("port must be specified")
	}

	if port, err := strconv.ParseInt(port, 10, 32); err != nil {
		return errors.New("invalid port, must be a integer")
	} else if port < 1 || port > 65535 {
		return errors.New("invalid port, must 1-65535")
	}

	return nil
}

// Port returns the port of the interface address or 0 if it cannot be parsed.
func (bindPoint *BindPointConfig) Port() uint16 {
	_, portStr, err := net.SplitHostPort(bindPoint.InterfaceAddress)
	if err != nil {
		return 0
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0
	}

	return uint16(port)
}
