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
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultIP             = "127.0.0.1"
	DefaultPortRangeStart = 42069
	DefaultPortRangeEnd   = 42100
	DefaultWebRoot        = "/var/www"
	DefaultProject        = "html"
	DefaultIndexFile      = "index.html"

	DefaultHttpWriteTimeout = time.Second * 10
	DefaultHttpReadTimeout  = time.Second * 5
	DefaultHttpIdleTimeout  = time.Second * 5
)

// InstanceConfig is the process wide, read-only configuration used to build a ListenerSet. It is parsed once before
// any listener starts and is shared by reference with every request handler afterwards.
type InstanceConfig struct {
	SourceConfig map[interface{}]interface{}

	IP             string
	PortRange      PortRange
	CatchAll       CatchAllPolicy
	WebRoot        string
	DefaultProject string
	IndexFile      string
	Compression    bool
	Metrics        *BindPointConfig
	Options        Options
}

// NewInstanceConfig returns an InstanceConfig with all defaults applied.
func NewInstanceConfig() *InstanceConfig {
	config := &InstanceConfig{}
	config.Default()
	return config
}

// LoadConfigFile reads a YAML file and parses it into a defaulted InstanceConfig. The result is not validated.
func LoadConfigFile(path string) (*InstanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file [%s]", path)
	}

	configMap := map[interface{}]interface{}{}
	if err := yaml.Unmarshal(data, &configMap); err != nil {
		return nil, errors.Wrapf(err, "unable to decode config file [%s]", path)
	}

	config := NewInstanceConfig()
	if err := config.Parse(configMap); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file [%s]", path)
	}

	return config, nil
}

// Default provides defaults for all values
func (config *InstanceConfig) Default() {
	config.IP = DefaultIP
	config.PortRange = PortRange{Start: DefaultPortRangeStart, End: DefaultPortRangeEnd}
	config.CatchAll = CatchAllPolicy{Type: CatchAllFirst}
	config.WebRoot = DefaultWebRoot
	config.DefaultProject = DefaultProject
	config.IndexFile = DefaultIndexFile
	config.Compression = true
	config.Metrics = nil
	config.Options.Default()
}

// Parse parses a configuration map. Keys that are not present keep their current (usually default) values.
func (config *InstanceConfig) Parse(configMap map[interface{}]interface{}) error {
	config.SourceConfig = configMap

	if val, ok := configMap["ip"]; ok {
		if ip, ok := val.(string); ok {
			config.IP = ip
		} else {
			return errors.New("ip must be a string")
		}
	}

	if val, ok := configMap["portRange"]; ok {
		if rangeMap, ok := val.(map[interface{}]interface{}); ok {
			if err := config.PortRange.Parse(rangeMap); err != nil {
				return fmt.Errorf("error parsing portRange: %v", err)
			}
		} else {
			return errors.New("portRange must be a map")
		}
	}

	if val, ok := configMap["catchAll"]; ok {
		if catchAllMap, ok := val.(map[interface{}]interface{}); ok {
			if err := config.CatchAll.Parse(catchAllMap); err != nil {
				return fmt.Errorf("error parsing catchAll: %v", err)
			}
		} else {
			return errors.New("catchAll must be a map")
		}
	}

	if val, ok := configMap["webRoot"]; ok {
		if webRoot, ok := val.(string); ok {
			config.WebRoot = webRoot
		} else {
			return errors.New("webRoot must be a string")
		}
	}

	if val, ok := configMap["defaultProject"]; ok {
		if defaultProject, ok := val.(string); ok {
			config.DefaultProject = defaultProject
		} else {
			return errors.New("defaultProject must be a string")
		}
	}

	if val, ok := configMap["indexFile"]; ok {
		if indexFile, ok := val.(string); ok {
			config.IndexFile = indexFile
		} else {
			return errors.New("indexFile must be a string")
		}
	}

	if val, ok := configMap["compression"]; ok {
		if compression, ok := val.(bool); ok {
			config.Compression = compression
		} else {
			return errors.New("compression must be a boolean")
		}
	}

	if val, ok := configMap["metrics"]; ok {
		if metricsMap, ok := val.(map[interface{}]interface{}); ok {
			config.Metrics = &BindPointConfig{}
			if err := config.Metrics.Parse(metricsMap); err != nil {
				return fmt.Errorf("error parsing metrics: %v", err)
			}
		} else {
			return errors.New("metrics must be a map if defined")
		}
	}

	if val, ok := configMap["options"]; ok {
		if optionsMap, ok := val.(map[interface{}]interface{}); ok {
			if err := config.Options.Parse(optionsMap); err != nil {
				return fmt.Errorf("error parsing options section: %v", err)
			}
		} //no else, options are optional
	}

	return nil
}

// Validate checks every value. A web root that is missing or not a directory is reported here so that the process
// never begins serving with a broken root.
func (config *InstanceConfig) Validate() error {
	if net.ParseIP(config.IP) == nil {
		return errors.Errorf("invalid ip [%s]", config.IP)
	}

	if err := config.PortRange.Validate(); err != nil {
		return fmt.Errorf("invalid portRange: %v", err)
	}

	if err := config.CatchAll.Validate(); err != nil {
		return fmt.Errorf("invalid catchAll: %v", err)
	}

	if !filepath.IsAbs(config.WebRoot) {
		return errors.Errorf("webRoot [%s] must be an absolute path", config.WebRoot)
	}

	if info, err := os.Stat(config.WebRoot); err != nil {
		return errors.Wrapf(err, "webRoot [%s] is not accessible", config.WebRoot)
	} else if !info.IsDir() {
		return errors.Errorf("webRoot [%s] is not a directory", config.WebRoot)
	}

	if err := validateName(config.DefaultProject); err != nil {
		return fmt.Errorf("invalid defaultProject: %v", err)
	}

	if err := validateName(config.IndexFile); err != nil {
		return fmt.Errorf("invalid indexFile: %v", err)
	}

	if config.Metrics != nil {
		if err := config.Metrics.Validate(); err != nil {
			return fmt.Errorf("invalid metrics: %v", err)
		}
	}

	if err := config.Options.TimeoutOptions.Validate(); err != nil {
		return fmt.Errorf("invalid timeout option: %v", err)
	}

	return nil
}

// validateName checks a single path segment: a project or file name directly below some directory.
func validateName(name string) error {
	if name == "" {
		return errors.New("must not be empty")
	}

	if name == "." || name == ".." {
		return errors.Errorf("[%s] is not a valid name", name)
	}

	if strings.ContainsAny(name, `/\`) {
		return errors.Errorf("[%s] must not contain path separators", name)
	}

	return nil
}

// Options is the shared options for every listener.
type Options struct {
	TimeoutOptions
}

// Default provides defaults for all necessary values
func (options *Options) Default() {
	options.TimeoutOptions.Default()
}

// Parse parses a configuration map
func (options *Options) Parse(optionsMap map[interface{}]interface{}) error {
	if err := options.TimeoutOptions.Parse(optionsMap); err != nil {
		return fmt.Errorf("error parsing options: %v", err)
	}

	return nil
}

// TimeoutOptions represents http timeout options
type TimeoutOptions struct {
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

// Default defaults all HTTP timeout options
func (timeoutOptions *TimeoutOptions) Default() {
	timeoutOptions.WriteTimeout = DefaultHttpWriteTimeout
	timeoutOptions.ReadTimeout = DefaultHttpReadTimeout
	timeoutOptions.IdleTimeout = DefaultHttpIdleTimeout
}

// Parse parses a config map
func (timeoutOptions *TimeoutOptions) Parse(config map[interface{}]interface{}) error {
	var err error
	if timeoutOptions.ReadTimeout, err = parseDuration(config, "readTimeout", timeoutOptions.ReadTimeout); err != nil {
		return err
	}

	if timeoutOptions.IdleTimeout, err = parseDuration(config, "idleTimeout", timeoutOptions.IdleTimeout); err != nil {
		return err
	}

	if timeoutOptions.WriteTimeout, err = parseDuration(config, "writeTimeout", timeoutOptions.WriteTimeout); err != nil {
		return err
	}

	return nil
}

// Validate validates all settings and return nil or an error
func (timeoutOptions *TimeoutOptions) Validate() error {
	if timeoutOptions.WriteTimeout <= 0 {
		return fmt.Errorf("value [%s] for writeTimeout too low, must be positive", timeoutOptions.WriteTimeout.String())
	}

	if timeoutOptions.ReadTimeout <= 0 {
		return fmt.Errorf("value [%s] for readTimeout too low, must be positive", timeoutOptions.ReadTimeout.String())
	}

	if timeoutOptions.IdleTimeout <= 0 {
		return fmt.Errorf("value [%s] for idleTimeout too low, must be positive", timeoutOptions.IdleTimeout.String())
	}

	return nil
}

func parseDuration(config map[interface{}]interface{}, key string, current time.Duration) (time.Duration, error) {
	interfaceVal, ok := config[key]
	if !ok {
		return current, nil
	}

	durationStr, ok := interfaceVal.(string)
	if !ok {
		return current, fmt.Errorf("could not use value for %s, not a string", key)
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return current, fmt.Errorf("could not parse %s %s as a duration (e.g. 1m): %v", key, durationStr, err)
	}

	return duration, nil
}

// parsePort accepts the integer shapes a YAML decoder may produce for a port value.
func parsePort(val interface{}) (uint16, error) {
	var port int64
	switch v := val.(type) {
	case int:
		port = int64(v)
	case int64:
		port = v
	case uint64:
		if v > 65535 {
			return 0, errors.Errorf("invalid port [%d], must 1-65535", v)
		}
		port = int64(v)
	default:
		return 0, errors.Errorf("invalid port [%v], must be an integer", val)
	}

	if port < 1 || port > 65535 {
		return 0, errors.Errorf("invalid port [%d], must 1-65535", port)
	}

	return uint16(port), nil
}
