// The config package reads the gohas configuration file, which is in
// YAML format.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {

	// EnableNavdataMonitor turns on the secondary output channel that
	// republishes each decoded message for an external
	// navigation-message monitor.
	EnableNavdataMonitor bool `yaml:"enable_navdata_monitor"`

	// LogEvents turns on the daily event log.
	LogEvents bool `yaml:"log_events"`

	// EventLogDirectory is the directory for the daily event logs.
	// Empty means the current directory.
	EventLogDirectory string `yaml:"event_log_directory"`

	// Debug turns on debug logging of matrices, masks and bit
	// cursors.  Very verbose.
	Debug bool `yaml:"debug"`

	// MetricsAddress is the listen address of the Prometheus metrics
	// endpoint, for example ":9101".  Empty disables the endpoint.
	MetricsAddress string `yaml:"metrics_address"`
}

// GetConfig gets the config from the given file.
func GetConfig(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		em := fmt.Sprintf("cannot open config file: %s", err.Error())
		return nil, fmt.Errorf("%s", em)
	}
	defer file.Close()

	return getConfigFromReader(file)
}

// getConfigFromReader gets the config from the given reader.
func getConfigFromReader(configReader io.Reader) (*Config, error) {
	data, errRead := io.ReadAll(configReader)
	if errRead != nil {
		em := fmt.Sprintf("error reading config file: %s", errRead.Error())
		return nil, fmt.Errorf("%s", em)
	}

	config, parseError := parseConfigFromBytes(data)
	if parseError != nil {
		em := fmt.Sprintf("not a valid config file: %s", parseError.Error())
		return nil, fmt.Errorf("%s", em)
	}

	return config, nil
}

func parseConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
