/*
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

package config

import (
	"net"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// TracePeer is a UDP endpoint that receives per-tick output samples
type TracePeer struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type TraceConfig struct {
	Enabled    bool         `json:"enabled"`
	Decimation int          `json:"decimation"`
	Peers      []*TracePeer `json:"peers,omitempty"`
}

type Config struct {
	Instrument  string       `json:"instrument"`
	IP          *net.IP      `json:"ip"`
	DBPath      string       `json:"dbpath"`
	LogLevel    string       `json:"loglevel"`
	TickMicros  int          `json:"tick_micros"`
	Trace       *TraceConfig `json:"trace,omitempty"`
	filepath    string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file if it exists, otherwise the defaults stay in place
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	ip := net.ParseIP(DefaultIP)
	return &Config{
		Instrument: DefaultInstrument,
		IP:         &ip,
		DBPath:     DefaultDBPath(),
		LogLevel:   DefaultLogLevel,
		TickMicros: DefaultTickMicros,
		Trace: &TraceConfig{
			Enabled:    false,
			Decimation: DefaultTraceEvery,
			Peers: []*TracePeer{
				{
					Address: DefaultIP,
					Port:    DefaultTracePort,
				},
			},
		},
		filepath: DefaultConfigPath(),
	}
}
