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

package serve

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/command"
	"github.com/sealablab/go-dpd/pkg/config"
)

const (
	IPOptionName   = "ip"
	TickOptionName = "tick-micros"
)

func NewCommand() *cobra.Command {
	var ip string
	var tickMicros int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ip != "" {
				parsedIP := net.ParseIP(ip)
				cfg.IP = &parsedIP
			}
			if tickMicros > 0 {
				cfg.TickMicros = tickMicros
			}
			return command.StartControlServer(cfg)
		},
	}
	cmd.Flags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("IP to bind. E.g. %s", config.DefaultIP))
	cmd.Flags().IntVar(&tickMicros, TickOptionName, 0, "Tick interval in microseconds")

	return cmd
}
