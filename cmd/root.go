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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/cmd/completion"
	configcmd "github.com/sealablab/go-dpd/cmd/config"
	"github.com/sealablab/go-dpd/cmd/load"
	"github.com/sealablab/go-dpd/cmd/pulse"
	"github.com/sealablab/go-dpd/cmd/reg"
	"github.com/sealablab/go-dpd/cmd/script"
	"github.com/sealablab/go-dpd/cmd/serve"
	"github.com/sealablab/go-dpd/cmd/status"
	pkgconfig "github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-dpd",
		Short: "Control plane for the reconfigurable pulse driver",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(reg.NewCommand())
	cmd.AddCommand(status.NewCommand())
	cmd.AddCommand(pulse.NewCommand())
	cmd.AddCommand(load.NewCommand())
	cmd.AddCommand(script.NewCommand())
	cmd.AddCommand(configcmd.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
