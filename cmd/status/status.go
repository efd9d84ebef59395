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

package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/command"
	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/core"
)

func NewCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show machine state and diagnostic output",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			snap, err := apiClient.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tick:       %d\n", snap.Tick)
			fmt.Fprintf(out, "focus:      %s\n", snap.Focus)
			fmt.Fprintf(out, "dispatcher: %s (status 0x%02x)\n", snap.Dispatcher.State, snap.Dispatcher.Status)
			fmt.Fprintf(out, "loader:     %s (status 0x%02x)\n", snap.Loader.State, snap.Loader.Status)
			fmt.Fprintf(out, "diag:       %s (status 0x%02x)\n", snap.Diag.State, snap.Diag.Status)
			fmt.Fprintf(out, "app:        %s (status 0x%02x)\n", snap.App.State, snap.App.Status)
			index, decodedStatus, fault := core.DecodeDiag(snap.Outputs.Diag)
			fmt.Fprintf(out, "diag out:   %d (band index %d, status 0x%02x, fault %v)\n",
				snap.Outputs.Diag, index, decodedStatus, fault)
			fmt.Fprintf(out, "trigger:    %d\n", snap.Outputs.Trigger)
			fmt.Fprintf(out, "intensity:  %d\n", snap.Outputs.Intensity)
			return nil
		},
	}
	return cmd
}
