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

package script

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/script"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script [file...]",
		Short: "Run Starlark scenarios against an in-process machine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				h := script.NewHarness()
				if err := h.Run(filename, nil); err != nil {
					return fmt.Errorf("%s: %s", filename, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", filename)
			}
			return nil
		},
	}
	return cmd
}
