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

package reg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/command"
	"github.com/sealablab/go-dpd/pkg/config"
)

func NewGetCommand() *cobra.Command {
	var index string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get control word value",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if index == "" {
				all, err := apiClient.RegReadAll()
				if err != nil {
					return err
				}
				for idx, value := range all {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", idx, value)
				}
				return nil
			}
			value, err := apiClient.RegRead(index)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
	cmd.Flags().StringVar(&index, IndexOptionName, "", "Control word index")

	return cmd
}
