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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/config"
)

const (
	OverwriteOptionName = "overwrite"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and persist the configuration",
	}
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewPersistCommand())
	return cmd
}

func NewShowCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}
}

func NewPersistCommand() *cobra.Command {
	var overwrite bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Write the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cfg.Persist(overwrite)
			var exists config.ErrConfigFileExists
			if errors.As(err, &exists) {
				return fmt.Errorf("%s. Use --%s to replace it", err, OverwriteOptionName)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&overwrite, OverwriteOptionName, false, "Replace an existing configuration file")
	return cmd
}
