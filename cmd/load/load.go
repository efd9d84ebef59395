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

package load

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/command"
	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/device"
)

const (
	FileOptionName    = "file"
	BuffersOptionName = "buffers"
)

// ReadWords parses a waveform file: one 32-bit word per line, hex with an
// optional 0x prefix or plain decimal. Blank lines and # comments are
// skipped.
func ReadWords(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []uint32
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		value, err := strconv.ParseUint(strings.TrimPrefix(text, "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %s", path, line, err)
		}
		words = append(words, uint32(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

func NewCommand() *cobra.Command {
	var file string
	var buffers int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a waveform file into the instrument buffers",
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := ReadWords(file)
			if err != nil {
				return err
			}
			apiClient := command.NewApiClient(cfg)
			dev := device.NewDevice(apiClient)
			if err := dev.Load(words, buffers); err != nil {
				return err
			}
			snap, err := apiClient.Status()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d words into %d buffers, loader %s\n",
				len(words), buffers, snap.Loader.State)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "Waveform file, one word per line")
	cmd.Flags().IntVar(&buffers, BuffersOptionName, 1, "Number of buffers to fill")
	cmd.MarkFlagRequired(FileOptionName)

	return cmd
}
