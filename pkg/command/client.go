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

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/sealablab/go-dpd/pkg/command/ifc"
	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/core"
	"github.com/sealablab/go-dpd/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) ifc.ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.IP, control.ApiPort),
	}
}

func (c *ApiClient) regReadUrl(index string) string {
	return fmt.Sprintf("%s/reg/r/%s", c.ApiPrefix, index)
}

func (c *ApiClient) regWriteUrl() string {
	return fmt.Sprintf("%s/reg/w", c.ApiPrefix)
}

// RegRead sends a request to get the value of one control word
func (c *ApiClient) RegRead(index string) (string, error) {
	r, err := req.Get(c.regReadUrl(index))
	if err != nil {
		return "", err
	}
	if r.Response().StatusCode != 200 {
		return "", errors.New(r.Response().Status)
	}
	reg := &control.RegHex{}
	err = r.ToJSON(reg)
	if err != nil {
		return "", err
	}
	return reg.Value, nil
}

// RegReadAll sends a request to get the whole control word bank
func (c *ApiClient) RegReadAll() (map[string]string, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	var all []*control.RegHex
	result := make(map[string]string)
	err = r.ToJSON(&all)
	if err != nil {
		return nil, err
	}
	for _, reg := range all {
		result[reg.Index] = reg.Value
	}
	return result, nil
}

// RegWrite sends a request to write a value into one control word
func (c *ApiClient) RegWrite(index, value string) error {
	reg := &control.RegHex{
		Index: index,
		Value: value,
	}
	r, err := req.Post(c.regWriteUrl(), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Status fetches the machine state snapshot
func (c *ApiClient) Status() (*core.Snapshot, error) {
	r, err := req.Get(fmt.Sprintf("%s/status", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	snap := &core.Snapshot{}
	if err := r.ToJSON(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Diag fetches the current outputs
func (c *ApiClient) Diag() (*core.Outputs, error) {
	r, err := req.Get(fmt.Sprintf("%s/diag", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	out := &core.Outputs{}
	if err := r.ToJSON(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Feedback injects a feedback sample
func (c *ApiClient) Feedback(value int16) error {
	setup := &control.FeedbackSetup{Value: value}
	r, err := req.Post(fmt.Sprintf("%s/feedback", c.ApiPrefix), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Pulse runs one of the arm/disarm/trigger/clear actions
func (c *ApiClient) Pulse(action string) error {
	r, err := req.Get(fmt.Sprintf("%s/pulse/%s", c.ApiPrefix, action))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}
