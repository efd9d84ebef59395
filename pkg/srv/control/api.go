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

// go-dpd API
//
// # RESTful APIs to interact with the go-dpd control server
//
// Schemes: http
// Host: localhost:8010
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-openapi/loads"
	openapiruntime "github.com/go-openapi/runtime"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/layers"
	"github.com/sealablab/go-dpd/pkg/log"
	"github.com/sealablab/go-dpd/pkg/regs"
	"github.com/sealablab/go-dpd/pkg/srv"
	"github.com/sealablab/go-dpd/pkg/srv/control/ifc"
)

// RegHex is one control word in hexadecimal form
type RegHex struct {
	Index string `json:"index"`
	Value string `json:"value"`
}

// FeedbackSetup ...
type FeedbackSetup struct {
	Value int16 `json:"value"`
}

const swaggerJSON = `{
  "swagger": "2.0",
  "info": {"title": "go-dpd API", "version": "1.0.0"},
  "basePath": "/api",
  "paths": {
    "/reg/r/{index}": {"get": {"summary": "read control word"}},
    "/reg/r": {"get": {"summary": "read all control words"}},
    "/reg/w": {"post": {"summary": "write control word"}},
    "/status": {"get": {"summary": "machine state snapshot"}},
    "/diag": {"get": {"summary": "diagnostic output"}},
    "/feedback": {"post": {"summary": "inject feedback sample"}},
    "/pulse/{action}": {"get": {"summary": "arm/disarm/trigger/clear"}}
  }
}`

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	ctrl ifc.ControlServer
	doc  *loads.Document
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl ifc.ControlServer) (ifc.ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.IP, ApiPort)

	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return nil, err
	}

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
		doc:     doc,
	}
	return s, nil
}

// Run starts the API server
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.IP, ApiPort)
	s.configureRouter()
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stderr, s.Router),
		Addr:    fmt.Sprintf("%s:%d", s.Config.IP, ApiPort),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r/{index} read control word
	// ---
	// summary: read one control word
	// responses:
	//   "200": {}
	//   "400": {}
	subRouter.HandleFunc("/reg/r/{index:[0-9]+}", s.handleRegRead()).Methods("GET")
	// swagger:operation GET /reg/r read all control words
	// ---
	// summary: read the whole bank
	// responses:
	//   "200": {}
	subRouter.HandleFunc("/reg/r", s.handleRegReadAll()).Methods("GET")
	// swagger:operation POST /reg/w write control word
	// ---
	// summary: write one control word
	// responses:
	//   "200": {}
	//   "400": {}
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	subRouter.HandleFunc("/diag", s.handleDiag()).Methods("GET")
	subRouter.HandleFunc("/feedback", s.handleFeedback()).Methods("POST")
	subRouter.HandleFunc("/pulse/{action:arm|disarm|trigger|clear}", s.handlePulse()).Methods("GET")
	subRouter.HandleFunc("/docs", s.handleDocs()).Methods("GET")
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: index: %s", vars["index"])

		index, err := strconv.ParseUint(vars["index"], 0, 16)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		reg, err := s.ctrl.WordRead(uint16(index))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		hexIndex, hexValue := reg.Hex()
		json.NewEncoder(w).Encode(&RegHex{Index: hexIndex, Value: hexValue})
	}
}

func (s *ApiServer) handleRegReadAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling reg read all request")
		all, err := s.ctrl.WordReadAll()
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		regsHex := []*RegHex{}
		for _, reg := range all {
			hexIndex, hexValue := reg.Hex()
			regsHex = append(regsHex, &RegHex{Index: hexIndex, Value: hexValue})
		}
		json.NewEncoder(w).Encode(regsHex)
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regHex := &RegHex{}
		err := json.NewDecoder(r.Body).Decode(regHex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling reg write request: index: %s value: %s", regHex.Index, regHex.Value)

		reg, err := layers.NewRegFromHex(regHex.Index, regHex.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.WordWrite(reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(s.ctrl.Snapshot())
	}
}

func (s *ApiServer) handleDiag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(s.ctrl.Snapshot().Outputs)
	}
}

func (s *ApiServer) handleFeedback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &FeedbackSetup{}
		err := json.NewDecoder(r.Body).Decode(setup)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling feedback request: value: %d", setup.Value)
		s.ctrl.SetFeedback(setup.Value)
	}
}

func (s *ApiServer) handlePulse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling pulse request: action: %s", vars["action"])
		var err error
		switch vars["action"] {
		case "arm":
			err = s.ctrl.CommandUpdate(func(cmd regs.Command) regs.Command {
				cmd.Arm = true
				return cmd
			})
		case "disarm":
			err = s.ctrl.CommandUpdate(func(cmd regs.Command) regs.Command {
				cmd.Arm = false
				return cmd
			})
		case "trigger":
			err = s.pulseBit(func(cmd *regs.Command, on bool) { cmd.SoftTrigger = on })
		case "clear":
			err = s.pulseBit(func(cmd *regs.Command, on bool) { cmd.FaultClear = on })
		default:
			httpErr := srv.ErrUnknownOperation{What: "Wrong pulse action. Must be one of arm/disarm/trigger/clear"}
			http.Error(w, httpErr.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
	}
}

// pulseBit raises an edge-triggered bit, holds it across a few ticks so
// the sampler is guaranteed to see the level, then drops it. The core
// stretches the rising edge on its side.
func (s *ApiServer) pulseBit(set func(*regs.Command, bool)) error {
	if err := s.ctrl.CommandUpdate(func(cmd regs.Command) regs.Command {
		set(&cmd, true)
		return cmd
	}); err != nil {
		return err
	}
	time.Sleep(3 * time.Duration(s.Config.TickMicros) * time.Microsecond)
	return s.ctrl.CommandUpdate(func(cmd regs.Command) regs.Command {
		set(&cmd, false)
		return cmd
	})
}

func (s *ApiServer) handleDocs() http.HandlerFunc {
	producer := openapiruntime.JSONProducer()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := producer.Produce(w, s.doc.Raw()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
