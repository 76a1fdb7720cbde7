// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tombee/folio/internal/api"
	"github.com/tombee/folio/internal/client"
	"github.com/tombee/folio/internal/config"
	"github.com/tombee/folio/internal/credential"
	internallog "github.com/tombee/folio/internal/log"
	"github.com/tombee/folio/internal/notify"
	"github.com/tombee/folio/internal/provenance"
	"github.com/tombee/folio/internal/storage"
	"github.com/tombee/folio/internal/tracing"
	"github.com/tombee/folio/pkg/httpclient"
)

// Session bundles everything a command needs to talk to the API.
type Session struct {
	Config      *config.Config
	Logger      *slog.Logger
	Backend     storage.Backend
	Credentials *credential.Store
	Provenance  *provenance.Store
	Client      *client.Client
	API         *api.Service

	events      <-chan notify.Event
	unsubscribe func()
	shutdown    tracing.ShutdownFunc
	stderr      io.Writer
}

// NewSession loads configuration and wires the client for cmd. Session
// events published while the command runs are printed by Close.
func NewSession(cmd *cobra.Command) (*Session, error) {
	cfg, err := config.LoadDefault(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	if u := GetBaseURL(); u != "" {
		cfg.API.BaseURL = u
		if err := cfg.Validate(); err != nil {
			return nil, NewUsageError("invalid --base-url", err)
		}
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	if GetVerbose() {
		logCfg.Level = "debug"
	}
	logger := internallog.New(logCfg)

	backend, err := storage.Open(cfg.Storage.Backend, cfg.StorageOptions())
	if err != nil {
		return nil, NewConfigError("failed to open storage", err)
	}
	if !backend.Available() {
		return nil, NewConfigError(fmt.Sprintf("storage backend %q is not available here", backend.Name()), storage.ErrBackendUnavailable)
	}

	creds := credential.NewStore(backend, credential.WithLogger(logger))
	prov := provenance.NewStore(backend,
		provenance.WithTTL(cfg.Session.ProvenanceTTL),
		provenance.WithLogger(logger),
	)

	httpCfg := cfg.HTTPClient()
	httpCfg.Logger = logger
	httpClient, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, NewConfigError("invalid transport configuration", err)
	}

	traceCfg := cfg.Tracing()
	traceCfg.Writer = cmd.ErrOrStderr()
	traceCfg.ServiceVersion, _, _ = GetVersion()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tp, shutdown, err := tracing.Setup(ctx, traceCfg)
	if err != nil {
		return nil, NewConfigError("failed to set up tracing", err)
	}

	bus := notify.New()
	events, unsubscribe := bus.Subscribe()

	opts := []client.Option{
		client.WithBaseURL(cfg.API.BaseURL),
		client.WithHTTPClient(httpClient),
		client.WithCredentials(creds),
		client.WithProvenance(prov),
		client.WithPublisher(notify.Multi{bus, notify.Default}),
		client.WithPolicy(cfg.Policy()),
		client.WithReferrer(cfg.API.Referrer),
		client.WithLogger(logger),
		client.WithTracerProvider(tp),
	}
	if cfg.API.Origin != "" {
		opts = append(opts, client.WithOrigin(cfg.API.Origin))
	}
	c, err := client.New(opts...)
	if err != nil {
		unsubscribe()
		_ = shutdown(context.Background())
		return nil, NewConfigError("failed to create client", err)
	}

	return &Session{
		Config:      cfg,
		Logger:      logger,
		Backend:     backend,
		Credentials: creds,
		Provenance:  prov,
		Client:      c,
		API:         api.New(c),
		events:      events,
		unsubscribe: unsubscribe,
		shutdown:    shutdown,
		stderr:      cmd.ErrOrStderr(),
	}, nil
}

// Origin returns the site origin pages are captured under.
func (s *Session) Origin() string {
	if s.Config.API.Origin != "" {
		return s.Config.API.Origin
	}
	return originOf(s.Config.API.BaseURL)
}

// Close prints a notice for each distinct session event published during
// the command, releases storage and telemetry, and stops listening.
func (s *Session) Close() {
	defer s.unsubscribe()
	defer s.release()

	seen := map[notify.Reason]bool{}
	for {
		select {
		case e := <-s.events:
			if seen[e.Reason] || GetQuiet() {
				continue
			}
			seen[e.Reason] = true
			fmt.Fprintln(s.stderr, RenderNotice(e, ColorEnabled()))
		default:
			return
		}
	}
}

// Discard drops the session events published so far, so Close has nothing
// to announce for them.
func (s *Session) Discard() {
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

// release flushes spans, closes storage and writes the metrics snapshot.
func (s *Session) release() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdown(ctx); err != nil {
		s.Logger.Warn("failed to flush spans", "error", err)
	}

	if c, ok := s.Backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.Logger.Warn("failed to close storage", "backend", s.Backend.Name(), "error", err)
		}
	}

	if path := s.Config.Telemetry.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			s.Logger.Warn("failed to write metrics snapshot", "path", path, "error", err)
		}
	}
}
