// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app ties the vault's services into a single user session.
package app

import (
	"context"

	"github.com/MKhiriev/go-vault-local/internal/config"
	"github.com/MKhiriev/go-vault-local/internal/logger"
	"github.com/MKhiriev/go-vault-local/internal/service"
)

// Session owns the service instances for one unlocked vault. There are no
// process-wide singletons; tests and callers construct fresh sessions
// instead of resetting shared state.
type Session struct {
	Services *service.Services

	cfg    *config.StructuredConfig
	logger *logger.Logger
}

func NewSession(services *service.Services, cfg *config.StructuredConfig, log *logger.Logger) *Session {
	return &Session{Services: services, cfg: cfg, logger: log}
}

// Start marks the session online and, when auto-sync is enabled, launches
// the background sync job.
func (s *Session) Start(ctx context.Context) {
	log := s.logger.GetChildLogger()

	s.Services.SyncService.SetOnline(true)
	if s.cfg.Sync.AutoSync {
		s.Services.SyncJob.Start(ctx, s.cfg.Sync.Interval)
		log.Info().Str("func", "Start").Dur("interval", s.cfg.Sync.Interval).Msg("background sync started")
	}
}

// Logout ends the session: the background job is stopped, connectivity is
// dropped and every cached derived key is zeroed. The store itself stays on
// disk, fully encrypted.
func (s *Session) Logout() {
	log := s.logger.GetChildLogger()

	s.Services.SyncJob.Stop()
	s.Services.SyncService.SetOnline(false)
	s.Services.CredentialService.InvalidateKeys()
	log.Info().Str("func", "Logout").Msg("session closed, derived keys invalidated")
}
