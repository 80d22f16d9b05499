package service

import (
	"fmt"
	"procurement-engine/internal/repo"
)

type DiagnosticsService struct {
	storage repo.Diagnostics
}

func NewDiagnosticsService(repos *repo.Repositories) *DiagnosticsService {
	return &DiagnosticsService{repos.Diagnostics}
}

func (s *DiagnosticsService) Ping() error {
	if err := s.storage.Ping(); err != nil {
		return fmt.Errorf("ping storage: %w", err)
	}

	return nil
}
