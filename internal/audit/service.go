// Package audit records authentication events for later review by admins.
package audit

import (
	"log"
	"sync"

	"github.com/mrlokans/cliffauth/internal/entities"
)

// EventStore persists audit events.
type EventStore interface {
	LogEvent(event *entities.AuditEvent) error
	GetEvents(userID string, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo EventStore
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo EventStore) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until all background writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID string, action entities.AuditAction, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		Action:    action,
		IPAddress: truncate(ipAddr, 45),
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
