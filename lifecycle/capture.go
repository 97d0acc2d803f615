package lifecycle

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

// Capture drops a task into the quick-capture inbox with status "To Process".
func (s *Service) Capture(ctx context.Context, t domain.CapturedTask) (domain.CapturedTask, error) {
	if t.CompanyID == "" {
		return domain.CapturedTask{}, &domain.ValidationError{Message: "companyId is required"}
	}
	if t.Name == "" {
		return domain.CapturedTask{}, &domain.ValidationError{Message: "task name is required"}
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	now := s.now()
	t.ID = uuid.NewString()
	t.Status = domain.CaptureToProcess
	t.CreatedAt = now
	t.ModifiedAt = now
	if err := s.store.InsertCaptured(ctx, t); err != nil {
		return domain.CapturedTask{}, err
	}
	s.log.WithFields(log.Fields{"company": t.CompanyID, "task": t.ID}).Debug("task captured")
	return t, nil
}

// CapturedTasks lists the company's unprocessed inbox.
func (s *Service) CapturedTasks(ctx context.Context, companyID string) ([]domain.CapturedTask, error) {
	return s.store.CapturedToProcess(ctx, companyID)
}
