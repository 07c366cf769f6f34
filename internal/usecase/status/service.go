package status

import (
	"context"

	"github.com/google/uuid"

	"github.com/finvault/transferflow/internal/domain"
)

// TransferStatus is the client-facing view of a job's outcome
type TransferStatus struct {
	TransferID uuid.UUID
	Status     domain.Status
	Result     string
}

// StatusService answers polling clients from the job record store alone.
// It never touches the dispatch queue or the workers.
type StatusService struct {
	Jobs domain.TransferJobRepository
}

// NewStatusService creates a new StatusService instance
func NewStatusService(jobs domain.TransferJobRepository) *StatusService {
	return &StatusService{Jobs: jobs}
}

// GetStatus looks up a job's current status, or domain.ErrJobNotFound
func (s *StatusService) GetStatus(ctx context.Context, transferID uuid.UUID) (*TransferStatus, error) {
	job, err := s.Jobs.Get(ctx, transferID)
	if err != nil {
		return nil, err
	}
	return &TransferStatus{
		TransferID: job.TransferID,
		Status:     job.Status,
		Result:     job.Result,
	}, nil
}
