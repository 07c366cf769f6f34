package status

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finvault/transferflow/internal/domain"
)

// MockTransferJobRepository is a mock implementation of TransferJobRepository for testing
type MockTransferJobRepository struct {
	mock.Mock
}

func (m *MockTransferJobRepository) InsertProcessing(ctx context.Context, job *domain.TransferJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockTransferJobRepository) Get(ctx context.Context, transferID uuid.UUID) (*domain.TransferJob, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferJob), args.Error(1)
}

func (m *MockTransferJobRepository) Finalize(ctx context.Context, transferID uuid.UUID, status domain.Status, result string) (bool, error) {
	args := m.Called(ctx, transferID, status, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransferJobRepository) Delete(ctx context.Context, transferID uuid.UUID) error {
	args := m.Called(ctx, transferID)
	return args.Error(0)
}

func (m *MockTransferJobRepository) ListStaleProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.TransferJob, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransferJob), args.Error(1)
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()
	transferID := uuid.New()

	t.Run("returns current job status", func(t *testing.T) {
		jobs := new(MockTransferJobRepository)
		jobs.On("Get", ctx, transferID).Return(&domain.TransferJob{
			TransferID:  transferID,
			FromAccount: "100000",
			ToAccount:   "200000",
			Amount:      decimal.NewFromInt(200),
			Status:      domain.StatusCompleted,
			Result:      domain.ResultTransferSuccessful,
		}, nil)

		service := NewStatusService(jobs)
		got, err := service.GetStatus(ctx, transferID)

		require.NoError(t, err)
		assert.Equal(t, transferID, got.TransferID)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.Equal(t, domain.ResultTransferSuccessful, got.Result)
	})

	t.Run("unknown transfer id", func(t *testing.T) {
		jobs := new(MockTransferJobRepository)
		jobs.On("Get", ctx, transferID).Return(nil, domain.ErrJobNotFound)

		service := NewStatusService(jobs)
		got, err := service.GetStatus(ctx, transferID)

		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		assert.Nil(t, got)
	})
}
