package services

import (
	"context"
	"testing"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreditApproval_DuplicateDeliveryCountsOnce(t *testing.T) {
	store := newFakeProgressStore()
	sent := &fakeNotifier{}
	service := NewProgressService(store, sent)

	member := primitive.NewObjectID()
	req := &models.CompletionRequest{
		ID:       primitive.NewObjectID(),
		GroupID:  primitive.NewObjectID(),
		TaskID:   "task-1",
		MemberID: member,
		Status:   models.RequestStatusApproved,
	}

	// The trigger delivers at least once; replay the same request three
	// times.
	for i := 0; i < 3; i++ {
		credited, err := service.CreditApproval(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, i == 0, credited)
	}

	progress, err := service.GetProgress(context.Background(), member)
	require.NoError(t, err)
	assert.Equal(t, int64(1), progress.CompletedTasks)

	// Exactly one notification for the single logical approval.
	assert.Equal(t, 1, sent.sentTo(member, models.NotificationTaskApproved))
}

func TestCreditApproval_DistinctRequestsAccumulate(t *testing.T) {
	store := newFakeProgressStore()
	service := NewProgressService(store, &fakeNotifier{})
	member := primitive.NewObjectID()

	for i := 0; i < 3; i++ {
		credited, err := service.CreditApproval(context.Background(), &models.CompletionRequest{
			ID:       primitive.NewObjectID(),
			GroupID:  primitive.NewObjectID(),
			TaskID:   "task",
			MemberID: member,
		})
		require.NoError(t, err)
		assert.True(t, credited)
	}

	progress, err := service.GetProgress(context.Background(), member)
	require.NoError(t, err)
	assert.Equal(t, int64(3), progress.CompletedTasks)
}

func TestIsCredited(t *testing.T) {
	store := newFakeProgressStore()
	service := NewProgressService(store, &fakeNotifier{})

	member := primitive.NewObjectID()
	req := &models.CompletionRequest{ID: primitive.NewObjectID(), MemberID: member}

	credited, err := service.IsCredited(context.Background(), member, req.ID)
	require.NoError(t, err)
	assert.False(t, credited)

	_, err = service.CreditApproval(context.Background(), req)
	require.NoError(t, err)

	credited, err = service.IsCredited(context.Background(), member, req.ID)
	require.NoError(t, err)
	assert.True(t, credited)
}

func TestGetProgress_UnknownUserZeroValued(t *testing.T) {
	service := NewProgressService(newFakeProgressStore(), &fakeNotifier{})

	progress, err := service.GetProgress(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.CompletedTasks)
}
