package triggers

import (
	"context"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestWatcher is the progress aggregator trigger. It reacts to
// completion requests transitioning into "approved" and credits the
// member's progress counter. Idempotency lives in the progress store, so a
// replayed event cannot double-count.
type RequestWatcher struct {
	collection *mongo.Collection
	progress   *services.ProgressService
}

func NewRequestWatcher(collection *mongo.Collection, progress *services.ProgressService) *RequestWatcher {
	return &RequestWatcher{
		collection: collection,
		progress:   progress,
	}
}

type requestEvent struct {
	OperationType string                   `bson:"operationType"`
	FullDocument  models.CompletionRequest `bson:"fullDocument"`
}

// Run watches the request queue until ctx is cancelled.
func (w *RequestWatcher) Run(ctx context.Context) {
	// Only updates that set status to "approved" are of interest; the
	// status field is written once, so updatedFields carries the new value.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":                        "update",
			"updateDescription.updatedFields.status": models.RequestStatusApproved,
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	watchLoop(ctx, "completion-requests", w.collection, pipeline, opts, func(ctx context.Context, raw bson.Raw) {
		var event requestEvent
		if err := bson.Unmarshal(raw, &event); err != nil {
			logrus.WithError(err).Warn("Failed to decode request change event")
			return
		}
		if err := w.HandleApproved(ctx, &event.FullDocument); err != nil {
			// Log-and-drop: nobody is awaiting the trigger. Partial writes
			// are picked up again by the reconciler.
			logrus.WithError(err).WithField("request_id", event.FullDocument.ID.Hex()).Error("Failed to process approved request")
		}
	})
}

// HandleApproved credits progress for one approved request.
func (w *RequestWatcher) HandleApproved(ctx context.Context, req *models.CompletionRequest) error {
	if req.Status != models.RequestStatusApproved {
		// The full-document lookup races with later writes; trust the
		// looked-up status over the event match.
		return nil
	}

	_, err := w.progress.CreditApproval(ctx, req)
	return err
}
