package triggers

import (
	"context"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/push"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationWatcher drives the push side channel: every notification
// document created in the store is forwarded best-effort to the
// recipient's registered device. In-app delivery (the document itself) and
// push are independent, non-transactional paths: either may arrive first,
// or push may not arrive at all when the token is stale or absent.
type NotificationWatcher struct {
	collection *mongo.Collection
	registry   push.Registry
	sender     push.Sender
}

func NewNotificationWatcher(collection *mongo.Collection, registry push.Registry, sender push.Sender) *NotificationWatcher {
	return &NotificationWatcher{
		collection: collection,
		registry:   registry,
		sender:     sender,
	}
}

type notificationEvent struct {
	OperationType string              `bson:"operationType"`
	FullDocument  models.Notification `bson:"fullDocument"`
}

// Run watches notification inserts until ctx is cancelled.
func (w *NotificationWatcher) Run(ctx context.Context) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": "insert"}}},
	}

	watchLoop(ctx, "notifications", w.collection, pipeline, options.ChangeStream(), func(ctx context.Context, raw bson.Raw) {
		var event notificationEvent
		if err := bson.Unmarshal(raw, &event); err != nil {
			logrus.WithError(err).Warn("Failed to decode notification change event")
			return
		}
		w.HandleCreated(ctx, &event.FullDocument)
	})
}

// HandleCreated pushes a single notification. Failures are logged and
// dropped: push is best-effort, the in-app document already exists.
func (w *NotificationWatcher) HandleCreated(ctx context.Context, notif *models.Notification) {
	token, err := w.registry.DeviceToken(ctx, notif.UserID.Hex())
	if err != nil {
		logrus.WithError(err).WithField("user_id", notif.UserID.Hex()).Warn("Failed to resolve device token")
		return
	}
	if token == "" {
		logrus.WithField("user_id", notif.UserID.Hex()).Debug("No device token registered, skipping push")
		return
	}

	data := map[string]string{"type": notif.Type}
	if notif.GroupID != nil {
		data["group_id"] = notif.GroupID.Hex()
	}
	if notif.TaskID != "" {
		data["task_id"] = notif.TaskID
	}

	msg := push.Message{
		Token: token,
		Title: notif.Title,
		Body:  notif.Message,
		Data:  data,
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": notif.UserID.Hex(),
			"type":    notif.Type,
		}).Warn("Push delivery failed")
	}
}
