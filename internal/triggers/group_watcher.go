package triggers

import (
	"context"
	"fmt"
	"sync"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupLister seeds the watcher's view of current member sets.
type GroupLister interface {
	ListAllGroups(ctx context.Context, limit int64) ([]models.Group, error)
}

// GroupWatcher reacts to group document updates and emits one group_joined
// notification per newly added member. The diff runs over the full before
// and after member sets, so an update adding several members in one write
// notifies each of them.
type GroupWatcher struct {
	collection    *mongo.Collection
	lister        GroupLister
	notifications services.Notifier

	mu      sync.Mutex
	members map[primitive.ObjectID][]primitive.ObjectID // last observed member set per group
}

func NewGroupWatcher(collection *mongo.Collection, lister GroupLister, notifications services.Notifier) *GroupWatcher {
	return &GroupWatcher{
		collection:    collection,
		lister:        lister,
		notifications: notifications,
		members:       make(map[primitive.ObjectID][]primitive.ObjectID),
	}
}

type groupEvent struct {
	OperationType string       `bson:"operationType"`
	FullDocument  models.Group `bson:"fullDocument"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

// Run seeds the member map from the current groups and then watches for
// changes until ctx is cancelled.
func (w *GroupWatcher) Run(ctx context.Context) {
	w.seed(ctx)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	watchLoop(ctx, "groups", w.collection, pipeline, opts, func(ctx context.Context, raw bson.Raw) {
		var event groupEvent
		if err := bson.Unmarshal(raw, &event); err != nil {
			logrus.WithError(err).Warn("Failed to decode group change event")
			return
		}

		switch event.OperationType {
		case "insert":
			// The creator is the first member; joining your own new group
			// is not announced.
			w.Record(&event.FullDocument)
		case "delete":
			w.Forget(event.DocumentKey.ID)
		default:
			if err := w.HandleUpdate(ctx, &event.FullDocument); err != nil {
				logrus.WithError(err).WithField("group_id", event.DocumentKey.ID.Hex()).Error("Failed to process group update")
			}
		}
	})
}

func (w *GroupWatcher) seed(ctx context.Context) {
	groups, err := w.lister.ListAllGroups(ctx, 0)
	if err != nil {
		// Without a seed the first observed update per group only records
		// state; notifications resume from the second change onward.
		logrus.WithError(err).Warn("Failed to seed group watcher, starting cold")
		return
	}
	for i := range groups {
		w.Record(&groups[i])
	}
	logrus.WithField("count", len(groups)).Info("Group watcher seeded")
}

// Record stores the group's member set without emitting notifications.
func (w *GroupWatcher) Record(group *models.Group) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.members[group.ID] = append([]primitive.ObjectID(nil), group.Members...)
}

// Forget drops a deleted group from the member map.
func (w *GroupWatcher) Forget(groupID primitive.ObjectID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.members, groupID)
}

// HandleUpdate diffs the incoming member set against the last observed one
// and notifies every added member. Groups first seen through an update are
// recorded without fanout, matching the cold-start behavior.
func (w *GroupWatcher) HandleUpdate(ctx context.Context, group *models.Group) error {
	w.mu.Lock()
	before, seen := w.members[group.ID]
	w.members[group.ID] = append([]primitive.ObjectID(nil), group.Members...)
	w.mu.Unlock()

	if !seen {
		return nil
	}

	added := DiffAddedMembers(before, group.Members)
	for _, memberID := range added {
		groupID := group.ID
		if err := w.notifications.Send(ctx, memberID, models.NotificationGroupJoined,
			"You joined a new project group!",
			fmt.Sprintf("You've been added to %s.", group.Name),
			&groupID, ""); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"group_id":  group.ID.Hex(),
				"member_id": memberID.Hex(),
			}).Error("Failed to send group joined notification")
		}
	}
	return nil
}

// DiffAddedMembers returns the members present in after but not in before.
func DiffAddedMembers(before, after []primitive.ObjectID) []primitive.ObjectID {
	known := make(map[primitive.ObjectID]struct{}, len(before))
	for _, id := range before {
		known[id] = struct{}{}
	}

	var added []primitive.ObjectID
	for _, id := range after {
		if _, ok := known[id]; !ok {
			added = append(added, id)
		}
	}
	return added
}
