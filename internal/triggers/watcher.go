// Package triggers hosts the background change stream watchers: the
// server-side counterpart of the client's real-time subscriptions. Watchers
// run decoupled from the request that caused a write, with at-least-once
// semantics: no resume token is persisted, so reopening a stream after an
// error may replay events. Every handler must therefore be idempotent.
package triggers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxBackoff = time.Minute

// watchLoop opens a change stream and dispatches raw events to handle,
// reopening with backoff whenever the stream errors out. It returns only
// when ctx is cancelled.
func watchLoop(ctx context.Context, name string, coll *mongo.Collection, pipeline mongo.Pipeline, opts *options.ChangeStreamOptions, handle func(ctx context.Context, raw bson.Raw)) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := coll.Watch(ctx, pipeline, opts)
		if err != nil {
			logrus.WithError(err).WithField("watcher", name).Error("Failed to open change stream")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		logrus.WithField("watcher", name).Info("Change stream opened")

		for stream.Next(ctx) {
			handle(ctx, stream.Current)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logrus.WithError(err).WithField("watcher", name).Warn("Change stream closed, reopening")
		}
		_ = stream.Close(context.Background())
	}
}
