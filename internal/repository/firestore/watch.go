package firestore

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"

	"ecodefill-backend/internal/logger"
)

type decodeFunc[T any] func(id string, data map[string]interface{}) (T, error)

// watcher follows one query. Next and Stop run on the same goroutine since the
// iterator does not allow them concurrently; Unsubscribe cancels the context
// and waits for that goroutine.
type watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func watch[T any](ctx context.Context, stream string, q firestore.Query, decode decodeFunc[T], handler func([]T, error)) *watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		it := q.Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				handler(nil, err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				handler(nil, err)
				return
			}
			handler(decodeAll(stream, docs, decode), nil)
		}
	}()
	return w
}

// decodeAll skips documents that fail validation so one malformed document
// does not blank the whole snapshot.
func decodeAll[T any](stream string, docs []*firestore.DocumentSnapshot, decode decodeFunc[T]) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode(d.Ref.ID, d.Data())
		if err != nil {
			logger.Warn("Skipping malformed document", "stream", stream, "id", d.Ref.ID, "error", err)
			continue
		}
		out = append(out, v)
	}
	logger.StreamEvent(stream, "snapshot", "documents", len(docs), "decoded", len(out))
	return out
}

func (w *watcher) Unsubscribe() {
	w.once.Do(w.cancel)
	<-w.done
}
