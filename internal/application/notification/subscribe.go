package notification

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/taara-api/internal/domain"
	"go.uber.org/zap"
)

// watcher serialises reloads for one subscription. The broker registration
// happens before the initial load, and both hold mu, so a change that lands
// while the first snapshot is being read is delivered right after it.
// The stop func may be called from inside onChange.
type watcher struct {
	mu     sync.Mutex
	closed atomic.Bool
	cancel func()
}

func (w *watcher) stop() {
	if w.closed.Swap(true) {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
}

// Subscribe calls onChange with the current list before returning, then again
// after every change for userID until the returned func is called.
func (s *service) Subscribe(ctx context.Context, userID string, onChange func([]domain.Notification)) (func(), error) {
	return s.watch(ctx, userID, func(ctx context.Context) error {
		list, err := s.List(ctx, userID)
		if err != nil {
			return err
		}
		onChange(list)
		return nil
	})
}

func (s *service) SubscribeUnreadCount(ctx context.Context, userID string, onChange func(int)) (func(), error) {
	return s.watch(ctx, userID, func(ctx context.Context) error {
		n, err := s.UnreadCount(ctx, userID)
		if err != nil {
			return err
		}
		onChange(n)
		return nil
	})
}

func (s *service) watch(ctx context.Context, userID string, reload func(context.Context) error) (func(), error) {
	w := &watcher{}
	// Later reloads run after the subscribing call returned and must not inherit its cancellation.
	bg := context.WithoutCancel(ctx)

	w.mu.Lock()
	w.cancel = s.broker.Subscribe(userID, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed.Load() {
			return
		}
		if err := reload(bg); err != nil {
			s.log.Warn("reload notification subscription", zap.String("user_id", userID), zap.Error(err))
		}
	})
	err := reload(ctx)
	w.mu.Unlock()

	if err != nil {
		w.stop()
		return nil, err
	}
	return w.stop, nil
}
