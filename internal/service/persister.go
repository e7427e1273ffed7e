package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"persona-engine/internal/domain"
	"persona-engine/internal/repository"
)

const persistTimeout = 5 * time.Second

// snapshotWriter serializa las escrituras de una sesion en una sola goroutine.
// Solo guarda el ultimo snapshot pendiente: uno nuevo reemplaza al anterior sin escribir,
// y nunca se escribe un snapshot mas viejo despues de uno mas nuevo.
type snapshotWriter struct {
	store   repository.SessionStore
	storyID string
	logger  *zap.Logger

	mu      sync.Mutex
	pending *domain.SessionSnapshot
	closed  bool

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSnapshotWriter(store repository.SessionStore, storyID string, logger *zap.Logger) *snapshotWriter {
	w := &snapshotWriter{
		store:   store,
		storyID: storyID,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue no bloquea. Devuelve false si el writer ya fue cerrado.
func (w *snapshotWriter) Enqueue(snapshot domain.SessionSnapshot) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = &snapshot
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Close escribe lo pendiente y espera a que la goroutine termine o ctx expire.
func (w *snapshotWriter) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.quit)
	})
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *snapshotWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.quit:
			w.flush()
			return
		}
	}
}

func (w *snapshotWriter) flush() {
	w.mu.Lock()
	snap := w.pending
	w.pending = nil
	w.mu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := w.store.Persist(ctx, w.storyID, *snap); err != nil {
		// La memoria sigue siendo la fuente de verdad; el proximo persist pone al dia al store.
		w.logger.Warn("persist session snapshot failed",
			zap.String("story_id", w.storyID),
			zap.Int("decision_count", snap.Session.DecisionCount),
			zap.Bool("backend", errors.Is(err, domain.ErrPersistence)),
			zap.Error(err),
		)
	}
}
