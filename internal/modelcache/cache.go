package modelcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/YatinSharma37/Anuvadika/internal/logging"
	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Cache owns the process-wide model handle.
//
// Leases hold a read lock for as long as inference runs; swaps take the write
// lock, so a swap waits for in-flight inferences and new leases wait for the
// swap. A goroutine must release its lease before requesting another size.
type Cache struct {
	loader Loader
	logger *slog.Logger

	swapMu sync.Mutex   // serializes loads and swaps
	mu     sync.RWMutex // guards model; read-held by leases
	model  Model
}

// New constructs an empty cache.
func New(loader Loader, logger *slog.Logger) *Cache {
	return &Cache{loader: loader, logger: logging.NewComponentLogger(logger, "modelcache")}
}

// Lease grants shared use of the loaded model until Release.
type Lease struct {
	model   Model
	release func()
	once    sync.Once
}

// Model returns the leased model.
func (l *Lease) Model() Model {
	return l.model
}

// Release returns the lease. Safe to call more than once.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(l.release)
}

// GetOrLoad returns a lease on a model of the requested size, loading it on
// first use or swapping out a different size. Requesting the loaded size
// reuses the existing model.
func (c *Cache) GetOrLoad(ctx context.Context, size Size) (*Lease, error) {
	if lease := c.tryLease(size); lease != nil {
		return lease, nil
	}

	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	// Another caller may have loaded the size while we waited.
	if lease := c.tryLease(size); lease != nil {
		return lease, nil
	}
	if err := c.swapLocked(ctx, size); err != nil {
		return nil, err
	}
	// Holding swapMu guarantees nobody swapped again before we lease.
	lease := c.tryLease(size)
	if lease == nil {
		return nil, services.Wrap(services.ErrInference, "infer", "load model", fmt.Sprintf("model %s unavailable after load", size), nil)
	}
	return lease, nil
}

// Reload explicitly swaps to size. Reloading the size already loaded fails
// with services.ErrRedundantReload and leaves the model in place.
func (c *Cache) Reload(ctx context.Context, size Size) error {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	if current, ok := c.Loaded(); ok && current == size {
		return services.Wrap(services.ErrRedundantReload, "", "reload model", fmt.Sprintf("model %s is already loaded", size), nil)
	}
	return c.swapLocked(ctx, size)
}

// Loaded reports the loaded size, if any.
func (c *Cache) Loaded() (Size, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil {
		return "", false
	}
	return c.model.Size(), true
}

// Close releases the loaded model after outstanding leases finish.
func (c *Cache) Close() error {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return nil
	}
	err := c.model.Close()
	c.model = nil
	return err
}

func (c *Cache) tryLease(size Size) *Lease {
	c.mu.RLock()
	if c.model != nil && c.model.Size() == size {
		return &Lease{model: c.model, release: c.mu.RUnlock}
	}
	c.mu.RUnlock()
	return nil
}

// swapLocked must be called with swapMu held.
func (c *Cache) swapLocked(ctx context.Context, size Size) error {
	if c.loader == nil {
		return services.Wrap(services.ErrInference, "infer", "load model", "no model loader configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrInference, "infer", "load model", "canceled before load", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var previous Size
	if c.model != nil {
		previous = c.model.Size()
		if err := c.model.Close(); err != nil {
			logging.WarnWithContext(c.logger, "closing previous model failed", "model_close_failed",
				logging.String("model", string(previous)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "memory may not be reclaimed until exit"),
			)
		}
		c.model = nil
	}

	started := time.Now()
	model, err := c.loader.Load(ctx, size)
	if err != nil {
		return services.Wrap(services.ErrInference, "infer", "load model", fmt.Sprintf("load %s", size), err)
	}
	c.model = model

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "model_loaded"),
		logging.String("model", string(size)),
		logging.Duration("load_duration", time.Since(started)),
	}
	if previous != "" {
		attrs = append(attrs, logging.String("previous_model", string(previous)))
	}
	c.logger.Info("model loaded", logging.Args(attrs...)...)
	return nil
}
