package engine

import (
	"context"
	"sync"

	"github.com/vytor/sillychess/internal/logger"
)

// EnginePool manages a pool of reusable Stockfish engines.
type EnginePool struct {
	path    string
	size    int
	engines chan *Engine
	mu      sync.Mutex
	closed  bool
	log     *logger.Logger
}

// NewEnginePool starts size engines from the binary at path.
func NewEnginePool(path string, size int) (*EnginePool, error) {
	if size <= 0 {
		size = 2
	}
	pool := newPool(size)
	pool.path = path

	pool.log.Info("initializing engine pool with %d engines", size)
	for i := 0; i < size; i++ {
		engine, err := NewEngine(path)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.engines <- engine
	}
	pool.log.Info("engine pool ready")
	return pool, nil
}

func newPool(size int) *EnginePool {
	return &EnginePool{
		size:    size,
		engines: make(chan *Engine, size),
		log:     logger.Default().WithPrefix("stockfish-pool"),
	}
}

// Acquire gets an engine from the pool, blocking if none are available.
func (p *EnginePool) Acquire(ctx context.Context) (*Engine, error) {
	select {
	case engine, ok := <-p.engines:
		if !ok {
			return nil, ErrPoolClosed
		}
		return engine, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an engine to the pool.
func (p *EnginePool) Release(engine *Engine) {
	if engine == nil {
		return
	}
	if engine.Broken() {
		engine.Close()
		engine = p.replace()
		if engine == nil {
			return
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		engine.Close()
		return
	}
	select {
	case p.engines <- engine:
	default:
		engine.Close()
	}
}

func (p *EnginePool) replace() *Engine {
	if p.path == "" {
		return nil
	}
	p.log.Warn("replacing interrupted engine")
	engine, err := NewEngine(p.path)
	if err != nil {
		p.log.Error("failed to restart engine, pool shrinks to %d: %v", len(p.engines), err)
		return nil
	}
	return engine
}

// BestMove acquires an engine, searches, and releases it back.
func (p *EnginePool) BestMove(ctx context.Context, fen string, depth int) (SearchResult, error) {
	engine, err := p.Acquire(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	defer p.Release(engine)

	return engine.BestMove(ctx, fen, depth)
}

// Close shuts down all engines in the pool.
func (p *EnginePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	p.log.Info("closing engine pool")
	close(p.engines)
	for engine := range p.engines {
		engine.Close()
	}
}

// Available returns how many engines are currently idle.
func (p *EnginePool) Available() int {
	return len(p.engines)
}
