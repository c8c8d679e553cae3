package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/vytor/sillychess/internal/logger"
)

var (
	ErrNoBestMove = errors.New("engine returned no move")
	ErrTimeout    = errors.New("stockfish timeout")
	ErrPoolClosed = errors.New("engine pool closed")
)

type SearchResult struct {
	BestMove string // UCI
}

// Engine is a single UCI engine process.
type Engine struct {
	path string
	log  *logger.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	timeout time.Duration
	broken  bool
}

// NewEngine starts the engine binary at path and completes the UCI handshake.
func NewEngine(path string) (*Engine, error) {
	log := logger.Default().WithPrefix("stockfish")

	if path == "" {
		path = "stockfish"
	}

	log.Info("starting stockfish engine: %s", path)
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Error("failed to create stdin pipe: %v", err)
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error("failed to create stdout pipe: %v", err)
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		log.Error("failed to start stockfish: %v", err)
		return nil, err
	}

	engine := newEngine(path, stdin, stdout, log)
	engine.cmd = cmd

	log.Debug("initializing UCI protocol")
	if err := engine.init(); err != nil {
		log.Error("failed to initialize UCI: %v", err)
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	log.Info("stockfish engine ready")
	return engine, nil
}

func newEngine(path string, stdin io.WriteCloser, stdout io.Reader, log *logger.Logger) *Engine {
	return &Engine{
		path:    path,
		log:     log,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdout),
		timeout: 8 * time.Second,
	}
}

func (e *Engine) init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sendLocked("uci"); err != nil {
		return err
	}
	if err := e.waitFor("uciok", 2*time.Second); err != nil {
		return err
	}
	if err := e.sendLocked("isready"); err != nil {
		return err
	}
	return e.waitFor("readyok", 2*time.Second)
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return nil
	}

	e.log.Debug("closing stockfish engine")
	_ = e.sendLocked("quit")
	_ = e.stdin.Close()
	e.stdin = nil

	if e.cmd == nil {
		return nil
	}
	err := e.cmd.Wait()
	e.cmd = nil
	if err != nil {
		e.log.Debug("stockfish process exited: %v", err)
	} else {
		e.log.Debug("stockfish process exited cleanly")
	}
	return err
}

// BestMove searches fen to the given depth and returns the engine's choice.
func (e *Engine) BestMove(ctx context.Context, fen string, depth int) (SearchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return SearchResult{}, errors.New("engine closed")
	}
	if depth <= 0 {
		depth = 15
	}

	log := e.log.WithField("depth", depth)
	start := time.Now()
	log.Debug("searching position")

	if err := e.sendLocked("ucinewgame"); err != nil {
		log.Error("failed to send ucinewgame: %v", err)
		return SearchResult{}, err
	}
	if err := e.sendLocked("position fen " + fen); err != nil {
		log.Error("failed to set position: %v", err)
		return SearchResult{}, err
	}

	if err := e.sendLocked(fmt.Sprintf("go depth %d", depth)); err != nil {
		log.Error("failed to start search: %v", err)
		return SearchResult{}, err
	}

	var best SearchResult
	deadline := time.Now().Add(e.timeout)
	for {
		if ctx.Err() != nil {
			log.Warn("search cancelled: %v", ctx.Err())
			_ = e.sendLocked("stop")
			e.broken = true
			return SearchResult{}, ctx.Err()
		}
		if time.Now().After(deadline) {
			log.Error("search timed out after %v", e.timeout)
			_ = e.sendLocked("stop")
			e.broken = true
			return SearchResult{}, ErrTimeout
		}
		line, err := e.stdout.ReadString('\n')
		if err != nil {
			log.Error("failed to read from stockfish: %v", err)
			e.broken = true
			return SearchResult{}, err
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "bestmove") {
			fields := strings.Fields(line)
			if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
				log.Warn("engine reported no best move")
				return SearchResult{}, ErrNoBestMove
			}
			best.BestMove = fields[1]
			log.Debug("search completed in %v: bestmove=%s", time.Since(start), best.BestMove)
			return best, nil
		}
	}
}

// Broken reports whether the engine's output stream may hold stale lines
// from an interrupted search. Broken engines must not be reused.
func (e *Engine) Broken() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broken
}

func (e *Engine) sendLocked(cmd string) error {
	if e.stdin == nil {
		return errors.New("engine closed")
	}
	_, err := e.stdin.Write([]byte(cmd + "\n"))
	return err
}

func (e *Engine) waitFor(marker string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			e.log.Error("timeout waiting for %s", marker)
			return fmt.Errorf("timeout waiting for %s", marker)
		}
		line, err := e.stdout.ReadString('\n')
		if err != nil {
			return err
		}
		if strings.Contains(line, marker) {
			return nil
		}
	}
}
