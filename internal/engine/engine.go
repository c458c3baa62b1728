// Package engine drives a single Stockfish subprocess synchronously: one
// "position fen ...; go depth N" round trip per call. It backs the review
// worker's per-ply evaluate_position loop (spec.md §4.7), which never needs
// more than one position in flight on a given engine instance.
//
// The session actor's live-play engine uses internal/uci instead, since it
// must interleave analysis with asynchronous stop/move commands.
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/chess"
)

// Config configures one engine subprocess.
type Config struct {
	BinaryPath string
	Threads    int
	HashMB     int
	SkillLevel int // 0..20; Stockfish's "Skill Level" UCI option
}

// Engine is a single Stockfish process driven synchronously.
type Engine struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Scanner
	mu      sync.Mutex
	logger  *zap.Logger
	config  Config
	ready   bool
	version string
}

// Evaluation is one engine analysis result for a single position.
type Evaluation struct {
	Score    chess.AnalysisScore
	Depth    int
	SelDepth int
	Nodes    int64
	NPS      int64
	TimeMs   int64
	PV       []string
	BestMove string
}

// New starts and initializes a Stockfish subprocess.
func New(config Config, logger *zap.Logger) (*Engine, error) {
	cmd := exec.Command(config.BinaryPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("engine stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	e := &Engine{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
		logger: logger,
		config: config,
	}
	e.stdout.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if err := e.initialize(); err != nil {
		e.Close()
		return nil, fmt.Errorf("initialize engine: %w", err)
	}
	return e, nil
}

func (e *Engine) initialize() error {
	if err := e.send("uci"); err != nil {
		return err
	}
	for e.stdout.Scan() {
		line := e.stdout.Text()
		if strings.HasPrefix(line, "id name") {
			e.version = strings.TrimPrefix(line, "id name ")
		}
		if line == "uciok" {
			break
		}
	}
	if e.stdout.Err() != nil {
		return e.stdout.Err()
	}

	if err := e.send(fmt.Sprintf("setoption name Threads value %d", e.config.Threads)); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name Hash value %d", e.config.HashMB)); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name Skill Level value %d", e.config.SkillLevel)); err != nil {
		return err
	}

	if err := e.awaitReady(); err != nil {
		return err
	}
	e.ready = true
	e.logger.Info("engine ready", zap.String("version", e.version))
	return nil
}

func (e *Engine) awaitReady() error {
	if err := e.send("isready"); err != nil {
		return err
	}
	for e.stdout.Scan() {
		if e.stdout.Text() == "readyok" {
			return nil
		}
	}
	return e.stdout.Err()
}

func (e *Engine) send(cmd string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.stdin.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	e.logger.Debug("engine command", zap.String("cmd", cmd))
	return nil
}

// EvaluatePosition runs one "go depth N" search on fen and returns the final
// evaluation and best move.
func (e *Engine) EvaluatePosition(fen string, depth int) (*Evaluation, error) {
	if !e.ready {
		return nil, errors.New("engine not ready")
	}
	if err := e.send(fmt.Sprintf("position fen %s", fen)); err != nil {
		return nil, err
	}
	if err := e.send(fmt.Sprintf("go depth %d", depth)); err != nil {
		return nil, err
	}
	return e.readResult()
}

func (e *Engine) readResult() (*Evaluation, error) {
	eval := &Evaluation{}
	for e.stdout.Scan() {
		line := e.stdout.Text()
		if strings.HasPrefix(line, "info") && strings.Contains(line, "score") {
			parseInfoLine(line, eval)
		}
		if strings.HasPrefix(line, "bestmove") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				eval.BestMove = parts[1]
			}
			break
		}
	}
	if e.stdout.Err() != nil {
		return nil, e.stdout.Err()
	}
	return eval, nil
}

func parseInfoLine(line string, eval *Evaluation) {
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if i+1 < len(parts) {
				eval.Depth, _ = strconv.Atoi(parts[i+1])
			}
		case "seldepth":
			if i+1 < len(parts) {
				eval.SelDepth, _ = strconv.Atoi(parts[i+1])
			}
		case "score":
			if i+1 < len(parts) && i+2 < len(parts) {
				switch parts[i+1] {
				case "cp":
					cp, _ := strconv.Atoi(parts[i+2])
					eval.Score = chess.Cp(cp)
				case "mate":
					mateIn, _ := strconv.Atoi(parts[i+2])
					eval.Score = chess.Mate(mateIn)
				}
			}
		case "nodes":
			if i+1 < len(parts) {
				eval.Nodes, _ = strconv.ParseInt(parts[i+1], 10, 64)
			}
		case "nps":
			if i+1 < len(parts) {
				eval.NPS, _ = strconv.ParseInt(parts[i+1], 10, 64)
			}
		case "time":
			if i+1 < len(parts) {
				eval.TimeMs, _ = strconv.ParseInt(parts[i+1], 10, 64)
			}
		case "pv":
			eval.PV = append([]string{}, parts[i+1:]...)
			return
		}
	}
}

// Reset prepares the engine for a new game by sending "ucinewgame" and
// waiting for "readyok". The review worker does not call it, since it spawns
// a fresh engine for every job.
func (e *Engine) Reset() error {
	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	return e.awaitReady()
}

// Close sends "quit", waits briefly for the process to exit, and kills it
// if it doesn't.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.ready = false
	if e.stdin != nil {
		e.stdin.Write([]byte("quit\n"))
		e.stdin.Close()
	}
	e.mu.Unlock()

	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		e.cmd.Process.Kill()
	}
	return nil
}

// IsReady reports whether the engine completed initialization.
func (e *Engine) IsReady() bool { return e.ready }

// Version is the engine's reported "id name" string.
func (e *Engine) Version() string { return e.version }
