// Package uci drives a Stockfish subprocess asynchronously: a command
// channel accepts typed commands while background tasks read engine output
// and publish typed events, so the session actor (internal/session) can
// interleave live analysis with Stop/SetPosition/Quit without blocking on a
// synchronous round trip, unlike internal/engine's review-worker driver.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/chess"
)

// commonSearchPaths are checked, in order, before falling back to PATH.
var commonSearchPaths = []string{
	"/usr/local/bin/stockfish",
	"/usr/bin/stockfish",
	"/usr/games/stockfish",
	"/opt/homebrew/bin/stockfish",
}

// LocateBinary returns configured, then the fixed search list, then PATH.
func LocateBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}
	for _, p := range commonSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if p, err := exec.LookPath("stockfish"); err == nil {
		return p, nil
	}
	return "", errors.New("stockfish binary not found")
}

// GoParams are the search bounds for a Go command.
type GoParams struct {
	MoveTimeMs int
	Depth      int
	Infinite   bool
}

// CommandKind discriminates Command.
type CommandKind int

const (
	CmdSetPosition CommandKind = iota
	CmdSetOption
	CmdGo
	CmdStop
	CmdQuit
)

// Command is one typed command sent to the driver.
type Command struct {
	Kind        CommandKind
	FEN         string
	Moves       []string
	OptionName  string
	OptionValue string
	Go          GoParams
}

// EngineInfo is one parsed "info" line, fields present only when the engine
// reported them.
type EngineInfo struct {
	Depth    *int
	SelDepth *int
	TimeMs   *int64
	Nodes    *int64
	NPS      *int64
	Score    *chess.AnalysisScore
	PV       []string
	MultiPV  *int
	CurrMove string
	HashFull *int
}

// EventKind discriminates Event.
type EventKind int

const (
	EvtReady EventKind = iota
	EvtBestMove
	EvtInfo
	EvtRawMessage
	EvtError
)

// Direction tags a RawUciMessage.
type Direction int

const (
	DirOut Direction = iota
	DirIn
)

// Event is one typed event emitted by the driver.
type Event struct {
	Kind      EventKind
	BestMove  *chess.Move
	PonderMove *chess.Move
	Info      EngineInfo
	Direction Direction
	Message   string
	Err       string
}

// Options configures the engine's UCI options at handshake time.
type Options struct {
	SkillLevel int // 0..20
	Threads    int // 1..16
	HashMB     int // 1..2048
}

// Driver owns one Stockfish subprocess and the goroutines that translate
// Commands into UCI lines and UCI lines into Events.
type Driver struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *zap.Logger

	commands chan Command
	events   chan Event

	done chan struct{}
}

// Start locates the engine binary, spawns it, performs the UCI handshake
// (bounded by handshakeTimeout) and launches the reader/writer/processor
// goroutines. Events are delivered on the returned channel until Quit is
// sent and the subprocess exits.
func Start(ctx context.Context, binaryPath string, opts Options, handshakeTimeout time.Duration, logger *zap.Logger) (*Driver, error) {
	path, err := LocateBinary(binaryPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, filepath.Clean(path))
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uci stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("uci stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("spawn engine: %w", err)
	}

	d := &Driver{
		cmd:      cmd,
		stdin:    stdin,
		logger:   logger,
		commands: make(chan Command, 16),
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
	}

	writeLines := make(chan string, 16)
	go d.stdoutReader(stdout, writeLines)
	go d.stdinWriter(writeLines)
	go d.commandProcessor(writeLines)

	if err := d.handshake(writeLines, opts, handshakeTimeout); err != nil {
		d.Quit()
		return nil, err
	}

	return d, nil
}

func (d *Driver) handshake(writeLines chan<- string, opts Options, timeout time.Duration) error {
	ready := make(chan struct{})
	go func() {
		for ev := range d.events {
			if ev.Kind == EvtReady {
				close(ready)
				return
			}
		}
	}()

	writeLines <- "uci"

	select {
	case <-ready:
	case <-time.After(timeout):
		return errors.New("uci handshake timed out waiting for uciok")
	}

	writeLines <- fmt.Sprintf("setoption name Skill Level value %d", opts.SkillLevel)
	writeLines <- fmt.Sprintf("setoption name Threads value %d", opts.Threads)
	writeLines <- fmt.Sprintf("setoption name Hash value %d", opts.HashMB)
	writeLines <- "isready"
	return nil
}

// Events returns the channel events are delivered on.
func (d *Driver) Events() <-chan Event { return d.events }

// SetPosition sends "position fen ... [moves ...]".
func (d *Driver) SetPosition(fen string, moves []string) {
	d.commands <- Command{Kind: CmdSetPosition, FEN: fen, Moves: moves}
}

// SetOption sends "setoption name X [value Y]".
func (d *Driver) SetOption(name, value string) {
	d.commands <- Command{Kind: CmdSetOption, OptionName: name, OptionValue: value}
}

// Go sends "go ...".
func (d *Driver) Go(params GoParams) {
	d.commands <- Command{Kind: CmdGo, Go: params}
}

// Stop sends "stop".
func (d *Driver) Stop() {
	d.commands <- Command{Kind: CmdStop}
}

// Quit sends "quit", waits briefly, then kills the process if it hasn't
// exited.
func (d *Driver) Quit() {
	select {
	case d.commands <- Command{Kind: CmdQuit}:
	default:
	}
	close(d.commands)

	waitDone := make(chan error, 1)
	go func() { waitDone <- d.cmd.Wait() }()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		if d.cmd.Process != nil {
			d.cmd.Process.Kill()
		}
	}
}

func (d *Driver) commandProcessor(out chan<- string) {
	for cmd := range d.commands {
		switch cmd.Kind {
		case CmdSetPosition:
			line := "position fen " + cmd.FEN
			if len(cmd.Moves) > 0 {
				line += " moves " + strings.Join(cmd.Moves, " ")
			}
			out <- line
		case CmdSetOption:
			line := "setoption name " + cmd.OptionName
			if cmd.OptionValue != "" {
				line += " value " + cmd.OptionValue
			}
			out <- line
		case CmdGo:
			out <- goLine(cmd.Go)
		case CmdStop:
			out <- "stop"
		case CmdQuit:
			out <- "quit"
			close(out)
			return
		}
	}
}

func goLine(p GoParams) string {
	switch {
	case p.Infinite:
		return "go infinite"
	case p.Depth > 0:
		return fmt.Sprintf("go depth %d", p.Depth)
	case p.MoveTimeMs > 0:
		return fmt.Sprintf("go movetime %d", p.MoveTimeMs)
	default:
		return "go"
	}
}

func (d *Driver) stdinWriter(lines <-chan string) {
	for line := range lines {
		d.events <- Event{Kind: EvtRawMessage, Direction: DirOut, Message: line}
		if _, err := d.stdin.Write([]byte(line + "\n")); err != nil {
			d.events <- Event{Kind: EvtError, Err: fmt.Sprintf("write: %v", err)}
			return
		}
	}
	d.stdin.Close()
}

func (d *Driver) stdoutReader(stdout io.Reader, writeLines chan<- string) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		d.events <- Event{Kind: EvtRawMessage, Direction: DirIn, Message: line}

		switch {
		case line == "uciok" || line == "readyok":
			d.events <- Event{Kind: EvtReady}
		case strings.HasPrefix(line, "bestmove"):
			d.events <- parseBestMove(line)
		case strings.HasPrefix(line, "info") && strings.Contains(line, "score"):
			d.events <- Event{Kind: EvtInfo, Info: parseInfo(line)}
		}
	}
	if err := scanner.Err(); err != nil {
		d.events <- Event{Kind: EvtError, Err: fmt.Sprintf("read: %v", err)}
	} else {
		d.events <- Event{Kind: EvtError, Err: "engine stdout closed (EOF)"}
	}
	close(d.events)
}

func parseBestMove(line string) Event {
	parts := strings.Fields(line)
	ev := Event{Kind: EvtBestMove}
	if len(parts) >= 2 && parts[1] != "(none)" {
		if mv, err := chess.ParseUCIMove(parts[1]); err == nil {
			ev.BestMove = &mv
		}
	}
	if len(parts) >= 4 && parts[2] == "ponder" && parts[3] != "(none)" {
		if mv, err := chess.ParseUCIMove(parts[3]); err == nil {
			ev.PonderMove = &mv
		}
	}
	return ev
}

func parseInfo(line string) EngineInfo {
	var info EngineInfo
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if v, ok := atoiAt(parts, i+1); ok {
				info.Depth = &v
			}
		case "seldepth":
			if v, ok := atoiAt(parts, i+1); ok {
				info.SelDepth = &v
			}
		case "time":
			if v, ok := atoiAt(parts, i+1); ok {
				v64 := int64(v)
				info.TimeMs = &v64
			}
		case "nodes":
			if v, ok := atoiAt(parts, i+1); ok {
				v64 := int64(v)
				info.Nodes = &v64
			}
		case "nps":
			if v, ok := atoiAt(parts, i+1); ok {
				v64 := int64(v)
				info.NPS = &v64
			}
		case "multipv":
			if v, ok := atoiAt(parts, i+1); ok {
				info.MultiPV = &v
			}
		case "hashfull":
			if v, ok := atoiAt(parts, i+1); ok {
				info.HashFull = &v
			}
		case "currmove":
			if i+1 < len(parts) {
				info.CurrMove = parts[i+1]
			}
		case "score":
			if i+2 < len(parts) {
				switch parts[i+1] {
				case "cp":
					if v, err := strconv.Atoi(parts[i+2]); err == nil {
						s := chess.Cp(v)
						info.Score = &s
					}
				case "mate":
					if v, err := strconv.Atoi(parts[i+2]); err == nil {
						s := chess.Mate(v)
						info.Score = &s
					}
				}
			}
		case "pv":
			info.PV = append([]string{}, parts[i+1:]...)
			return info
		}
	}
	return info
}

func atoiAt(parts []string, i int) (int, bool) {
	if i >= len(parts) {
		return 0, false
	}
	v, err := strconv.Atoi(parts[i])
	return v, err == nil
}
