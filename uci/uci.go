// Package uci talks to an external chess engine process over the
// line-oriented UCI protocol: commands go down stdin, replies are pumped
// off stdout and matched by pattern. One Client owns one process.
package uci

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrEngineNotFound reports that the configured executable could not be
// located.
var ErrEngineNotFound = errors.New("uci: engine executable not found")

// ErrReadTimeout reports that the engine did not produce an awaited reply
// in time.
var ErrReadTimeout = errors.New("uci: read i/o timeout")

// Config describes an engine process and the options negotiated with it
// on startup. SkillLevel is a pointer so the engine default survives when
// the field is absent from a YAML file.
type Config struct {
	Name string   `yaml:"name"`
	Cmd  string   `yaml:"cmd"`
	Dir  string   `yaml:"dir"`
	Args []string `yaml:"args"`

	SkillLevel *int `yaml:"skill-level"` // clamped to 0-20
	Threads    int  `yaml:"threads"`
	Hash       int  `yaml:"hash"` // MB

	Options map[string]string `yaml:"options"`
}

// Client is a handle on one running engine process. Exactly one request
// may be in flight; the owning searcher serializes access.
type Client struct {
	name   string
	cmd    *exec.Cmd
	writer *bufio.Writer
	lines  chan string
	done   chan struct{} // closed by Close; releases the pump
	closed sync.Once

	readErr error // set by the pump goroutine before closing lines
}

// NewClient locates and launches the engine, performs the uci handshake
// and negotiates the configured options. The process is released again by
// Close on every exit path, including handshake failure.
func NewClient(cfg Config) (*Client, error) {
	path, err := exec.LookPath(cfg.Cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotFound, cfg.Cmd)
	}

	process := exec.Command(path, cfg.Args...)
	process.Dir = cfg.Dir
	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: pipe stdin: %w", err)
	}
	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: pipe stdout: %w", err)
	}

	client := newClient(cfg.Name, stdin, stdout)
	client.cmd = process
	if err := process.Start(); err != nil {
		return nil, fmt.Errorf("uci: start %q: %w", cfg.Cmd, err)
	}

	if err := client.handshake(cfg); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// newClient wires a Client onto arbitrary transport streams. Production
// goes through NewClient; tests drive the protocol over in-memory pipes.
func newClient(name string, w io.Writer, r io.Reader) *Client {
	client := &Client{
		name:   name,
		writer: bufio.NewWriter(w),
		lines:  make(chan string),
		done:   make(chan struct{}),
	}
	go client.pump(bufio.NewReader(r))
	return client
}

// pump forwards trimmed engine output lines into the lines channel until
// the stream ends. Once the client is closed nobody reads the channel
// anymore; output the dying engine still emits is discarded so the pump
// cannot block on it.
func (c *Client) pump(reader *bufio.Reader) {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			c.readErr = err
			close(c.lines)
			return
		}
		line = strings.Trim(line, " \n\t\r")
		log.Debug().Str("engine", c.name).Msgf("> %s", line)
		select {
		case c.lines <- line:
		case <-c.done:
		}
	}
}

func (c *Client) handshake(cfg Config) error {
	if err := c.Initialize(); err != nil {
		return err
	}
	if cfg.SkillLevel != nil {
		skill := *cfg.SkillLevel
		if skill < 0 {
			skill = 0
		}
		if skill > 20 {
			skill = 20
		}
		if err := c.SetOption("Skill Level", fmt.Sprint(skill)); err != nil {
			return err
		}
	}
	if cfg.Threads > 0 {
		if err := c.SetOption("Threads", fmt.Sprint(cfg.Threads)); err != nil {
			return err
		}
	}
	if cfg.Hash > 0 {
		if err := c.SetOption("Hash", fmt.Sprint(cfg.Hash)); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(cfg.Options))
	for name := range cfg.Options {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic negotiation order
	for _, name := range names {
		if err := c.SetOption(name, cfg.Options[name]); err != nil {
			return err
		}
	}
	return c.Synchronize()
}

// Name returns the configured engine name.
func (c *Client) Name() string { return c.name }

// Initialize runs the uci handshake.
func (c *Client) Initialize() error {
	if err := c.Write("uci"); err != nil {
		return err
	}
	_, err := c.Await("^uciok$", 5*time.Second)
	return err
}

// Synchronize blocks until the engine has finished whatever it is doing.
func (c *Client) Synchronize() error {
	if err := c.Write("isready"); err != nil {
		return err
	}
	_, err := c.Await("^readyok$", 5*time.Second)
	return err
}

// NewGame tells the engine to discard state kept from previous games.
func (c *Client) NewGame() error {
	if err := c.Write("ucinewgame"); err != nil {
		return err
	}
	return c.Synchronize()
}

// SetOption negotiates one engine option.
func (c *Client) SetOption(name, value string) error {
	return c.Write("setoption name %s value %s", name, value)
}

// Write sends one command line to the engine.
func (c *Client) Write(format string, a ...any) error {
	log.Debug().Str("engine", c.name).Msgf("< "+format, a...)
	if _, err := fmt.Fprintf(c.writer, format+"\n", a...); err != nil {
		return fmt.Errorf("uci: write: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("uci: write: %w", err)
	}
	return nil
}

// Await reads engine lines until one matches the pattern, discarding
// everything before it. It fails with ErrReadTimeout when the timeout
// elapses first, or with the read error if the process died.
func (c *Client) Await(pattern string, timeout time.Duration) (string, error) {
	line, _, err := c.await(pattern, timeout, false)
	return line, err
}

// Collect is Await keeping the discarded lines: it returns every line
// seen before the match, in order, along with the matching line itself.
func (c *Client) Collect(pattern string, timeout time.Duration) ([]string, string, error) {
	line, before, err := c.await(pattern, timeout, true)
	return before, line, err
}

func (c *Client) await(pattern string, timeout time.Duration, keep bool) (string, []string, error) {
	regex := regexp.MustCompile(pattern)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var before []string
	for {
		select {
		case <-timer.C:
			return "", nil, ErrReadTimeout

		case line, ok := <-c.lines:
			if !ok {
				if c.readErr != nil && c.readErr != io.EOF {
					return "", nil, fmt.Errorf("uci: engine stream closed: %w", c.readErr)
				}
				return "", nil, fmt.Errorf("uci: engine stream closed")
			}
			if regex.MatchString(line) {
				return line, before, nil
			}
			if keep {
				before = append(before, line)
			}
		}
	}
}

// Close asks the engine to quit and then kills the process. Safe to call
// more than once and on a client whose handshake failed.
func (c *Client) Close() error {
	c.closed.Do(func() { close(c.done) })
	_ = c.Write("quit")

	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(time.Second):
		return c.cmd.Process.Kill()
	}
}
