package neural

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/shrek-bot/internal/worker"
)

const (
	commandStopTimeout = 5 * time.Second
	maxReplySize       = 16 << 20
)

var ErrWorkerExited = errors.New("worker process exited")

// Command describes a worker process. The process talks line-delimited JSON
// over stdin and stdout: it prints {"ready":true} once its model is loaded,
// then answers every {"prefix":...,"length":...} request with {"text":...}
// (the continuation only) or {"error":...}. Stdout lines that are not JSON
// objects are ignored.
type Command struct {
	Path string
	Args []string
	// Env is appended to the bot's environment.
	Env []string
}

type commandRequest struct {
	Prefix string `json:"prefix"`
	Length int    `json:"length"`
}

type commandReply struct {
	Ready bool   `json:"ready,omitempty"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// CommandLoader starts one worker process per backend. Retiring the backend
// ends the process, which is what gives the memory back.
func CommandLoader(c Command) worker.Loader {
	return func(ctx context.Context) (worker.Backend, error) {
		cmd := exec.Command(c.Path, c.Args...)
		cmd.Env = append(os.Environ(), c.Env...)

		stderr := log.StandardLogger().WriterLevel(log.DebugLevel)
		cmd.Stderr = stderr

		stdin, err := cmd.StdinPipe()
		if err != nil {
			_ = stderr.Close()
			return nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			_ = stderr.Close()
			return nil, err
		}
		if err := cmd.Start(); err != nil {
			_ = stderr.Close()
			return nil, fmt.Errorf("start %s: %w", c.Path, err)
		}

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxReplySize)
		b := &commandBackend{cmd: cmd, stdin: stdin, stdout: scanner, stderr: stderr}

		ready := make(chan error, 1)
		go func() {
			reply, err := b.read()
			if err == nil && !reply.Ready {
				err = fmt.Errorf("unexpected handshake %+v", reply)
			}
			ready <- err
		}()

		select {
		case err = <-ready:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("load %s: %w", c.Path, err)
		}
		log.WithField("pid", cmd.Process.Pid).Debugln("worker process ready")
		return b, nil
	}
}

type commandBackend struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	stderr io.Closer
}

func (b *commandBackend) Generate(_ context.Context, prefix string, length int) (string, error) {
	req, err := json.Marshal(commandRequest{Prefix: prefix, Length: length})
	if err != nil {
		return "", err
	}
	if _, err := b.stdin.Write(append(req, '\n')); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWorkerExited, err)
	}

	reply, err := b.read()
	if err != nil {
		return "", err
	}
	if reply.Error != "" {
		return "", errors.New(reply.Error)
	}
	return prefix + reply.Text, nil
}

func (b *commandBackend) read() (commandReply, error) {
	for b.stdout.Scan() {
		line := bytes.TrimSpace(b.stdout.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var reply commandReply
		if err := json.Unmarshal(line, &reply); err != nil {
			return reply, fmt.Errorf("decode reply: %w", err)
		}
		return reply, nil
	}
	if err := b.stdout.Err(); err != nil {
		return commandReply{}, fmt.Errorf("%w: %v", ErrWorkerExited, err)
	}
	return commandReply{}, ErrWorkerExited
}

// Close asks the process to exit by closing its stdin and kills it if it
// does not comply in time.
func (b *commandBackend) Close() error {
	defer b.stderr.Close()
	_ = b.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()

	select {
	case err := <-done:
		return ignoreExit(err)
	case <-time.After(commandStopTimeout):
		_ = b.cmd.Process.Kill()
		return ignoreExit(<-done)
	}
}

func ignoreExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
