package domain

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// RunningProcess is the live-process handle for a started bot. The handle
// is exclusively owned by the process table entry and must be reaped on
// every removal path.
type RunningProcess struct {
	BotID     string
	RunID     string
	PID       int
	LogPath   string
	StartedAt time.Time

	cmd    *exec.Cmd
	exited chan struct{}
	werr   error
}

// NewRunningProcess wraps an already-started command and begins reaping it
// in the background, so the child never lingers as a zombie regardless of
// how it exits.
func NewRunningProcess(botID, runID string, cmd *exec.Cmd, logPath string) *RunningProcess {
	p := &RunningProcess{
		BotID:     botID,
		RunID:     runID,
		PID:       cmd.Process.Pid,
		LogPath:   logPath,
		StartedAt: time.Now(),
		cmd:       cmd,
		exited:    make(chan struct{}),
	}
	go func() {
		p.werr = cmd.Wait()
		close(p.exited)
	}()
	return p
}

// ExitErr returns the error recorded when the child was reaped, nil for
// a clean exit. Only meaningful once Exited reports true.
func (p *RunningProcess) ExitErr() error {
	if !p.Exited() {
		return nil
	}
	return p.werr
}

// Exited reports whether the child has exited and been reaped.
func (p *RunningProcess) Exited() bool {
	if p.exited == nil {
		return false
	}
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// WaitExit blocks until the child exits or the timeout elapses, returning
// true if it exited in time.
func (p *RunningProcess) WaitExit(timeout time.Duration) bool {
	if p.exited == nil {
		return false
	}
	select {
	case <-p.exited:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Terminate sends SIGTERM to the child.
func (p *RunningProcess) Terminate() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return errors.New("no process handle")
	}
	err := p.cmd.Process.Signal(syscall.SIGTERM)
	if err != nil && errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Kill forcefully terminates the child.
func (p *RunningProcess) Kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return errors.New("no process handle")
	}
	err := p.cmd.Process.Kill()
	if err != nil && errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
