package transcoder

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"media-gateway/internal/logging"
	"media-gateway/internal/metrics"
)

// Process is a handle to a running ffmpeg invocation.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser

	done    chan struct{}
	waitErr error

	termOnce sync.Once
	grace    time.Duration
}

// Start launches ffmpeg with the given arguments. When pipeOutput is
// true the muxed output is expected on stdout ("pipe:1" target) and
// Output returns the read side; otherwise the process writes to
// whatever file path its arguments name.
func (t *Transcoder) Start(args []string, pipeOutput bool) (*Process, error) {
	cmd := exec.Command(t.ffmpegPath, args...)

	p := &Process{
		cmd:   cmd,
		done:  make(chan struct{}),
		grace: t.grace,
	}

	var pw *os.File
	if pipeOutput {
		// A plain os.Pipe instead of cmd.StdoutPipe: Wait must not
		// close the read side while a response copy is still draining.
		pr, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create output pipe: %w", err)
		}
		cmd.Stdout = w
		p.stdout = pr
		pw = w
	}

	if err := cmd.Start(); err != nil {
		if pw != nil {
			pw.Close()
			p.stdout.Close()
		}
		return nil, fmt.Errorf("failed to start %s: %w", t.ffmpegPath, err)
	}

	// The parent's copy of the write end must be closed so the reader
	// sees EOF when the child exits.
	if pw != nil {
		pw.Close()
	}

	metrics.ProcessesActive.Inc()
	t.track(p)

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
		metrics.ProcessesActive.Dec()
		t.untrack(p)
	}()

	return p, nil
}

// Output returns the read side of the process output pipe. It is nil
// for processes started with a file output target.
func (p *Process) Output() io.ReadCloser {
	return p.stdout
}

// Done returns a channel closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns its exit error, if
// any. Unlike exec.Cmd.Wait it is safe to call from multiple
// goroutines.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

// Terminate asks the process to exit gracefully and force-kills it if
// it has not exited within the grace window. Calling Terminate more
// than once, or on an already-exited process, is a no-op. A nil
// receiver is also a no-op so callers can terminate "whatever process
// is associated" without an existence check.
func (p *Process) Terminate() {
	if p == nil {
		return
	}

	p.termOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}

		if p.cmd.Process == nil {
			return
		}
		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			// Process already reaped between the done check and here.
			return
		}

		go func() {
			select {
			case <-p.done:
			case <-time.After(p.grace):
				metrics.ProcessTerminationsForced.Inc()
				logging.Warn("process did not exit within %s, killing", p.grace)
				_ = p.cmd.Process.Kill()
			}
		}()
	})
}
