package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// Runner launches the external physics/render engine on a scene plan.
// The argument list is Command, then Script when set, then the plan path
// and the base directory.
type Runner struct {
	Command string
	Script  string
	Dir     string
}

func (r Runner) Args(planPath, base string) ([]string, error) {
	args, err := shellwords.Parse(r.Command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command %q: %w", r.Command, err)
	}
	if len(args) == 0 {
		return nil, errors.New("engine command is empty")
	}
	if r.Script != "" {
		args = append(args, r.Script)
	}
	return append(args, planPath, base), nil
}

// Run blocks until the engine exits, relaying its output to the log line
// by line.
func (r Runner) Run(ctx context.Context, planPath, base string) error {
	args, err := r.Args(planPath, base)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	log.Printf("starting engine: %v", args)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go relay(&wg, "engine", stdout)
	go relay(&wg, "engine stderr", stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("engine exited with status %d: %w", exitErr.ExitCode(), err)
		}
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

func relay(wg *sync.WaitGroup, prefix string, r io.Reader) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		log.Printf("%s: %s", prefix, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Printf("%s: relay stopped: %v", prefix, err)
	}
	// keep the pipe drained so the engine never blocks on a full buffer
	_, _ = io.Copy(io.Discard, r)
}
