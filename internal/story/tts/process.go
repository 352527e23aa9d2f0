package tts

import (
	"os/exec"
	"sync"
)

// startProcess runs cmd in the background and reports its exit through onEnd.
// The returned cancel kills the process and suppresses onEnd.
func startProcess(cmd *exec.Cmd, onEnd func(error)) (func(), error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		canceled bool
	)
	go func() {
		err := cmd.Wait()
		mu.Lock()
		done := canceled
		mu.Unlock()
		if !done {
			onEnd(err)
		}
	}()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if canceled {
			return
		}
		canceled = true
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}, nil
}
