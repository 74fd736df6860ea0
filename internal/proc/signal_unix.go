//go:build unix

package proc

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// RefreshSignal is the signal a watcher treats as a refresh request.
const RefreshSignal = syscall.SIGHUP

// SignalRefresh sends RefreshSignal to each pid.
func SignalRefresh(pids []int) error {
	for _, pid := range pids {
		if err := syscall.Kill(pid, RefreshSignal); err != nil {
			return fmt.Errorf("failed to send refresh signal (PID %d): %w", pid, err)
		}
	}
	return nil
}

// NotifyRefresh relays refresh requests to c.
func NotifyRefresh(c chan<- os.Signal) {
	signal.Notify(c, RefreshSignal)
}
