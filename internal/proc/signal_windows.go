//go:build windows

package proc

import (
	"errors"
	"os"
)

// SignalRefresh is not supported on Windows.
func SignalRefresh([]int) error {
	return errors.New("signalling a running watcher is not supported on Windows - restart it instead")
}

// NotifyRefresh is a no-op on Windows.
func NotifyRefresh(chan<- os.Signal) {}
