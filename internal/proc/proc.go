// Package proc finds running processes by executable name, records the
// watcher of each workspace in a pid file and signals it.
package proc

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"
)

// ErrNoProcesses is returned when there is nothing to signal.
var ErrNoProcesses = errors.New("no running processes found")

// Replaced in tests.
var (
	processes   = ps.Processes
	findProcess = ps.FindProcess
)

// FindByName returns the pids of all processes with the given executable
// name, excluding the calling process.
func FindByName(name string) ([]int, error) {
	list, err := processes()
	if err != nil {
		return nil, fmt.Errorf("failed to get process list: %w", err)
	}

	self := os.Getpid()
	var pids []int
	for _, p := range list {
		if p.Executable() == name && p.Pid() != self {
			pids = append(pids, p.Pid())
		}
	}
	return pids, nil
}

// Running reports whether any process other than this one has the given name.
func Running(name string) (bool, error) {
	pids, err := FindByName(name)
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

// SelfName returns the executable name the process table reports for the
// calling process.
func SelfName() (string, error) {
	p, err := findProcess(os.Getpid())
	if err != nil {
		return "", fmt.Errorf("failed to look up own process: %w", err)
	}
	if p == nil {
		return "", fmt.Errorf("own process (PID %d) not in process table", os.Getpid())
	}
	return p.Executable(), nil
}

// RefreshWatcher signals the watcher recorded in pf to re-evaluate its branch
// and returns its pid. Only a live process named name is signalled.
func RefreshWatcher(pf *PIDFile, name string) (int, error) {
	pid, err := pf.Alive(name)
	if err != nil {
		return 0, err
	}
	if err := SignalRefresh([]int{pid}); err != nil {
		return 0, err
	}
	return pid, nil
}
