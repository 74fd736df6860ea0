//go:build unix

package proc

import (
	"os"
	"os/signal"
	"testing"
	"time"
)

func TestSignalRefreshSelf(t *testing.T) {
	c := make(chan os.Signal, 1)
	NotifyRefresh(c)
	defer signal.Stop(c)

	if err := SignalRefresh([]int{os.Getpid()}); err != nil {
		t.Fatalf("SignalRefresh() error = %v", err)
	}

	select {
	case sig := <-c:
		if sig != RefreshSignal {
			t.Errorf("received %v, want %v", sig, RefreshSignal)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("refresh signal not delivered")
	}
}

func TestRefreshWatcherSignalsRecordedPID(t *testing.T) {
	withFindProcess(t, fakeProcess{pid: os.Getpid(), name: "themetree"})
	pf := NewPIDFile(t.TempDir(), "/src/a")
	if err := pf.Write(); err != nil {
		t.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	NotifyRefresh(c)
	defer signal.Stop(c)

	pid, err := RefreshWatcher(pf, "themetree")
	if err != nil {
		t.Fatalf("RefreshWatcher() error = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("RefreshWatcher() = %d, want %d", pid, os.Getpid())
	}

	select {
	case <-c:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh signal not delivered")
	}
}
