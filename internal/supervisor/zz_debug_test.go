package supervisor

import (
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestZZDebugSignal(t *testing.T) {
	run := func(name string, setpgid, pipes bool) {
		cmd := exec.Command("sh", "-c", "sleep 30")
		if setpgid {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		}
		if pipes {
			cmd.StdoutPipe()
			cmd.StderrPipe()
		}
		if err := cmd.Start(); err != nil {
			t.Fatalf("%s start: %v", name, err)
		}
		time.Sleep(200 * time.Millisecond)
		err := cmd.Process.Signal(syscall.SIGTERM)
		t.Logf("%s: signal err=%v", name, err)
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case werr := <-done:
			t.Logf("%s: exited after SIGTERM: %v", name, werr)
		case <-time.After(2 * time.Second):
			t.Logf("%s: STILL RUNNING after SIGTERM", name)
			cmd.Process.Kill()
			<-done
		}
	}
	run("plain", false, false)
	run("setpgid", true, false)
	run("setpgid+pipes", true, true)
}
