package procutil

import (
	"os"
	"syscall"
	"testing"
)

func TestAlive(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Fatal("own pid reported dead")
	}
	if Alive(-1) {
		t.Fatal("pid -1 reported alive")
	}
}

func TestZombie_OwnProcess(t *testing.T) {
	if Zombie(os.Getpid()) {
		t.Fatal("running process reported as zombie")
	}
}

func TestKillGroup_GoneGroupIsNoError(t *testing.T) {
	// A pid nothing could plausibly hold.
	if err := KillGroup(1<<22+12345, syscall.SIGTERM); err != nil {
		t.Fatalf("kill of absent group: %v", err)
	}
}
