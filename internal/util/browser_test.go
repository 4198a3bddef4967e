package util

import (
	"net"
	"testing"
)

func TestFindAvailablePort_SkipsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	busy := ln.Addr().(*net.TCPAddr).Port
	if PortAvailable(busy) {
		t.Fatalf("port %d should be busy", busy)
	}

	port, err := FindAvailablePort(busy, 20)
	if err != nil {
		t.Fatalf("find port: %v", err)
	}
	if port == busy {
		t.Fatalf("returned busy port %d", port)
	}
}

func TestFindAvailablePort_NoAttempts(t *testing.T) {
	if _, err := FindAvailablePort(20262, 0); err == nil {
		t.Fatalf("expected error with zero attempts")
	}
}

func TestBrowserCommands(t *testing.T) {
	const url = "http://localhost:20262"
	tests := []struct {
		goos  string
		first string
		n     int
	}{
		{"windows", "rundll32", 2},
		{"darwin", "open", 1},
		{"linux", "xdg-open", 5},
	}
	for _, tt := range tests {
		cmds := browserCommands(tt.goos, url)
		if len(cmds) != tt.n {
			t.Fatalf("%s: got %d commands, want %d", tt.goos, len(cmds), tt.n)
		}
		if cmds[0][0] != tt.first {
			t.Fatalf("%s: first command %q, want %q", tt.goos, cmds[0][0], tt.first)
		}
		for _, argv := range cmds {
			if argv[len(argv)-1] != url {
				t.Fatalf("%s: %v does not end with url", tt.goos, argv)
			}
		}
	}
}
