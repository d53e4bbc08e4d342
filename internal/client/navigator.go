package client

import (
	"strings"
	"sync"
)

// LoginPath is where a rejected session is sent.
const LoginPath = "/auth/login"

// Navigator is the host's location: a browser window, a CLI prompt, a test.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// MemoryNavigator records navigation in memory.
type MemoryNavigator struct {
	mu      sync.Mutex
	path    string
	history []string
	onMove  func(path string)
}

// NewMemoryNavigator starts at path. onMove may be nil.
func NewMemoryNavigator(path string, onMove func(string)) *MemoryNavigator {
	return &MemoryNavigator{path: path, onMove: onMove}
}

func (n *MemoryNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *MemoryNavigator) Navigate(path string) {
	n.mu.Lock()
	n.path = path
	n.history = append(n.history, path)
	onMove := n.onMove
	n.mu.Unlock()
	if onMove != nil {
		onMove(path)
	}
}

// History returns every navigation in order.
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

// onAuthPath reports whether path is one of the login screens.
func onAuthPath(path string) bool {
	return path == "/auth" || strings.HasPrefix(path, "/auth/")
}
