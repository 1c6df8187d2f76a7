package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WaitForCondition waits until the condition function returns true or times out
func WaitForCondition(fn func() bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	interval := 10 * time.Millisecond
	if timeout < 100*time.Millisecond {
		interval = time.Millisecond
	}

	for time.Now().Before(deadline) {
		if fn() {
			return nil
		}
		time.Sleep(interval)
	}

	return fmt.Errorf("condition not met within %v timeout", timeout)
}

// WriteDatasets writes every dataset into dir and returns dir
func WriteDatasets(dir string, datasets map[string][]byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	for name, data := range datasets {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// TempFileWithName creates a temporary file with a specific name and content
func TempFileWithName(name, content string) (string, func()) {
	dir, err := os.MkdirTemp("", "contextmap-test-*")
	if err != nil {
		return "", func() {}
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		os.RemoveAll(dir)
		return "", func() {}
	}

	return path, func() {
		os.RemoveAll(dir)
	}
}

// MockClock is a manually advanced clock for fade timelines
type MockClock struct {
	now time.Time
}

// NewMockClock starts a clock at start
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the clock's time
func (m *MockClock) Now() time.Time {
	return m.now
}

// Advance moves the clock forward
func (m *MockClock) Advance(d time.Duration) time.Time {
	m.now = m.now.Add(d)
	return m.now
}
