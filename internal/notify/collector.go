package notify

import "sync"

// Collector keeps every message it receives, for callers that report them
// later (HTTP responses, tests).
type Collector struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Warn(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, message)
}

func (c *Collector) Error(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, message)
}

// Warnings returns a copy of the collected warnings, never nil.
func (c *Collector) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.warnings...)
}

// Errors returns a copy of the collected errors, never nil.
func (c *Collector) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.errors...)
}
