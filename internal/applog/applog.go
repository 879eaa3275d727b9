// Package applog is the relay's structured logging sink, adapted from the
// teacher's internal/log package. Access logging (a per-request line) is
// explicitly out of scope for this relay (spec.md §1); this package is
// only ever used for startup, configuration, and storage/upstream error
// conditions.
package applog

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Format selects how Emit renders a line once it has decided to print.
type Format int

const (
	// FormatCombined renders "LEVEL component: message key=value ...".
	FormatCombined Format = iota
	// FormatJSON renders one JSON object per line.
	FormatJSON
)

var (
	mu      sync.RWMutex
	enabled = true
	format  = FormatCombined
)

// Configure sets whether logging is active at all, and in which format,
// matching the [logging] section of Config (enabled, format).
func Configure(isEnabled bool, formatName string) error {
	var f Format
	switch strings.ToLower(strings.TrimSpace(formatName)) {
	case "", "combined":
		f = FormatCombined
	case "json":
		f = FormatJSON
	default:
		return fmt.Errorf("applog: invalid log format %q", formatName)
	}
	mu.Lock()
	defer mu.Unlock()
	enabled = isEnabled
	format = f
	return nil
}

// Emit writes one log line for component ("config", "storage", "upstream",
// "server", ...) at the given level ("info", "error", "debug"), with
// optional structured fields. It is a no-op if logging is disabled.
func Emit(level, component, message string, fields map[string]any) {
	mu.RLock()
	isEnabled, f := enabled, format
	mu.RUnlock()
	if !isEnabled {
		return
	}

	switch f {
	case FormatJSON:
		entry := map[string]any{
			"ts":        time.Now().Format(time.RFC3339Nano),
			"level":     strings.ToUpper(level),
			"component": component,
			"message":   message,
		}
		for k, v := range fields {
			entry[k] = v
		}
		b, err := json.Marshal(entry)
		if err != nil {
			log.Printf("applog: marshal error: %v", err)
			return
		}
		log.Print(string(b))
	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %s: %s", strings.ToUpper(level), component, message)
		for k, v := range fields {
			fmt.Fprintf(&sb, " %s=%v", k, v)
		}
		log.Print(sb.String())
	}
}

// Info is a convenience wrapper over Emit at the "info" level.
func Info(component, message string, fields map[string]any) {
	Emit("info", component, message, fields)
}

// Error is a convenience wrapper over Emit at the "error" level.
func Error(component, message string, fields map[string]any) {
	Emit("error", component, message, fields)
}
