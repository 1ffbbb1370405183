package api

import (
	"fmt"
	"runtime"
	"time"
)

// runtimeStats is a minimal process snapshot for the /stats endpoint.
func runtimeStats(started time.Time) map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"alloc_mb":       fmt.Sprintf("%.1f", float64(m.Alloc)/(1<<20)),
		"uptime_seconds": int(time.Since(started).Seconds()),
	}
}
