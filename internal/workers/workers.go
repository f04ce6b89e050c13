package workers

import (
	"math"
	"os"
	"runtime"
	"strconv"
)

// overrideEnv is the manual pool-size override for deployments where the
// GOMAXPROCS-derived default is wrong (shared hosts, slow NFS mounts).
const overrideEnv = "THUMBNAIL_WORKERS"

// Count sizes a worker pool from the CPUs actually available to the process.
// GOMAXPROCS tracks cgroup CPU limits (Go 1.19+), so this stays honest inside
// containers where runtime.NumCPU() lies.
//
// multiplier scales per workload: 1.0 CPU-bound, 2.0 I/O-bound, 1.5 mixed.
// limit caps the result; 0 means uncapped. The THUMBNAIL_WORKERS environment
// variable overrides the calculation entirely (still subject to limit).
func Count(multiplier float64, limit int) int {
	if n, ok := override(); ok {
		return capped(n, limit)
	}

	n := int(math.Round(float64(runtime.GOMAXPROCS(0)) * multiplier))
	if n < 1 {
		n = 1
	}
	return capped(n, limit)
}

func override() (int, bool) {
	raw := os.Getenv(overrideEnv)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work, one worker per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO sizes a pool for I/O-bound work, two workers per CPU.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed sizes a pool for mixed work, 1.5 workers per CPU. Thumbnail
// generation is the canonical mixed workload here: read the file, decode and
// resize, write the artifact.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
