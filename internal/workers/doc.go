/*
Package workers determines worker pool sizes in containerized environments.

runtime.NumCPU() reports the host's CPU count even when a cgroup limit caps
the process to fewer cores; GOMAXPROCS (Go 1.19+) respects the limit. The
helpers here size pools from GOMAXPROCS with a per-workload multiplier:

	// CPU-bound (image decoding/encoding)
	n := workers.ForCPU(8)

	// I/O-bound (file and database operations)
	n := workers.ForIO(16)

	// Mixed (thumbnail generation: read, process, write)
	n := workers.ForMixed(12)

All helpers honor the THUMBNAIL_WORKERS environment variable as a manual
override, which is useful when tuning a deployment without rebuilding.
*/
package workers
