package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/AmirTlinov/compas/internal/contract"
)

// cpuProfiler owns the CPU profile file between start and stop.
type cpuProfiler struct {
	cfg     contract.ProfileConfig
	cpuFile *os.File
}

// profiler is the process-wide profiler; it is idle unless --profile is set.
var profiler = &cpuProfiler{}

// startProfiling begins CPU profiling when prefix is set. A second call is a no-op.
func startProfiling(prefix string) error {
	if profiler.cpuFile != nil {
		return nil
	}
	if err := contract.ProcessProfilingConfig(&profiler.cfg, prefix); err != nil {
		return err
	}
	if !profiler.cfg.Enabled {
		return nil
	}

	cpuPath := profiler.cfg.Prefix + ".cpu.prof"
	cpuFile, err := os.Create(cpuPath)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		_ = cpuFile.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	profiler.cpuFile = cpuFile

	// stdout carries the gate document.
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s, Memory profile: %s.mem.prof\n", cpuPath, profiler.cfg.Prefix)
	return err
}

// stop ends CPU profiling and writes the heap profile.
func (p *cpuProfiler) stop() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	closeErr := p.cpuFile.Close()
	p.cpuFile = nil

	memFile, err := os.Create(p.cfg.Prefix + ".mem.prof")
	if err != nil {
		return errors.Join(closeErr, fmt.Errorf("could not create memory profile: %w", err))
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return errors.Join(closeErr, fmt.Errorf("could not write memory profile: %w", err))
	}
	if closeErr != nil {
		return fmt.Errorf("could not close CPU profile: %w", closeErr)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", p.cfg.Prefix)
	return err
}
