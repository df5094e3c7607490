package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeProc(t *testing.T, loadavg, cpuinfo, meminfo string) string {
	t.Helper()
	dir := t.TempDir()
	if loadavg != "" {
		writeFile(t, filepath.Join(dir, "loadavg"), loadavg)
	}
	if cpuinfo != "" {
		writeFile(t, filepath.Join(dir, "cpuinfo"), cpuinfo)
	}
	if meminfo != "" {
		writeFile(t, filepath.Join(dir, "meminfo"), meminfo)
	}
	return dir
}

func TestCPUPercent(t *testing.T) {
	assert.InDelta(t, 50.0, CPUPercent(2, 4), 0.001)
	assert.Equal(t, 100.0, CPUPercent(9, 4))
	assert.InDelta(t, 75.0, CPUPercent(0.75, 0), 0.001)
}

func TestSampleReadsProc(t *testing.T) {
	dir := fakeProc(t,
		"1.00 0.80 0.50 2/345 6789\n",
		"processor\t: 0\nmodel name\t: x\n\nprocessor\t: 1\nmodel name\t: x\n",
		"MemTotal:        8388608 kB\nMemFree:          1048576 kB\nMemAvailable:     2097152 kB\n",
	)
	m := NewSystemMetrics(dir).Sample()

	assert.InDelta(t, 50.0, m.CPUPercent, 0.001)
	assert.Equal(t, uint64(8<<30), m.MemTotal)
	assert.Equal(t, uint64(6<<30), m.MemUsed)
	assert.InDelta(t, 75.0, m.MemPercent(), 0.001)
	assert.Equal(t, " CPU: 50.0% | RAM: 6.0 GiB / 8.0 GiB (75.0%) | [Q]uit | [Enter] Select ", m.Footer())
}

func TestSampleWithoutMemAvailable(t *testing.T) {
	dir := fakeProc(t, "0.10 0 0 1/1 1\n", "",
		"MemTotal: 1000 kB\nMemFree: 200 kB\nBuffers: 100 kB\nCached: 100 kB\n")
	m := NewSystemMetrics(dir).Sample()

	assert.InDelta(t, 10.0, m.CPUPercent, 0.001)
	assert.Equal(t, uint64(600*1024), m.MemUsed)
}

func TestSampleMissingProc(t *testing.T) {
	m := NewSystemMetrics(t.TempDir()).Sample()
	assert.Zero(t, m.CPUPercent)
	assert.Zero(t, m.MemTotal)
	assert.Zero(t, m.MemPercent())
}
