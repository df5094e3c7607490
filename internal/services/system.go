package services

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// HostMetrics is the host load shown in the main menu footer.
type HostMetrics struct {
	CPUPercent float64
	MemTotal   uint64
	MemUsed    uint64
}

// MemPercent is the used share of memory.
func (m HostMetrics) MemPercent() float64 {
	if m.MemTotal == 0 {
		return 0
	}
	return float64(m.MemUsed) / float64(m.MemTotal) * 100
}

// Footer renders the status line of the main menu.
func (m HostMetrics) Footer() string {
	return fmt.Sprintf(" CPU: %.1f%% | RAM: %s / %s (%.1f%%) | [Q]uit | [Enter] Select ",
		m.CPUPercent, humanize.IBytes(m.MemUsed), humanize.IBytes(m.MemTotal), m.MemPercent())
}

// SystemMetrics samples load and memory from a procfs mount.
type SystemMetrics struct {
	procDir string
	ttl     time.Duration
	last    HostMetrics
	at      time.Time
}

// NewSystemMetrics reads from procDir, normally /proc.
func NewSystemMetrics(procDir string) *SystemMetrics {
	return &SystemMetrics{procDir: procDir, ttl: time.Second}
}

// Sample returns fresh metrics, reusing the previous sample for one second.
// Unreadable files leave their figures at zero.
func (m *SystemMetrics) Sample() HostMetrics {
	if !m.at.IsZero() && time.Since(m.at) < m.ttl {
		return m.last
	}
	var h HostMetrics
	if load, err := m.loadAverage(); err == nil {
		h.CPUPercent = CPUPercent(load, m.cores())
	}
	h.MemTotal, h.MemUsed, _ = m.memory()
	m.last, m.at = h, time.Now()
	return h
}

// CPUPercent converts a one minute load average to a percentage of cores,
// capped at 100.
func CPUPercent(load float64, cores int) float64 {
	if cores < 1 {
		cores = 1
	}
	pct := load / float64(cores) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func (m *SystemMetrics) loadAverage() (float64, error) {
	data, err := os.ReadFile(filepath.Join(m.procDir, "loadavg"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty loadavg")
	}
	return strconv.ParseFloat(fields[0], 64)
}

func (m *SystemMetrics) cores() int {
	data, err := os.ReadFile(filepath.Join(m.procDir, "cpuinfo"))
	if err != nil {
		return 1
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "processor") {
			n++
		}
	}
	return max(n, 1)
}

// memory returns total and used bytes, where used excludes reclaimable
// memory the way free(1) reports it.
func (m *SystemMetrics) memory() (total, used uint64, err error) {
	f, err := os.Open(filepath.Join(m.procDir, "meminfo"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	values := map[string]uint64{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		values[key] = kb * 1024
	}
	total = values["MemTotal"]
	avail, ok := values["MemAvailable"]
	if !ok {
		avail = values["MemFree"] + values["Buffers"] + values["Cached"]
	}
	if avail > total {
		avail = total
	}
	return total, total - avail, sc.Err()
}
