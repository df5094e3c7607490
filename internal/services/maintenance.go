package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
)

const (
	maintenanceFlag = ".maintenance.flag"
	maintenanceIPs  = ".maintenance.ip"
)

// MaintenanceStatus is a snapshot of maintenance mode.
type MaintenanceStatus struct {
	Enabled   bool
	AllowedIP []string
	CurrentIP string
	FlagPath  string
	IPPath    string
}

// MaintenanceService manages var/.maintenance.flag and var/.maintenance.ip,
// the same files bin/magento maintenance:* writes.
type MaintenanceService struct {
	varDir string
	b      *base
	getenv func(string) string
}

// NewMaintenanceService returns a service over the Magento var directory.
func NewMaintenanceService(varDir string, b *base) *MaintenanceService {
	return &MaintenanceService{varDir: varDir, b: b, getenv: os.Getenv}
}

func (s *MaintenanceService) flagPath() string { return filepath.Join(s.varDir, maintenanceFlag) }
func (s *MaintenanceService) ipPath() string   { return filepath.Join(s.varDir, maintenanceIPs) }

// IsEnabled reports whether the flag file exists.
func (s *MaintenanceService) IsEnabled() bool {
	_, err := os.Stat(s.flagPath())
	return err == nil
}

// Status gathers the current state.
func (s *MaintenanceService) Status() MaintenanceStatus {
	ips, _ := s.AllowedIPs()
	return MaintenanceStatus{
		Enabled:   s.IsEnabled(),
		AllowedIP: ips,
		CurrentIP: s.CurrentIP(),
		FlagPath:  s.flagPath(),
		IPPath:    s.ipPath(),
	}
}

func (s *MaintenanceService) Enable(ctx context.Context) error {
	err := os.MkdirAll(s.varDir, 0o755)
	if err == nil {
		err = os.WriteFile(s.flagPath(), nil, 0o644)
	}
	s.recordAction(ctx, "enable", "", err)
	if err != nil {
		return fmt.Errorf("enable maintenance: %w", err)
	}
	return nil
}

func (s *MaintenanceService) Disable(ctx context.Context) error {
	err := os.Remove(s.flagPath())
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	s.recordAction(ctx, "disable", "", err)
	if err != nil {
		return fmt.Errorf("disable maintenance: %w", err)
	}
	return nil
}

// Toggle flips maintenance mode and returns the new state.
func (s *MaintenanceService) Toggle(ctx context.Context) (bool, error) {
	if s.IsEnabled() {
		return false, s.Disable(ctx)
	}
	return true, s.Enable(ctx)
}

// AllowedIPs reads the comma separated allow list.
func (s *MaintenanceService) AllowedIPs() ([]string, error) {
	data, err := os.ReadFile(s.ipPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read allowed ips: %w", err)
	}
	var ips []string
	for _, ip := range strings.Split(string(data), ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

func (s *MaintenanceService) writeIPs(ips []string) error {
	if len(ips) == 0 {
		err := os.Remove(s.ipPath())
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(s.varDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.ipPath(), []byte(strings.Join(ips, ",")), 0o644)
}

// ValidIP reports whether ip is a well formed IPv4 or IPv6 address.
func ValidIP(ip string) bool {
	return net.ParseIP(strings.TrimSpace(ip)) != nil
}

// AddIP appends ip to the allow list. Invalid and duplicate addresses are
// rejected.
func (s *MaintenanceService) AddIP(ctx context.Context, ip string) error {
	ip = strings.TrimSpace(ip)
	if !ValidIP(ip) {
		return fmt.Errorf("%q: %w", ip, ErrInvalidIP)
	}
	ips, err := s.AllowedIPs()
	if err != nil {
		return err
	}
	for _, existing := range ips {
		if existing == ip {
			return fmt.Errorf("%s is already allowed", ip)
		}
	}
	err = s.writeIPs(append(ips, ip))
	s.recordAction(ctx, "add_ip", ip, err)
	if err != nil {
		return fmt.Errorf("add ip: %w", err)
	}
	return nil
}

// RemoveIP deletes ip from the allow list.
func (s *MaintenanceService) RemoveIP(ctx context.Context, ip string) error {
	ips, err := s.AllowedIPs()
	if err != nil {
		return err
	}
	kept := ips[:0]
	found := false
	for _, existing := range ips {
		if existing == ip {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return fmt.Errorf("ip %s: %w", ip, ErrNotFound)
	}
	err = s.writeIPs(kept)
	s.recordAction(ctx, "remove_ip", ip, err)
	if err != nil {
		return fmt.Errorf("remove ip: %w", err)
	}
	return nil
}

// ClearIPs empties the allow list.
func (s *MaintenanceService) ClearIPs(ctx context.Context) error {
	err := s.writeIPs(nil)
	s.recordAction(ctx, "clear_ips", "", err)
	if err != nil {
		return fmt.Errorf("clear ips: %w", err)
	}
	return nil
}

// CurrentIP is the SSH client address of this session, "Unknown" when not
// connected over SSH.
func (s *MaintenanceService) CurrentIP() string {
	for _, key := range []string{"SSH_CLIENT", "SSH_CONNECTION"} {
		if v := strings.Fields(s.getenv(key)); len(v) > 0 {
			return v[0]
		}
	}
	return "Unknown"
}

func (s *MaintenanceService) recordAction(ctx context.Context, action, target string, err error) {
	if s.b != nil {
		s.b.record(ctx, "maintenance", action, target, err)
	}
}
