package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/tidycode/magetui/internal/magento"
	"github.com/tidycode/magetui/internal/process"
)

// DeployStatus summarises the deployment state of the installation.
type DeployStatus struct {
	Mode           string
	StaticDeployed bool
	DICompiled     bool
	Maintenance    bool
}

// Operation is one bin/magento command offered by the Deploy screen.
type Operation struct {
	ID          string
	Title       string
	Description string
	Args        []string
}

// Command renders the command line shown to the user.
func (o Operation) Command() string {
	return "bin/magento " + strings.Join(o.Args, " ")
}

var deployOperations = []Operation{
	{ID: "setup:upgrade", Title: "Run setup:upgrade", Description: "Update database schema and data", Args: []string{"setup:upgrade"}},
	{ID: "setup:di:compile", Title: "Compile DI", Description: "Generate DI configuration", Args: []string{"setup:di:compile"}},
	{ID: "setup:static-content:deploy", Title: "Deploy static content", Description: "Deploy static view files", Args: []string{"setup:static-content:deploy", "-f"}},
	{ID: "cache:flush", Title: "Flush cache", Description: "Flush all cache storage", Args: []string{"cache:flush"}},
	{ID: "indexer:reindex", Title: "Reindex all", Description: "Reindex all indexers", Args: []string{"indexer:reindex"}},
}

// DeployService runs deployment commands in the background.
type DeployService struct {
	*base
	monitor     *process.Monitor
	maintenance *MaintenanceService

	// wasBusy is the monitor state seen by the last poll.
	wasBusy atomic.Bool
}

// Mode reads MAGE_MODE from env.php.
func (s *DeployService) Mode(ctx context.Context) string {
	env, err := s.env(ctx)
	if err != nil {
		return "default"
	}
	return magento.Mode(env)
}

// Status inspects mode, generated code, static files and the maintenance flag.
func (s *DeployService) Status(ctx context.Context) DeployStatus {
	return DeployStatus{
		Mode:           s.Mode(ctx),
		StaticDeployed: dirHasEntries(s.mage.Path("pub", "static", "adminhtml")),
		DICompiled:     dirHasEntries(s.mage.Path("generated", "code")),
		Maintenance:    s.maintenance.IsEnabled(),
	}
}

func dirHasEntries(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// Operations lists the available commands.
func (s *DeployService) Operations() []Operation {
	return append([]Operation(nil), deployOperations...)
}

// Execute starts op in the background.
func (s *DeployService) Execute(ctx context.Context, op Operation) error {
	err := s.monitor.Start(ctx, op.Title, s.mage.Command(op.Args...))
	s.record(ctx, "deploy", "execute", op.ID, err)
	if err != nil {
		return fmt.Errorf("run %s: %w", op.ID, err)
	}
	s.wasBusy.Store(true)
	return nil
}

// IsExecuting polls the running operation. env.php is re-read once after
// an operation finishes since it may have changed the mode.
func (s *DeployService) IsExecuting() bool {
	busy := s.monitor.IsBusy()
	if s.wasBusy.Swap(busy) && !busy {
		s.cache.Delete("file:env.php")
	}
	return busy
}

// Current names the operation that is (or was last) running.
func (s *DeployService) Current() string { return s.monitor.Label() }

func (s *DeployService) Output() string { return s.monitor.Output() }

func (s *DeployService) ClearOutput() { s.monitor.Clear() }

// ToggleMaintenance flips maintenance mode from the Deploy screen.
func (s *DeployService) ToggleMaintenance(ctx context.Context) (bool, error) {
	return s.maintenance.Toggle(ctx)
}
