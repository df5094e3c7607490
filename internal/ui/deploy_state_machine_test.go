package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/services"
)

func deployScreen() (*Context, *fakes, *DeployScreen) {
	c, f := newTestContext()
	f.deploy.mode = "developer"
	f.deploy.ops = []services.Operation{
		{ID: "upgrade", Title: "Run setup:upgrade", Description: "Apply schema and data patches"},
		{ID: "compile", Title: "Compile DI", Description: "Generate interceptors and factories"},
	}
	return c, f, NewDeployScreen()
}

func TestDeployStatusPanel(t *testing.T) {
	c, f, s := deployScreen()
	f.deploy.status = services.DeployStatus{DICompiled: true}

	out := plain(s.Render(120, 40, c))
	assert.Contains(t, out, "Mode: DEVELOPER")
	assert.Contains(t, out, "Static Content: Not Deployed")
	assert.Contains(t, out, "DI Compiled: Yes")
	assert.Contains(t, out, "Maintenance: Disabled")
	assert.Contains(t, out, "► Run setup:upgrade - Apply schema and data patches")
}

func TestDeployExecuteAndBusyGate(t *testing.T) {
	c, f, s := deployScreen()

	press(s, c, keyDown, keyEnter)
	assert.Equal(t, []string{"compile"}, f.deploy.executed)
	assert.True(t, s.NeedsAutoRefresh(c))

	press(s, c, keyEnter, input.Rune('m'))
	assert.Equal(t, []string{"compile"}, f.deploy.executed)
	assert.Zero(t, f.deploy.toggled)

	f.deploy.output = "Generated code and dependency injection configuration successfully."
	assert.Contains(t, plain(s.Render(120, 40, c)), "Execution in Progress: Compile DI")

	press(s, c, input.Rune('C'))
	assert.Empty(t, f.deploy.output)

	f.deploy.running = false
	press(s, c, input.Rune('m'))
	assert.Equal(t, 1, f.deploy.toggled)
	assert.Equal(t, "✓ Maintenance mode enabled", s.msg)
	assert.Equal(t, ScreenMain, press(s, c, input.Rune('q')))
}

func TestDeployNoOperations(t *testing.T) {
	c, f, s := deployScreen()
	f.deploy.ops = nil

	assert.Contains(t, plain(s.Render(120, 40, c)), "No operations available")
	press(s, c, keyEnter)
	assert.Empty(t, f.deploy.executed)
}
