// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/settlesmart/internal/config"
)

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	checkPassStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	checkWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	checkFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	fixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			PaddingLeft(2)
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the rendered marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// MarshalJSON encodes the status by name.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// doctorProbeTimeout bounds the reachability probe.
const doctorProbeTimeout = 5 * time.Second

func newDoctorCmd(a *app) *cobra.Command {
	var asJSON, offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and connectivity",
		Long: `Runs local checks on the configuration, the completion API key, the
export directory and the listen address, then probes the completion
service. The probe does not request a completion.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := a.runChecks(cmd.Context(), !offline)
			return reportChecks(cmd.OutOrStdout(), checks, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the network probe")
	return cmd
}

// runChecks runs every check in order. Checks after a failed config load
// use the built-in defaults.
func (a *app) runChecks(ctx context.Context, probe bool) []*HealthCheck {
	cfg, cfgCheck := a.checkConfig()
	checks := []*HealthCheck{
		cfgCheck,
		checkAPIKey(cfg),
		checkExportDir(cfg),
		checkListenAddr(cfg),
	}
	if probe {
		checks = append(checks, checkCompletionReachable(ctx, cfg, nil))
	}
	return checks
}

// reportChecks prints checks and returns an error if any failed.
func reportChecks(out io.Writer, checks []*HealthCheck, asJSON bool) error {
	passed, warned, failed := 0, 0, 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Checks  []*HealthCheck `json:"checks"`
			Healthy bool           `json:"healthy"`
		}{checks, failed == 0}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, TitleStyle.Render("settle doctor"))
		fmt.Fprintln(out)
		for _, check := range checks {
			fmt.Fprintln(out, check.Render())
		}
		fmt.Fprintln(out)

		summary := []string{fmt.Sprintf("%d passed", passed)}
		if warned > 0 {
			summary = append(summary, checkWarnStyle.Render(fmt.Sprintf("%d warning", warned)))
		}
		if failed > 0 {
			summary = append(summary, checkFailStyle.Render(fmt.Sprintf("%d failed", failed)))
		}
		fmt.Fprintln(out, DimStyle.Render(strings.Join(summary, ", ")))
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

func (a *app) checkConfig() (*config.Config, *HealthCheck) {
	check := &HealthCheck{Name: "config"}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = "Run: settle config init --force"
		fallback := config.Default()
		fallback.ApplyEnvOverrides()
		return fallback, check
	}

	check.Status = CheckPass
	check.Message = "Config valid"
	if a.configPath == "" {
		if path, err := config.ConfigPathTOML(); err == nil {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				check.Message = "Config valid (using defaults)"
			}
		}
	}
	return cfg, check
}

func checkAPIKey(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "api_key"}
	if !cfg.Completion.HasAPIKey() {
		check.Status = CheckFail
		check.Message = "Completion API key not configured"
		check.Fix = "Export OPENAI_API_KEY or set completion.api_key"
		return check
	}
	check.Status = CheckPass
	check.Message = "Completion API key configured"
	return check
}

func checkExportDir(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "export_dir"}
	dir := cfg.Export.Dir

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Export directory %s does not exist (created on first save)", dir)
		return check
	}

	probe, err := os.CreateTemp(dir, ".write_test-")
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Export directory not writable: %s", err)
		check.Fix = fmt.Sprintf("Check permissions on %s", dir)
		return check
	}
	probe.Close()
	os.Remove(probe.Name())

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Export directory %s writable", filepath.Clean(dir))
	return check
}

func checkListenAddr(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "listen_addr"}
	host, _, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Invalid server.addr %q: %s", cfg.Server.Addr, err)
		check.Fix = "Use host:port, e.g. 127.0.0.1:8080"
		return check
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("API will listen on all interfaces (%s)", cfg.Server.Addr)
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("API listen address %s", cfg.Server.Addr)
	return check
}

// checkCompletionReachable sends a HEAD request to the completion base URL.
// Any HTTP answer counts as reachable.
func checkCompletionReachable(ctx context.Context, cfg *config.Config, client *http.Client) *HealthCheck {
	check := &HealthCheck{Name: "completion_service"}
	if client == nil {
		client = &http.Client{Timeout: doctorProbeTimeout}
	}

	ctx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, cfg.Completion.BaseURL, nil)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Invalid completion.base_url: %s", err)
		return check
	}
	resp, err := client.Do(req)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Completion service unreachable: %s", err)
		check.Fix = "Check network access or completion.base_url"
		return check
	}
	resp.Body.Close()

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Completion service reachable (%s)", cfg.Completion.BaseURL)
	return check
}
