package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alnah/go-docxtpl/internal/config"
)

// versionTimeout bounds soffice --version, which starts a full office process.
const versionTimeout = 30 * time.Second

// Seams for tests.
var (
	lookPath       = exec.LookPath
	sofficeVersion = func(ctx context.Context, path string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, versionTimeout)
		defer cancel()
		out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- path comes from config or PATH lookup
		return strings.TrimSpace(string(out)), err
	}
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Soffice  sofficeInfo `json:"soffice"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// sofficeInfo holds LibreOffice detection results.
type sofficeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool   `json:"temp_writable"`
	AssetsDir    string `json:"assets_dir"`
	AssetsFound  bool   `json:"assets_found"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	cfg := env.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	settings := *cfg
	getenv := env.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	applyEnvConfig(loadEnvConfig(getenv), &settings)

	result := runDoctor(ctx, &settings, getenv)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, getenv func(string) string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkSoffice(ctx, result, cfg.Convert.Binary)
	checkEnvironment(result, getenv)
	checkSystem(result, cfg.Assets.BasePath)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkSoffice locates soffice and reads its version.
func checkSoffice(ctx context.Context, result *doctorResult, binary string) {
	if binary == "" {
		binary = config.DefaultBinary
	}
	path, err := lookPath(binary)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("soffice not found (%s). Install LibreOffice or set DOCXTPL_SOFFICE", binary))
		return
	}

	result.Soffice.Found = true
	result.Soffice.Path = path

	version, err := sofficeVersion(ctx, path)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get soffice version: %v", err))
		return
	}
	result.Soffice.Version = version
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("DOCXTPL_CONTAINER") == "1" {
		return true, "DOCXTPL_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory and the asset directory.
// Conversions need the former; only serve needs the latter.
func checkSystem(result *doctorResult, assetsDir string) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "docxtpl-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = f.Close()
		_ = os.Remove(f.Name())
		result.System.TempWritable = true
	}

	if abs, err := filepath.Abs(assetsDir); err == nil {
		assetsDir = abs
	}
	result.System.AssetsDir = assetsDir
	if info, err := os.Stat(assetsDir); err == nil && info.IsDir() {
		result.System.AssetsFound = true
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Asset directory not found: %s (needed by serve)", assetsDir))
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "docxtpl doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "LibreOffice")
	if r.Soffice.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Soffice.Path)
		if r.Soffice.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Soffice.Version)
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.AssetsFound {
		fmt.Fprintf(w, "  [OK] Assets: %s\n", r.System.AssetsDir)
	} else {
		fmt.Fprintf(w, "  [WARN] Assets: %s missing\n", r.System.AssetsDir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to render")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
