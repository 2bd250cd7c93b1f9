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

	"github.com/go-rod/rod/lib/launcher"

	mdnice "github.com/alnah/go-mdnice"
	"github.com/alnah/go-mdnice/internal/hints"
)

// remoteProbeTimeout bounds the remote endpoint check.
const remoteProbeTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Remote   remoteInfo `json:"remote"`
	Editor   editorInfo `json:"editor"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Checked bool   `json:"checked"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// remoteInfo holds the remote browser check.
type remoteInfo struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Reachable bool   `json:"reachable"`
}

// editorInfo lists the editor endpoints in the order they are tried.
type editorInfo struct {
	Endpoints []string `json:"endpoints"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor()

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
func runDoctor() *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
		Remote: remoteInfo{Endpoint: os.Getenv("MDNICE_REMOTE_URL")},
	}

	var custom []string
	if u := os.Getenv("MDNICE_EDITOR_URL"); u != "" {
		custom = append(custom, u)
	}
	result.Editor.Endpoints = mdnice.BuildEndpoints(custom...).URLs()

	if result.Remote.Endpoint != "" {
		checkRemote(result)
	} else {
		checkChrome(result)
	}
	checkEnvironment(result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	result.Chrome.Checked = true
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome, set ROD_BROWSER_BIN, or set MDNICE_REMOTE_URL")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser path from env or rod lookup
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkRemote resolves an http(s) DevTools endpoint. Websocket endpoints
// cannot be probed without attaching and are reported as is.
func checkRemote(result *doctorResult) {
	endpoint := result.Remote.Endpoint
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		result.Remote.Reachable = true
		result.Warnings = append(result.Warnings,
			"Remote websocket endpoint not probed; run a conversion to verify it")
		return
	}

	done := make(chan error, 1)
	go func() {
		_, err := launcher.ResolveURL(endpoint)
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), remoteProbeTimeout)
	defer cancel()
	select {
	case err := <-done:
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Remote browser unreachable: %v", err))
			return
		}
		result.Remote.Reachable = true
	case <-ctx.Done():
		result.Errors = append(result.Errors,
			fmt.Sprintf("Remote browser did not answer within %s", remoteProbeTimeout))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Only a local browser needs the sandbox disabled
	if result.Chrome.Checked && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("MDNICE_CONTAINER") == "1" {
		return true, "MDNICE_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	testFile := filepath.Join(os.TempDir(), "mdnice-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdnice doctor")
	fmt.Fprintln(w)

	if r.Chrome.Checked {
		fmt.Fprintln(w, "Chrome/Chromium")
		if r.Chrome.Found {
			fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
			if r.Chrome.Version != "" {
				fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
			}
			if r.Chrome.Sandbox {
				fmt.Fprintln(w, "  [OK] Sandbox: enabled")
			} else {
				fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
			}
		} else {
			fmt.Fprintln(w, "  [ERROR] Not found")
		}
	} else {
		fmt.Fprintln(w, "Remote browser")
		if r.Remote.Reachable {
			fmt.Fprintf(w, "  [OK] %s\n", r.Remote.Endpoint)
		} else {
			fmt.Fprintf(w, "  [ERROR] %s\n", r.Remote.Endpoint)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Editor endpoints")
	for i, ep := range r.Editor.Endpoints {
		fmt.Fprintf(w, "  %d. %s\n", i+1, ep)
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
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
