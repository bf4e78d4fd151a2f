// Package integration provides helpers to start and stop the macrofx binary for integration tests.
package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	integrationPort = "18080"
	healthPath      = "/health"

	// IntegrationAPIKey is accepted by the started app in keystore mode.
	IntegrationAPIKey = "sk-integration-test"
)

// StartApp builds the binary, starts it in keystore mode against
// upstreamURL, and waits for /health. Returns baseURL (e.g.
// "http://127.0.0.1:18080") and a cleanup function that must be called to
// stop the process.
func StartApp(upstreamURL string) (baseURL string, cleanup func(), err error) {
	repoRoot, err := findRepoRoot()
	if err != nil {
		return "", nil, fmt.Errorf("find repo root: %w", err)
	}

	binaryName := "macrofx_integration_test"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(repoRoot, binaryName)

	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/macrofx")
	build.Dir = repoRoot
	build.Env = append(os.Environ(), "GOOS="+runtime.GOOS, "GOARCH="+runtime.GOARCH)
	if out, buildErr := build.CombinedOutput(); buildErr != nil {
		return "", nil, fmt.Errorf("build binary: %w\n%s", buildErr, out)
	}

	cmd := exec.Command(binaryPath)
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(),
		"MACROFX_HOST=127.0.0.1",
		"MACROFX_PORT="+integrationPort,
		"MACROFX_AUTH_MODE=keystore",
		"MACROFX_API_KEYS="+IntegrationAPIKey,
		"MACROFX_STORE_DRIVER=memory",
		"MACROFX_RATELIMIT_LIMIT=3",
		"MACROFX_UPSTREAM_URL="+upstreamURL,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return "", nil, fmt.Errorf("start app: %w", err)
	}

	baseURL = "http://127.0.0.1:" + integrationPort
	cleanup = func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		_ = os.Remove(binaryPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := waitForHealth(ctx, baseURL); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("wait for health: %w", err)
	}

	return baseURL, cleanup, nil
}

func findRepoRoot() (string, error) {
	if root := os.Getenv("INTEGRATION_REPO_ROOT"); root != "" {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	startDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", startDir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// IsRunning returns true if the integration server responds on the given baseURL.
func IsRunning(baseURL string) bool {
	resp, err := http.Get(strings.TrimSuffix(baseURL, "/") + healthPath)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
