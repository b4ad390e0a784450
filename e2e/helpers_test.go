package e2e_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	binaries      = map[string]*builtBinary{}
	binariesMu    sync.Mutex
	sharedTempDir string
)

type builtBinary struct {
	once sync.Once
	path string
	err  error
}

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "imgtransfer-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	terminateMinio()
	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the imgtransfer server.
type ServerConfig struct {
	Port          int
	Backend       string // filesystem, s3
	StoragePath   string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	StagingDir    string
	MaxUploadSize int64
	Metrics       bool
}

// buildBinary compiles the package under ./cmd once per test run.
// Returns the path to the compiled binary.
func buildBinary(t *testing.T, name string) string {
	t.Helper()

	binariesMu.Lock()
	b, ok := binaries[name]
	if !ok {
		b = &builtBinary{}
		binaries[name] = b
	}
	binariesMu.Unlock()

	b.once.Do(func() {
		b.path = filepath.Join(sharedTempDir, name)

		cmd := exec.Command("go", "build", "-o", b.path, "./cmd/"+name)
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			b.err = fmt.Errorf("build %s: %w\nOutput: %s", name, err, output)
		}
	})

	if b.err != nil {
		t.Fatalf("failed to build binary: %v", b.err)
	}

	return b.path
}

// getProjectRoot returns the root directory of the module.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// cleanEnv returns the process environment without variables the server
// would read as configuration.
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		switch {
		case key == "PORT", key == "BUCKET_NAME", strings.HasPrefix(key, "IMGTRANSFER_"):
			continue
		}
		env = append(env, kv)
	}
	return env
}

// createConfigFile creates a temporary config file for the server.
// Returns the path to the config file.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	if cfg.StagingDir == "" {
		cfg.StagingDir = t.TempDir()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d
  max_upload_size: %d
  request_timeout: 30
  shutdown_timeout: 5

staging:
  dir: "%s"

metrics:
  enabled: %t

log:
  level: error
  format: json

storage:
  backend: %s
`, cfg.Port, cfg.MaxUploadSize, cfg.StagingDir, cfg.Metrics, cfg.Backend)

	switch cfg.Backend {
	case "filesystem":
		fmt.Fprintf(&sb, "  filesystem:\n    path: \"%s\"\n", cfg.StoragePath)
	case "s3":
		fmt.Fprintf(&sb, `  s3:
    bucket: %s
    region: us-east-1
    endpoint: %s
    force_path_style: true
    access_key: %s
    secret_key: %s
`, cfg.Bucket, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// startServer starts the imgtransfer binary with the given configuration
// and stops it when the test ends. Returns the base URL.
func startServer(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	binary := buildBinary(t, "imgtransfer")
	configPath := createConfigFile(t, cfg)

	cmd := exec.Command(binary, "serve", "--config", configPath)
	cmd.Env = cleanEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	require.NoError(t, cmd.Start(), "start server")

	t.Cleanup(func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	})

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(t, baseURL, 10*time.Second)

	return baseURL
}

// waitForServer polls the health endpoint until it answers or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "find open port")

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close(), "close port")

	return port
}

// uploadRaw posts content as the "image" field and returns status and body.
func uploadRaw(t *testing.T, baseURL, filename string, content []byte) (int, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/images", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// do sends a body-less request and returns status and body.
func do(t *testing.T, method, url string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// checkBackend runs the check command against cfg and returns its exit
// code and combined output.
func checkBackend(t *testing.T, cfg ServerConfig) (int, string) {
	t.Helper()

	binary := buildBinary(t, "imgtransfer")
	configPath := createConfigFile(t, cfg)

	cmd := exec.Command(binary, "check", "--config", configPath, "--timeout", "10s")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), string(output)
	}
	require.NoError(t, err, "run check")
	return 0, string(output)
}
