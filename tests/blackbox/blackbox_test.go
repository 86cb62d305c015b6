package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	outDir := t.TempDir()
	binPath := filepath.Join(outDir, "arcticd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/arcticd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

type serverProc struct {
	cmd  *exec.Cmd
	base string // http base URL, e.g. http://127.0.0.1:18080
}

// startServer launches the daemon with temp install/cache dirs and no
// remote catalog, so it serves the bundled one.
func startServer(t *testing.T, bin string, port int) *serverProc {
	t.Helper()
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	base := "http://" + addr
	cmd := exec.Command(bin,
		"--addr", addr,
		"--install-root", t.TempDir(),
		"--cache-dir", t.TempDir(),
		"--log-level", "error",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	sp := &serverProc{cmd: cmd, base: base}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return sp
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func postJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port)

	// /healthz
	resp, body := get(t, sp.base+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/healthz %d %s", resp.StatusCode, string(body))
	}

	// /v1/models serves the bundled catalog
	resp, body = get(t, sp.base+"/v1/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/models %d %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("/v1/models content-type=%s", ct)
	}
	var modelsResp struct {
		Models []struct {
			ID string `json:"id"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		t.Fatalf("/v1/models json: %v body=%s", err, string(body))
	}
	if len(modelsResp.Models) == 0 {
		t.Fatalf("expected bundled models, got none")
	}
	found := false
	for _, m := range modelsResp.Models {
		if m.ID == "sdxl-base" {
			found = true
		}
	}
	if !found {
		t.Fatalf("bundled catalog missing sdxl-base: %s", string(body))
	}

	// /v1/status shows an idle engine and a loaded catalog
	resp, body = get(t, sp.base+"/v1/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/status %d %s", resp.StatusCode, string(body))
	}
	var statusResp struct {
		Active         bool   `json:"active"`
		CatalogVersion uint32 `json:"catalog_version"`
		ModelCount     int    `json:"model_count"`
	}
	if err := json.Unmarshal(body, &statusResp); err != nil {
		t.Fatalf("/v1/status json: %v body=%s", err, string(body))
	}
	if statusResp.Active {
		t.Fatalf("fresh daemon should be idle: %s", string(body))
	}
	if statusResp.CatalogVersion == 0 || statusResp.ModelCount == 0 {
		t.Fatalf("catalog not loaded: %s", string(body))
	}
}

func TestBlackbox_Resolve_UnknownModel_404(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port)

	resp, body := postJSON(t, sp.base+"/v1/resolve", []byte(`{"model_id":"missing","variant_id":"tier_b"}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d, body=%s", resp.StatusCode, string(body))
	}
}

func TestBlackbox_Resolve_BadBody_400(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port)

	resp, body := postJSON(t, sp.base+"/v1/resolve", []byte(`{not json`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d, body=%s", resp.StatusCode, string(body))
	}
}
