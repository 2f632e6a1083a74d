package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForFile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func TestWatchRescansOnChange(t *testing.T) {
	t.Setenv("CODEGATE_NO_EXIT", "1")
	tmp := setupWorkspace(t, map[string]string{
		"src/app.ts": "export const ok = 1;\n",
	})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = runWatchWithStop(stop)
	}()

	// Watcher registration races the first write.
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(tmp, "src", "page.ts")
	if err := os.WriteFile(target, []byte("console.log('x');\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(tmp, ".codegate")
	for _, name := range []string{"report.json", "gate.json", "hints.json", "report.html"} {
		if !waitForFile(filepath.Join(outDir, name), 5*time.Second) {
			close(stop)
			<-done
			t.Fatalf("%s not written by watch trigger", name)
		}
	}

	close(stop)
	<-done
}
