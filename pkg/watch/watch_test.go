package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// startWatcher runs a watcher until the test ends. The returned channel is
// closed when Run returns, after *runErr is set.
func startWatcher(t *testing.T, paths []string, onChange ChangeFunc) (cancel func(), done <-chan struct{}, runErr *error) {
	t.Helper()
	watcher, err := New(paths, testDebounce, onChange)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancelRun := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	var result error
	go func() {
		defer close(runDone)
		result = watcher.Run(ctx)
	}()
	t.Cleanup(func() {
		cancelRun()
		<-runDone
	})
	return cancelRun, runDone, &result
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	directory := t.TempDir()
	inputPath := filepath.Join(directory, "bills.csv")
	writeFile(t, inputPath, "state,text\n")

	changes := make(chan string, 10)
	startWatcher(t, []string{inputPath}, func(ctx context.Context, changedPath string) error {
		changes <- changedPath
		return nil
	})

	for i := 0; i < 3; i++ {
		writeFile(t, inputPath, "state,text\nCA,x\n")
	}

	select {
	case changedPath := <-changes:
		if changedPath != inputPath {
			t.Errorf("changed path = %s, want %s", changedPath, inputPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}

	select {
	case changedPath := <-changes:
		t.Errorf("burst of writes delivered a second change for %s", changedPath)
	case <-time.After(10 * testDebounce):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	directory := t.TempDir()
	inputPath := filepath.Join(directory, "bills.csv")
	referencePath := filepath.Join(directory, "act.txt")
	writeFile(t, inputPath, "state,text\n")
	writeFile(t, referencePath, "The board shall act.")

	changes := make(chan string, 10)
	startWatcher(t, []string{inputPath, referencePath}, func(ctx context.Context, changedPath string) error {
		changes <- changedPath
		return nil
	})

	writeFile(t, filepath.Join(directory, "bills_with_highlights.csv"), "output")
	select {
	case changedPath := <-changes:
		t.Fatalf("unwatched file triggered a change: %s", changedPath)
	case <-time.After(5 * testDebounce):
	}

	writeFile(t, referencePath, "The board shall adopt rules.")
	select {
	case changedPath := <-changes:
		if changedPath != referencePath {
			t.Errorf("changed path = %s, want %s", changedPath, referencePath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reference change not delivered")
	}
}

func TestWatcher_CallbackErrorsAreNotFatal(t *testing.T) {
	directory := t.TempDir()
	inputPath := filepath.Join(directory, "bills.csv")
	writeFile(t, inputPath, "state,text\n")

	calls := make(chan struct{}, 10)
	startWatcher(t, []string{inputPath}, func(ctx context.Context, changedPath string) error {
		calls <- struct{}{}
		return errors.New("batch failed")
	})

	for attempt := 0; attempt < 2; attempt++ {
		writeFile(t, inputPath, "state,text\n")
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("change %d not delivered", attempt+1)
		}
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "bills.csv")
	writeFile(t, inputPath, "")

	cancel, done, runErr := startWatcher(t, []string{inputPath}, func(ctx context.Context, changedPath string) error {
		return nil
	})
	cancel()

	select {
	case <-done:
		if *runErr != nil {
			t.Errorf("Run returned %v, want nil", *runErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_Errors(t *testing.T) {
	noop := func(ctx context.Context, changedPath string) error { return nil }

	testCases := []struct {
		name     string
		paths    []string
		onChange ChangeFunc
	}{
		{name: "no paths", paths: nil, onChange: noop},
		{name: "no callback", paths: []string{"bills.csv"}, onChange: nil},
		{name: "missing directory", paths: []string{filepath.Join(t.TempDir(), "absent", "bills.csv")}, onChange: noop},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := New(testCase.paths, testDebounce, testCase.onChange); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
