package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/install"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
)

type fakeScanner struct {
	records []instance.Record
	err     error
}

func (f *fakeScanner) Scan(root string) ([]instance.Record, error) {
	return f.records, f.err
}

// gatedScanner answers the first scan at once and blocks later scans on gate
type gatedScanner struct {
	records []instance.Record
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedScanner) Scan(root string) ([]instance.Record, error) {
	g.calls++
	if g.calls > 1 {
		close(g.entered)
		<-g.gate
	}
	return g.records, nil
}

// fakeFetcher returns asset, or blocks on gate until it is closed or ctx ends
type fakeFetcher struct {
	asset   github.Asset
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeFetcher) LatestAsset(ctx context.Context) (github.Asset, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return github.Asset{}, failure.New(failure.KindCancelled, "fetch latest release", ctx.Err())
		}
	}
	return f.asset, f.err
}

type fakeInstaller struct {
	mu      sync.Mutex
	targets []string
	result  install.Result
	err     error
}

func (f *fakeInstaller) Install(ctx context.Context, asset github.Asset, targetDir string, progress install.ProgressFunc) (install.Result, error) {
	f.mu.Lock()
	f.targets = append(f.targets, targetDir)
	f.mu.Unlock()
	if progress != nil {
		progress(install.Progress{Stage: install.StageExtracting, Percent: 100})
	}
	return f.result, f.err
}

var records = []instance.Record{
	{Path: "/instances/a", Name: "Alpha"},
	{Path: "/instances/b", Name: "Beta"},
}

func newPipeline(f *fakeFetcher, i *fakeInstaller) *Pipeline {
	return New(&fakeScanner{records: records}, f, i, nil)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateScanned, "scanned"},
		{StateSelected, "selected"},
		{StateInstalling, "installing"},
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestScan(t *testing.T) {
	t.Run("success moves to scanned", func(t *testing.T) {
		p := newPipeline(&fakeFetcher{}, &fakeInstaller{})
		got, err := p.Scan("/instances")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if !reflect.DeepEqual(got, records) {
			t.Errorf("Scan() = %v, want %v", got, records)
		}
		if p.State() != StateScanned {
			t.Errorf("State() = %s, want scanned", p.State())
		}
	})

	t.Run("empty list still scanned", func(t *testing.T) {
		p := New(&fakeScanner{}, &fakeFetcher{}, &fakeInstaller{}, nil)
		if _, err := p.Scan("/empty"); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if p.State() != StateScanned {
			t.Errorf("State() = %s, want scanned", p.State())
		}
	})

	t.Run("failure returns to idle", func(t *testing.T) {
		scanErr := failure.New(failure.KindInvalidRoot, "scan instances", errors.New("missing"))
		scanner := &fakeScanner{records: records}
		p := New(scanner, &fakeFetcher{}, &fakeInstaller{}, nil)
		if _, err := p.Scan("/instances"); err != nil {
			t.Fatalf("first Scan() error = %v", err)
		}
		if err := p.Select(0); err != nil {
			t.Fatalf("Select() error = %v", err)
		}

		scanner.err = scanErr
		if _, err := p.Scan("/gone"); !errors.Is(err, failure.ErrInvalidRoot) {
			t.Fatalf("Scan() error = %v, want ErrInvalidRoot", err)
		}
		if p.State() != StateIdle {
			t.Errorf("State() = %s, want idle", p.State())
		}
		if len(p.Instances()) != 0 {
			t.Errorf("Instances() = %v, want empty", p.Instances())
		}
		if _, ok := p.Selected(); ok {
			t.Error("Selected() still reports a selection")
		}
		if !errors.Is(p.Err(), failure.ErrInvalidRoot) {
			t.Errorf("Err() = %v", p.Err())
		}
	})
}

func TestSelect(t *testing.T) {
	p := newPipeline(&fakeFetcher{}, &fakeInstaller{})

	if err := p.Select(0); err == nil {
		t.Error("Select() before Scan() should fail")
	}

	p.Scan("/instances")
	if err := p.Select(2); !errors.Is(err, failure.ErrNotFound) {
		t.Errorf("Select(2) error = %v, want ErrNotFound", err)
	}
	if err := p.Select(1); err != nil {
		t.Fatalf("Select(1) error = %v", err)
	}
	if got, _ := p.Selected(); got.Path != "/instances/b" {
		t.Errorf("Selected() = %v", got)
	}
	if err := p.SelectPath("/instances/a"); err != nil {
		t.Fatalf("SelectPath() error = %v", err)
	}
	if got, _ := p.Selected(); got.Name != "Alpha" {
		t.Errorf("Selected() = %v", got)
	}
	if err := p.SelectPath("/elsewhere"); !errors.Is(err, failure.ErrNotFound) {
		t.Errorf("SelectPath() error = %v, want ErrNotFound", err)
	}
	if p.State() != StateSelected {
		t.Errorf("State() = %s, want selected", p.State())
	}
}

func TestInstall_Success(t *testing.T) {
	asset := github.Asset{Tag: "2.1.14", Filename: "lwjgl3ify-2.1.14-multimc.zip"}
	inst := &fakeInstaller{result: install.Result{Success: true, FilesWritten: 3}}
	p := newPipeline(&fakeFetcher{asset: asset}, inst)

	var transitions [][2]State
	p.OnStateChange(func(from, to State) { transitions = append(transitions, [2]State{from, to}) })

	p.Scan("/instances")
	p.Select(1)

	progressed := false
	result, err := p.Install(context.Background(), func(install.Progress) { progressed = true })
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !result.Success || result.FilesWritten != 3 {
		t.Errorf("Install() = %+v", result)
	}
	if !progressed {
		t.Error("progress observer was not called")
	}
	if p.State() != StateSucceeded {
		t.Errorf("State() = %s, want succeeded", p.State())
	}
	if p.Asset() != asset {
		t.Errorf("Asset() = %+v, want %+v", p.Asset(), asset)
	}
	if !reflect.DeepEqual(inst.targets, []string{"/instances/b"}) {
		t.Errorf("installed into %v", inst.targets)
	}

	want := [][2]State{
		{StateIdle, StateScanned},
		{StateScanned, StateSelected},
		{StateSelected, StateInstalling},
		{StateInstalling, StateSucceeded},
	}
	if !reflect.DeepEqual(transitions, want) {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
}

func TestInstall_RequiresSelection(t *testing.T) {
	inst := &fakeInstaller{}
	p := newPipeline(&fakeFetcher{}, inst)
	p.Scan("/instances")

	if _, err := p.Install(context.Background(), nil); err == nil {
		t.Fatal("Install() without selection should fail")
	}
	if p.State() != StateScanned {
		t.Errorf("State() = %s, want scanned", p.State())
	}
	if len(inst.targets) != 0 {
		t.Error("installer was called without a selection")
	}
}

func TestInstall_FetchFailure(t *testing.T) {
	fetchErr := failure.New(failure.KindRateLimit, "fetch latest release", errors.New("quota exhausted"))
	inst := &fakeInstaller{}
	p := newPipeline(&fakeFetcher{err: fetchErr}, inst)
	p.Scan("/instances")
	p.Select(0)

	result, err := p.Install(context.Background(), nil)
	if !errors.Is(err, failure.ErrRateLimit) {
		t.Fatalf("Install() error = %v, want ErrRateLimit", err)
	}
	if result.Success || result.Message == "" {
		t.Errorf("Install() = %+v, want failure with message", result)
	}
	if p.State() != StateFailed {
		t.Errorf("State() = %s, want failed", p.State())
	}
	if len(inst.targets) != 0 {
		t.Error("installer ran after a failed fetch")
	}
}

func TestInstall_RetryFromDone(t *testing.T) {
	inst := &fakeInstaller{err: failure.New(failure.KindNetwork, "download", errors.New("reset"))}
	p := newPipeline(&fakeFetcher{}, inst)
	p.Scan("/instances")
	p.Select(0)

	if _, err := p.Install(context.Background(), nil); err == nil {
		t.Fatal("first Install() should fail")
	}

	inst.err = nil
	inst.result = install.Result{Success: true}
	if _, err := p.Install(context.Background(), nil); err != nil {
		t.Fatalf("retry Install() error = %v", err)
	}
	if p.State() != StateSucceeded {
		t.Errorf("State() = %s, want succeeded", p.State())
	}
	if p.Err() != nil {
		t.Errorf("Err() = %v after success", p.Err())
	}
}

// TestInstall_AlreadyRunning tests that a concurrent install starts nothing
func TestInstall_AlreadyRunning(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{}), entered: make(chan struct{})}
	inst := &fakeInstaller{result: install.Result{Success: true}}
	p := newPipeline(fetcher, inst)
	p.Scan("/instances")
	p.Select(0)

	done := make(chan error, 1)
	go func() {
		_, err := p.Install(context.Background(), nil)
		done <- err
	}()
	<-fetcher.entered

	if p.State() != StateInstalling {
		t.Errorf("State() = %s, want installing", p.State())
	}
	if _, err := p.Install(context.Background(), nil); !errors.Is(err, failure.ErrAlreadyRunning) {
		t.Errorf("second Install() error = %v, want ErrAlreadyRunning", err)
	}
	if _, err := p.Scan("/instances"); !errors.Is(err, failure.ErrAlreadyRunning) {
		t.Errorf("Scan() during install error = %v, want ErrAlreadyRunning", err)
	}
	if err := p.Select(1); !errors.Is(err, failure.ErrAlreadyRunning) {
		t.Errorf("Select() during install error = %v, want ErrAlreadyRunning", err)
	}

	close(fetcher.gate)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Install() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first Install() did not finish")
	}

	if len(inst.targets) != 1 {
		t.Errorf("installer ran %d times, want 1", len(inst.targets))
	}
}

// TestScan_InstallStartedDuringScan tests that a scan finishing after an
// install began leaves the install in charge
func TestScan_InstallStartedDuringScan(t *testing.T) {
	scanner := &gatedScanner{records: records, gate: make(chan struct{}), entered: make(chan struct{})}
	fetcher := &fakeFetcher{gate: make(chan struct{}), entered: make(chan struct{})}
	inst := &fakeInstaller{result: install.Result{Success: true}}
	p := New(scanner, fetcher, inst, nil)
	if _, err := p.Scan("/instances"); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if err := p.Select(0); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	scanDone := make(chan error, 1)
	go func() {
		_, err := p.Scan("/instances")
		scanDone <- err
	}()
	<-scanner.entered

	installDone := make(chan error, 1)
	go func() {
		_, err := p.Install(context.Background(), nil)
		installDone <- err
	}()
	<-fetcher.entered

	close(scanner.gate)
	select {
	case err := <-scanDone:
		if !errors.Is(err, failure.ErrAlreadyRunning) {
			t.Errorf("Scan() error = %v, want ErrAlreadyRunning", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Scan() did not return")
	}

	if p.State() != StateInstalling {
		t.Errorf("State() = %s, want installing", p.State())
	}
	if target, ok := p.Selected(); !ok || target.Name != "Alpha" {
		t.Errorf("Selected() = %v, %v, want Alpha", target, ok)
	}
	if _, err := p.Install(context.Background(), nil); !errors.Is(err, failure.ErrAlreadyRunning) {
		t.Errorf("second Install() error = %v, want ErrAlreadyRunning", err)
	}

	close(fetcher.gate)
	select {
	case err := <-installDone:
		if err != nil {
			t.Fatalf("Install() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Install() did not finish")
	}
	if len(inst.targets) != 1 || inst.targets[0] != "/instances/a" {
		t.Errorf("installer targets = %v, want [/instances/a]", inst.targets)
	}
}

func TestCancel(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{}), entered: make(chan struct{})}
	p := newPipeline(fetcher, &fakeInstaller{})
	p.Scan("/instances")
	p.Select(0)

	p.Cancel() // nothing running

	done := make(chan error, 1)
	go func() {
		_, err := p.Install(context.Background(), nil)
		done <- err
	}()
	<-fetcher.entered
	p.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, failure.ErrCancelled) {
			t.Errorf("Install() error = %v, want ErrCancelled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Install() was not cancelled")
	}
	if p.State() != StateFailed {
		t.Errorf("State() = %s, want failed", p.State())
	}
}
