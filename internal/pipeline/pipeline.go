// Package pipeline drives one scan, select and install workflow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/github"
	"github.com/distantorigin/lwjgl3ify-installer/internal/install"
	"github.com/distantorigin/lwjgl3ify-installer/internal/instance"
)

const (
	// StateIdle indicates no successful scan has happened yet.
	StateIdle State = iota
	// StateScanned indicates an instance list is available.
	StateScanned
	// StateSelected indicates an instance has been chosen.
	StateSelected
	// StateInstalling indicates a fetch and install is in flight.
	StateInstalling
	// StateSucceeded indicates the last install finished (terminal until the next Install).
	StateSucceeded
	// StateFailed indicates the last install failed (terminal until the next Install).
	StateFailed
)

type (
	// State represents where the workflow is.
	State int32

	// Scanner lists the instances under a root
	Scanner interface {
		Scan(root string) ([]instance.Record, error)
	}

	// Fetcher resolves the asset to install
	Fetcher interface {
		LatestAsset(ctx context.Context) (github.Asset, error)
	}

	// Installer puts an asset into an instance directory
	Installer interface {
		Install(ctx context.Context, asset github.Asset, targetDir string, progress install.ProgressFunc) (install.Result, error)
	}

	// StateFunc observes transitions. It runs on the goroutine that caused
	// the transition, outside the pipeline lock.
	StateFunc func(from, to State)

	// Pipeline holds the workflow state. Only one install may run at a time.
	Pipeline struct {
		scanner   Scanner
		fetcher   Fetcher
		installer Installer
		logger    *log.Logger

		mu        sync.Mutex
		state     State
		instances []instance.Record
		selected  int
		asset     github.Asset
		result    install.Result
		err       error
		cancel    context.CancelFunc
		onChange  StateFunc
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanned:
		return "scanned"
	case StateSelected:
		return "selected"
	case StateInstalling:
		return "installing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// New creates a Pipeline in StateIdle. A nil logger discards output.
func New(scanner Scanner, fetcher Fetcher, installer Installer, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		scanner:   scanner,
		fetcher:   fetcher,
		installer: installer,
		logger:    logger,
		selected:  -1,
	}
}

// OnStateChange registers fn to be called on every transition
func (p *Pipeline) OnStateChange(fn StateFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// State returns the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Instances returns a copy of the last scan
func (p *Pipeline) Instances() []instance.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]instance.Record(nil), p.instances...)
}

// Selected returns the chosen instance, if any
func (p *Pipeline) Selected() (instance.Record, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected < 0 {
		return instance.Record{}, false
	}
	return p.instances[p.selected], true
}

// Asset returns the asset resolved by the last install attempt
func (p *Pipeline) Asset() github.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asset
}

// Result returns the outcome of the last install
func (p *Pipeline) Result() install.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Err returns the error of the last failed scan or install
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// transition must be called with mu held. It returns a func that notifies
// the observer and must be called after unlocking.
func (p *Pipeline) transition(to State) func() {
	from := p.state
	p.state = to
	fn := p.onChange
	if fn == nil || from == to {
		return func() {}
	}
	return func() { fn(from, to) }
}

func (p *Pipeline) busy(op string) error {
	return failure.New(failure.KindAlreadyRunning, op, errors.New("an install is in progress"))
}

// Scan lists the instances under root and replaces the previous list and
// selection. An empty list still moves the pipeline to StateScanned.
func (p *Pipeline) Scan(root string) ([]instance.Record, error) {
	p.mu.Lock()
	if p.state == StateInstalling {
		p.mu.Unlock()
		return nil, p.busy("scan instances")
	}
	p.mu.Unlock()

	records, err := p.scanner.Scan(root)

	p.mu.Lock()
	if p.state == StateInstalling {
		// An install started while the scan ran; it owns the list now.
		p.mu.Unlock()
		return nil, p.busy("scan instances")
	}
	p.instances = nil
	p.selected = -1
	p.err = err
	var notify func()
	if err != nil {
		notify = p.transition(StateIdle)
	} else {
		p.instances = records
		notify = p.transition(StateScanned)
	}
	p.mu.Unlock()
	notify()

	if err != nil {
		p.logger.Error("Scan failed", "root", root, "err", err)
		return nil, err
	}
	return append([]instance.Record(nil), records...), nil
}

// Select chooses the i-th instance of the last scan
func (p *Pipeline) Select(i int) error {
	p.mu.Lock()
	if err := p.canSelect(); err != nil {
		p.mu.Unlock()
		return err
	}
	if i < 0 || i >= len(p.instances) {
		p.mu.Unlock()
		return failure.New(failure.KindNotFound, "select instance", fmt.Errorf("index %d out of range (%d instances)", i, len(p.instances)))
	}
	p.selected = i
	notify := p.transition(StateSelected)
	record := p.instances[i]
	p.mu.Unlock()
	notify()

	p.logger.Debug("Selected instance", "name", record.Name, "instance", record.Path)
	return nil
}

// SelectPath chooses the scanned instance whose path is path
func (p *Pipeline) SelectPath(path string) error {
	p.mu.Lock()
	index := -1
	for i, r := range p.instances {
		if r.Path == path {
			index = i
			break
		}
	}
	p.mu.Unlock()

	if index < 0 {
		if err := p.checkSelectable(); err != nil {
			return err
		}
		return failure.New(failure.KindNotFound, "select instance", errors.New("not in the scanned list")).WithResource(path)
	}
	return p.Select(index)
}

func (p *Pipeline) checkSelectable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canSelect()
}

// canSelect must be called with mu held
func (p *Pipeline) canSelect() error {
	switch p.state {
	case StateInstalling:
		return p.busy("select instance")
	case StateIdle:
		return fmt.Errorf("cannot select an instance in state %s", p.state)
	default:
		return nil
	}
}

// Install fetches the latest asset and installs it into the selected
// instance. It blocks until the attempt is terminal. A call made while
// another install is running fails with failure.ErrAlreadyRunning.
func (p *Pipeline) Install(ctx context.Context, progress install.ProgressFunc) (install.Result, error) {
	p.mu.Lock()
	switch {
	case p.state == StateInstalling:
		p.mu.Unlock()
		return install.Result{}, p.busy("install")
	case p.selected < 0:
		state := p.state
		p.mu.Unlock()
		return install.Result{}, fmt.Errorf("cannot install in state %s: no instance selected", state)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.cancel = cancel
	p.err = nil
	p.result = install.Result{}
	p.asset = github.Asset{}
	target := p.instances[p.selected]
	notify := p.transition(StateInstalling)
	p.mu.Unlock()
	notify()

	result, err := p.run(ctx, target, progress)

	p.mu.Lock()
	p.cancel = nil
	p.result = result
	p.err = err
	if err != nil {
		notify = p.transition(StateFailed)
	} else {
		notify = p.transition(StateSucceeded)
	}
	p.mu.Unlock()
	notify()

	return result, err
}

func (p *Pipeline) run(ctx context.Context, target instance.Record, progress install.ProgressFunc) (install.Result, error) {
	p.logger.Info("Fetching latest release")
	asset, err := p.fetcher.LatestAsset(ctx)
	if err != nil {
		p.logger.Error("Failed to get latest release", "err", err)
		return install.Result{Message: err.Error()}, err
	}
	p.logger.Info("Latest version", "tag", asset.Tag, "asset", asset.Filename)

	p.mu.Lock()
	p.asset = asset
	p.mu.Unlock()

	return p.installer.Install(ctx, asset, target.Path, progress)
}

// Cancel aborts the in-flight fetch or download. It is a no-op when no
// install is running. Extraction, once started, runs to completion.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		p.logger.Warn("Cancelling install")
		cancel()
	}
}
