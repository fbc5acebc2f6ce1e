package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"facebank/internal/face"
)

// FileProvider reads the current frame from a file that an external camera process
// keeps overwriting. Each Capture re-reads the file.
type FileProvider struct {
	path string
	now  func() time.Time
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path, now: time.Now}
}

func (p *FileProvider) Open(_ context.Context) error {
	if p.path == "" {
		return errors.New("capture path not configured")
	}
	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("stat capture source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("capture source %s is a directory", p.path)
	}
	return nil
}

func (p *FileProvider) Capture(ctx context.Context) (face.Sample, error) {
	if err := ctx.Err(); err != nil {
		return face.Sample{}, err
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return face.Sample{}, fmt.Errorf("read frame: %w", err)
	}
	return face.NewSample(raw, p.now())
}

func (p *FileProvider) Close() error { return nil }

// ScriptedProvider replays a fixed sequence of frames, repeating the last one.
// Used by the fake bank demo and in tests.
type ScriptedProvider struct {
	mu      sync.Mutex
	frames  [][]byte
	next    int
	open    bool
	opens   int
	OpenErr error
}

func NewScriptedProvider(frames ...[]byte) *ScriptedProvider {
	return &ScriptedProvider{frames: frames}
}

func (p *ScriptedProvider) Open(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.OpenErr != nil {
		return p.OpenErr
	}
	p.open = true
	p.opens++
	return nil
}

func (p *ScriptedProvider) Capture(_ context.Context) (face.Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return face.Sample{}, ErrNotAcquired
	}
	if len(p.frames) == 0 {
		return face.Sample{}, face.ErrEmptySample
	}
	frame := p.frames[min(p.next, len(p.frames)-1)]
	p.next++
	return face.NewSample(frame, time.Now())
}

func (p *ScriptedProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

// IsOpen reports whether the provider is currently open.
func (p *ScriptedProvider) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Opens returns how many times the provider was opened.
func (p *ScriptedProvider) Opens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}
