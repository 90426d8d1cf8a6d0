// Package external runs a user-supplied analyzer process per file and reads
// the metrics it prints as JSON.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/panbanda/decay/pkg/frontend"
)

// Name is the backend name reported for files this provider analyzes.
const Name = "external"

// DefaultPriority ranks external analyzers ahead of every built-in front end.
const DefaultPriority = 10

// DefaultTimeout bounds one analyzer run.
const DefaultTimeout = 30 * time.Second

// ErrNoCommand is returned when a provider is configured without a command.
var ErrNoCommand = errors.New("external analyzer has no command")

// Provider runs Command with the file path appended as the last argument.
// The source is also supplied on stdin.
type Provider struct {
	extensions []string
	argv       []string
	language   string
	dir        string
	timeout    time.Duration
	priority   int
}

// Option configures a Provider.
type Option func(*Provider)

// WithDir sets the working directory the command runs in, against which
// relative file paths resolve.
func WithDir(dir string) Option {
	return func(p *Provider) {
		p.dir = dir
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLanguage sets the language reported for analyzed files. It defaults
// to the extension without its dot.
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithPriority overrides DefaultPriority.
func WithPriority(n int) Option {
	return func(p *Provider) {
		p.priority = n
	}
}

// New creates a provider for files with extension ext, such as ".py".
func New(ext, command string, opts ...Option) (*Provider, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s: %w", ext, ErrNoCommand)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	p := &Provider{
		extensions: []string{strings.ToLower(ext)},
		argv:       argv,
		language:   strings.TrimPrefix(strings.ToLower(ext), "."),
		timeout:    DefaultTimeout,
		priority:   DefaultPriority,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Extensions() []string { return p.extensions }

func (p *Provider) Priority() int { return p.priority }

// Available reports whether the command's executable can be found.
func (p *Provider) Available() bool {
	_, err := exec.LookPath(p.argv[0])
	return err == nil
}

// Analyze runs the analyzer on path. A run past the timeout fails with
// frontend.ErrTimeout, a cancelled ctx with its own error; output that is not a metrics document, or that
// carries an error, fails with frontend.ErrMalformed.
func (p *Provider) Analyze(ctx context.Context, path string, src []byte) (*frontend.Output, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string{}, p.argv[1:]...), path)
	cmd := exec.CommandContext(runCtx, p.argv[0], args...)
	cmd.Dir = p.dir
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%s after %s: %w", path, p.timeout, frontend.ErrTimeout)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", p.argv[0], path, err, strings.TrimSpace(stderr.String()))
	}

	m, err := Decode(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.LOC == 0 {
		m.LOC = frontend.CountLines(src)
	}
	return &frontend.Output{
		Language: p.language,
		Backend:  Name,
		LOC:      m.LOC,
		Metrics:  m,
	}, nil
}

// Decode parses an analyzer's JSON output.
func Decode(data []byte) (*frontend.Metrics, error) {
	var m frontend.Metrics
	if err := json.Unmarshal(bytes.TrimSpace(data), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", frontend.ErrMalformed, err)
	}
	if m.Error != "" {
		return nil, fmt.Errorf("%w: %s", frontend.ErrMalformed, m.Error)
	}
	if m.LOC < 0 || m.Functions < 0 || m.FanOut < 0 || m.TotalComplexity < 0 || m.MaxComplexity < 0 {
		return nil, fmt.Errorf("%w: negative metric", frontend.ErrMalformed)
	}
	if m.Cohesion <= 0 || m.Cohesion > 1 {
		m.Cohesion = 1
	}
	if m.ComplexFunctions == nil {
		m.ComplexFunctions = []string{}
	}
	return &m, nil
}

var _ frontend.Provider = (*Provider)(nil)
