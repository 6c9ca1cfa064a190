package stdio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	"github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	cssh "golang.org/x/crypto/ssh"

	"github.com/viant/turbomcp/transport"
)

// Dialer launches an MCP server subprocess and speaks the STDIO transport
// to it, locally or over SSH. Grounded on viant-jsonrpc's
// transport/client/stdio.Client, which used github.com/viant/gosh for the
// same local/SSH split.
type Dialer struct {
	command string
	args    []string
	env     map[string]string
	host    string
	secret  secret.Resource
	sshCfg  *cssh.ClientConfig
}

// DialOption configures a Dialer.
type DialOption func(*Dialer)

// WithArguments sets the subprocess command line arguments.
func WithArguments(args ...string) DialOption {
	return func(d *Dialer) { d.args = args }
}

// WithEnvironment sets an environment variable for the subprocess.
func WithEnvironment(key, value string) DialOption {
	return func(d *Dialer) {
		if d.env == nil {
			d.env = make(map[string]string)
		}
		d.env[key] = value
	}
}

// WithHost targets an SSH host instead of running the command locally.
func WithHost(host string) DialOption {
	return func(d *Dialer) { d.host = host }
}

// WithSecret supplies the scy secret resource used to resolve SSH
// credentials for WithHost.
func WithSecret(resource secret.Resource) DialOption {
	return func(d *Dialer) { d.secret = resource }
}

// NewDialer creates a Dialer for command, launched locally unless
// WithHost is supplied.
func NewDialer(command string, opts ...DialOption) *Dialer {
	d := &Dialer{command: command}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// subprocessSink adapts a gosh runner.Runner's stdin into a dataSink.
type subprocessSink struct {
	mu     sync.Mutex
	runner runner.Runner
}

func (s *subprocessSink) SendData(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return fmt.Errorf("stdio: subprocess not started")
	}
	_, err := s.runner.Send(ctx, data)
	return err
}

// Dial launches the subprocess and returns a Transport wired to its
// stdin/stdout. The returned Transport's Serve method must not be called:
// the subprocess's stdout is instead fed into the dispatcher via the
// gosh listener goroutine started here.
func (d *Dialer) Dial(ctx context.Context, newHandler transport.NewHandler) (*Transport, error) {
	if err := d.ensureSSHConfig(ctx); err != nil {
		return nil, err
	}
	var options = []runner.Option{runner.AsPipeline()}
	var r runner.Runner
	if d.sshCfg != nil {
		r = ssh.New(d.host, d.sshCfg, options...)
	} else {
		r = local.New(options...)
	}
	sink := &subprocessSink{runner: r}
	t := New(sink, nil)
	t.dispatcher.Handler = newHandler(ctx, t)

	cmd := d.command
	if len(d.args) > 0 {
		cmd = fmt.Sprintf("%s %s", d.command, strings.Join(d.args, " "))
	}
	go d.run(ctx, r, cmd, t)
	return t, nil
}

func (d *Dialer) run(ctx context.Context, r runner.Runner, cmd string, t *Transport) {
	var builder strings.Builder
	listener := func(stdout string, _ bool) {
		idx := strings.Index(stdout, "\n")
		if idx == -1 {
			builder.WriteString(stdout)
			return
		}
		builder.WriteString(stdout[:idx])
		line := []byte(builder.String())
		builder.Reset()
		t.dispatcher.HandleMessage(ctx, line)
	}
	output, code, err := r.Run(ctx, cmd, runner.WithEnvironment(d.env), runner.WithListener(listener))
	if err != nil {
		t.dispatcher.Close(err)
		return
	}
	if code != 0 {
		t.dispatcher.Close(fmt.Errorf("subprocess exited with code %d: %s", code, output))
	}
}

func (d *Dialer) ensureSSHConfig(ctx context.Context) error {
	if d.sshCfg != nil || d.host == "" {
		return nil
	}
	if d.secret == "" {
		return fmt.Errorf("stdio: host %q requires WithSecret for SSH credentials", d.host)
	}
	secrets := secret.New()
	cred, err := secrets.GetCredentials(ctx, string(d.secret))
	if err != nil {
		return err
	}
	d.sshCfg, err = cred.SSH.Config(ctx)
	return err
}
