package shell

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	pkgErrors "github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig contains the parameters for DialSSH.
type SSHConfig struct {
	// Addr is the host:port of the remote host. The port defaults to 22.
	Addr string
	User string
	// KeyFile is the path to a private key in PEM format.
	KeyFile string
	// KnownHostsFile is used to verify the host key. Defaults to
	// ~/.ssh/known_hosts.
	KnownHostsFile string
	// Insecure disables host key verification, KnownHostsFile is ignored.
	Insecure bool
	Timeout  time.Duration
}

var _ Executor = &SSHExecutor{}

// SSHExecutor runs commands on a remote host. Each command is run in its own
// session of the shared connection.
type SSHExecutor struct {
	client *ssh.Client
}

// NewSSHExecutor returns an SSHExecutor using an established client.
func NewSSHExecutor(client *ssh.Client) *SSHExecutor {
	return &SSHExecutor{client: client}
}

// DialSSH connects to the host described by config.
func DialSSH(ctx context.Context, config *SSHConfig) (*SSHExecutor, error) {
	clientConfig, err := config.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := config.Addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	dialer := &net.Dialer{Timeout: config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, pkgErrors.Wrapf(err, "DialSSH: dial %s", addr)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, pkgErrors.Wrapf(err, "DialSSH: handshake with %s", addr)
	}

	return NewSSHExecutor(ssh.NewClient(sshConn, chans, reqs)), nil
}

func (c *SSHConfig) clientConfig() (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(c.KeyFile)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "read ssh key")
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "parse ssh key")
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.Timeout,
	}, nil
}

func (c *SSHConfig) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.Insecure {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	knownHostsFile := c.KnownHostsFile
	if len(knownHostsFile) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, pkgErrors.Wrap(err, "read known hosts")
		}
		knownHostsFile = filepath.Join(home, ".ssh", "known_hosts")
	}

	hostKeyCallback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "read known hosts")
	}
	return hostKeyCallback, nil
}

func (s *SSHExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return nil, pkgErrors.Wrap(err, "(*SSHExecutor).Output: new session")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	commandLine := CommandLine(name, args...)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(commandLine)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &CLIError{
				Command:    commandLine,
				ExitStatus: exitErr.ExitStatus(),
				Stderr:     stderr.String(),
				Err:        exitErr,
			}
		}

		return stdout.Bytes(), pkgErrors.Wrap(err, "(*SSHExecutor).Output")
	}

	return stdout.Bytes(), nil
}

// Close closes the underlying connection.
func (s *SSHExecutor) Close() error {
	return s.client.Close()
}
