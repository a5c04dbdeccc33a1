// Package host reports facts about the local host and, through a
// shell.Executor, about remote hosts.
package host

import (
	"context"
	"net"
	"os"
	"os/user"
	"strconv"
	"strings"

	pkgErrors "github.com/pkg/errors"

	"github.com/uob-dice/dice-lib/shell"
)

// CurrentUser returns the login name of the user running the process. If the
// user database can not be consulted, $USER is returned.
func CurrentUser() string {
	u, err := user.Current()
	if err == nil && len(u.Username) > 0 {
		return u.Username
	}

	return os.Getenv("USER")
}

// CurrentFQDN returns the fully qualified domain name of the local host. If
// the host name can not be resolved, the plain host name is returned.
func CurrentFQDN() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", pkgErrors.Wrap(err, "CurrentFQDN: get hostname")
	}

	return canonicalName(hostname), nil
}

// canonicalName looks up a dotted name of hostname. Names of other hosts
// sharing an address, e.g. localhost, are ignored.
func canonicalName(hostname string) string {
	if strings.Contains(hostname, ".") {
		return hostname
	}

	isCandidate := func(name string) bool {
		return strings.HasPrefix(name, hostname+".")
	}

	addrs, err := net.LookupHost(hostname)
	if err != nil {
		return hostname
	}

	for _, addr := range addrs {
		names, err := net.LookupAddr(addr)
		if err != nil {
			continue
		}
		for _, name := range names {
			name = strings.TrimSuffix(name, ".")
			if isCandidate(name) {
				return name
			}
		}
	}

	cname, err := net.LookupCNAME(hostname)
	if err == nil && isCandidate(strings.TrimSuffix(cname, ".")) {
		return strings.TrimSuffix(cname, ".")
	}

	return hostname
}

// Facts describes a host.
type Facts struct {
	FQDN          string `json:"fqdn"`
	KernelRelease string `json:"kernel_release"`
	CPUs          int    `json:"cpus"`
	// MemoryBytes is the total physical memory.
	MemoryBytes uint64 `json:"memory_bytes"`
}

var (
	hostnameCmd = []string{"hostname", "-f"}
	kernelCmd   = []string{"uname", "-r"}
	cpusCmd     = []string{"nproc"}
	memInfoCmd  = []string{"cat", "/proc/meminfo"}
)

// CollectFacts gathers Facts by running commands with executor. Use a
// shell.LocalExecutor for the local host and a shell.SSHExecutor for
// remote hosts.
func CollectFacts(ctx context.Context, executor shell.Executor) (*Facts, error) {
	var facts Facts

	output, err := run(ctx, executor, hostnameCmd)
	if err != nil {
		return nil, err
	}
	facts.FQDN = output

	output, err = run(ctx, executor, kernelCmd)
	if err != nil {
		return nil, err
	}
	facts.KernelRelease = output

	output, err = run(ctx, executor, cpusCmd)
	if err != nil {
		return nil, err
	}
	facts.CPUs, err = strconv.Atoi(output)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "CollectFacts: parse nproc output")
	}

	output, err = run(ctx, executor, memInfoCmd)
	if err != nil {
		return nil, err
	}
	facts.MemoryBytes, err = parseMemTotal(output)
	if err != nil {
		return nil, err
	}

	return &facts, nil
}

func run(ctx context.Context, executor shell.Executor, cmd []string) (string, error) {
	output, err := executor.Output(ctx, cmd[0], cmd[1:]...)
	if err != nil {
		return "", pkgErrors.Wrapf(err, "CollectFacts: run %s", cmd[0])
	}

	return strings.TrimSpace(string(output)), nil
}

// parseMemTotal extracts the MemTotal line of /proc/meminfo, which is given
// in kB.
func parseMemTotal(meminfo string) (uint64, error) {
	for _, line := range strings.Split(meminfo, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}

		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, pkgErrors.Wrap(err, "parseMemTotal: parse value")
		}
		return kb * 1024, nil
	}

	return 0, pkgErrors.New("parseMemTotal: MemTotal not found")
}
