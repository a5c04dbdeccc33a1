package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/olekukonko/tablewriter"

	"github.com/uob-dice/dice-lib/host"
	"github.com/uob-dice/dice-lib/shell"
	"github.com/uob-dice/dice-lib/units"
)

var (
	facts           = app.Command("facts", "Print facts about the local host or a remote host.")
	factsSSHHost    = facts.Flag("ssh-host", "Collect facts of this host via SSH instead of the local host.").PlaceHolder("HOST[:PORT]").String()
	factsSSHUser    = facts.Flag("ssh-user", "User name for SSH. Defaults to the current user.").String()
	factsSSHKey     = facts.Flag("ssh-key", "Private key for SSH.").PlaceHolder("id_ed25519").ExistingFile()
	factsKnownHosts = facts.Flag("known-hosts", "known_hosts file used to verify the host key. Defaults to ~/.ssh/known_hosts.").PlaceHolder("known_hosts").ExistingFile()
	factsInsecure   = facts.Flag("insecure-host-key", "Accept any host key. Only use this for hosts in a trusted network.").Bool()
)

func performFacts(ctx context.Context) error {
	logger := prepareAppLogger()

	executor, closeExecutor, err := prepareFactsExecutor(ctx, logger)
	if err != nil {
		return err
	}
	defer closeExecutor()

	hostFacts, err := host.CollectFacts(ctx, executor)
	if err != nil {
		logger.WithError(err).Error("Encountered error while collecting facts")
		return err
	}

	switch *appFormat {
	case "text":
		memory, unit := units.ScaleBytes(hostFacts.MemoryBytes)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
		table.SetHeader([]string{"FQDN", "Kernel", "CPUs", "Memory"})
		table.Append([]string{
			hostFacts.FQDN,
			hostFacts.KernelRelease,
			strconv.Itoa(hostFacts.CPUs),
			fmt.Sprintf("%.1f %s", memory, unit),
		})
		table.Render()
	case "json":
		return json.NewEncoder(os.Stdout).Encode(hostFacts)
	default:
		panic(fmt.Sprintf("facts: unsupported format '%s'", *appFormat))
	}

	return nil
}

func prepareFactsExecutor(ctx context.Context, logger log.Interface) (shell.Executor, func(), error) {
	if len(*factsSSHHost) == 0 {
		return &shell.LocalExecutor{}, func() {}, nil
	}

	user := *factsSSHUser
	if len(user) == 0 {
		user = host.CurrentUser()
	}

	executor, err := shell.DialSSH(ctx, &shell.SSHConfig{
		Addr:           *factsSSHHost,
		User:           user,
		KeyFile:        *factsSSHKey,
		KnownHostsFile: *factsKnownHosts,
		Insecure:       *factsInsecure,
		Timeout:        30 * time.Second,
	})
	if err != nil {
		logger.WithError(err).WithFields(log.Fields{
			"host": *factsSSHHost,
			"user": user,
		}).Error("Encountered error while connecting via SSH")
		return nil, nil, err
	}

	return executor, func() {
		_ = executor.Close()
	}, nil
}
