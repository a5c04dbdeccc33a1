package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/user"
	"strconv"
	"time"

	"github.com/apex/log"

	"github.com/uob-dice/dice-lib/internal/cache"
	"github.com/uob-dice/dice-lib/internal/osutils"
	"github.com/uob-dice/dice-lib/shell"
)

// Commands run by PosixFileSystem. The flags are fixed, parseListing depends
// on the column layout produced by the ls flags.
var (
	posixSizeCmd            = []string{"nice", "-n19", "du", "-s"}
	posixCopyCmd            = []string{"cp", "-p"}
	posixCopyRecursiveCmd   = []string{"cp", "-pr"}
	posixMoveCmd            = []string{"mv"}
	posixListCmd            = []string{"ls", "-la", "--time-style=long-iso"}
	posixMkdirCmd           = []string{"mkdir", "-p"}
	posixRemoveCmd          = []string{"rm", "-f"}
	posixRemoveRecursiveCmd = []string{"rm", "-fr"}
)

// duBlockSize is the unit of the sizes printed by du -s.
const duBlockSize = 1024

type PosixConfig struct {
	// Executor runs the commands. Defaults to a shell.LocalExecutor.
	Executor shell.Executor
	// Parallelism is the number of concurrent du processes spawned by
	// SizeOfMany. Defaults to DefaultParallelism.
	Parallelism int
	// Location is used to interpret the timestamps printed by ls. Defaults
	// to time.Local.
	Location *time.Location
	// OwnerCacheTTL is the lifetime of cached uid to user name resolutions.
	// Zero disables caching.
	OwnerCacheTTL time.Duration

	Logger log.Interface
}

var _ FileSystem = &PosixFileSystem{}

// PosixFileSystem accesses file systems mounted on the local host by running
// coreutils commands.
//
// Paths may carry the file:// prefix. Being the default backend, any other
// unrecognised "scheme://" prefix is removed as well.
type PosixFileSystem struct {
	executor    shell.Executor
	parallelism int
	location    *time.Location

	owners cache.ExpiringCache[uint32, string]

	fieldLogger log.Interface
}

func NewPosixFileSystem(config *PosixConfig) *PosixFileSystem {
	if config == nil {
		config = &PosixConfig{}
	}

	p := &PosixFileSystem{
		executor:    config.Executor,
		parallelism: config.Parallelism,
		location:    config.Location,
	}

	if p.executor == nil {
		p.executor = &shell.LocalExecutor{}
	}
	if p.parallelism <= 0 {
		p.parallelism = DefaultParallelism
	}
	if p.location == nil {
		p.location = time.Local
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Log
	}
	p.fieldLogger = logger.WithFields(log.Fields{
		"package":   "fs",
		"component": "PosixFileSystem",
	})

	p.owners.TTL = config.OwnerCacheTTL
	p.owners.Fetch = lookupUserName

	return p
}

func (p *PosixFileSystem) Protocol() string {
	return ProtocolFile
}

func (p *PosixFileSystem) nativePath(path string) string {
	return stripProtocol(path, ProtocolFile, true)
}

func (p *PosixFileSystem) SizeOf(ctx context.Context, path string) (SizeRecord, error) {
	path = p.nativePath(path)

	output, err := p.run(ctx, "size", path, ErrCommandFailed, posixSizeCmd, path)
	if err != nil {
		return SizeRecord{Path: path}, err
	}

	fields := bytes.Fields(output)
	if len(fields) < 2 {
		return SizeRecord{Path: path}, newOpError("size", path, ErrParse, errors.New("unexpected du output: "+string(output)))
	}

	blocks, err := strconv.ParseUint(string(fields[0]), 10, 64)
	if err != nil {
		return SizeRecord{Path: path}, newOpError("size", path, ErrParse, err)
	}

	return newSizeRecord(path, blocks*duBlockSize), nil
}

func (p *PosixFileSystem) SizeOfMany(ctx context.Context, paths []string) []SizeResult {
	return sizeOfMany(ctx, paths, p.parallelism, p.nativePath, p.SizeOf)
}

func (p *PosixFileSystem) GetOwner(ctx context.Context, path string) (string, error) {
	path = p.nativePath(path)

	if err := ctx.Err(); err != nil {
		return "", newOpError("owner", path, ErrCommandFailed, err)
	}

	uid, err := fileOwnerUID(path)
	if err != nil {
		return "", err
	}

	name, err := p.owners.Lookup(uid)
	if err != nil {
		var unknownErr user.UnknownUserIdError
		if errors.As(err, &unknownErr) {
			p.fieldLogger.WithField("uid", uid).Debug("Owner id could not be resolved")
			return UnknownOwner, nil
		}
		return "", newOpError("owner", path, ErrBackendUnavailable, err)
	}

	return name, nil
}

func lookupUserName(uid uint32) (string, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (p *PosixFileSystem) List(ctx context.Context, path string) ([]ListingRecord, error) {
	path = p.nativePath(path)

	output, err := p.run(ctx, "list", path, ErrCommandFailed, posixListCmd, path)
	if err != nil {
		return nil, err
	}

	records, err := parseListing(output, path, p.location)
	if err != nil {
		return nil, newOpError("list", path, ErrParse, err)
	}

	return records, nil
}

func (p *PosixFileSystem) Mkdir(ctx context.Context, path string) error {
	path = p.nativePath(path)
	_, err := p.run(ctx, "mkdir", path, ErrCommandFailed, posixMkdirCmd, path)
	return err
}

func (p *PosixFileSystem) Remove(ctx context.Context, path string) error {
	path = p.nativePath(path)
	_, err := p.run(ctx, "remove", path, ErrCommandFailed, posixRemoveCmd, path)
	return err
}

func (p *PosixFileSystem) RemoveRecursive(ctx context.Context, path string) error {
	path = p.nativePath(path)
	_, err := p.run(ctx, "remove", path, ErrCommandFailed, posixRemoveRecursiveCmd, path)
	return err
}

func (p *PosixFileSystem) Copy(ctx context.Context, src, dest string) error {
	src, dest = p.nativePath(src), p.nativePath(dest)
	_, err := p.run(ctx, "copy", src, ErrTransfer, posixCopyCmd, src, dest)
	return err
}

func (p *PosixFileSystem) CopyRecursive(ctx context.Context, src, dest string) error {
	src, dest = p.nativePath(src), p.nativePath(dest)
	_, err := p.run(ctx, "copy", src, ErrTransfer, posixCopyRecursiveCmd, src, dest)
	return err
}

func (p *PosixFileSystem) Move(ctx context.Context, src, dest string) error {
	src, dest = p.nativePath(src), p.nativePath(dest)
	_, err := p.run(ctx, "move", src, ErrTransfer, posixMoveCmd, src, dest)
	return err
}

// run executes cmd with args appended. Errors are returned as *OpError, a
// non-zero exit status is reported as failKind. A missing path reported by
// the command is reported as ErrPathNotFound, except for transfers: these
// keep ErrTransfer and carry ErrPathNotFound as detail.
func (p *PosixFileSystem) run(ctx context.Context, op, path string, failKind error, cmd []string, args ...string) ([]byte, error) {
	cmdArgs := make([]string, 0, len(cmd)-1+len(args))
	cmdArgs = append(cmdArgs, cmd[1:]...)
	cmdArgs = append(cmdArgs, args...)

	p.fieldLogger.WithFields(log.Fields{
		"op":      op,
		"command": shell.CommandLine(cmd[0], cmdArgs...),
	}).Debug("Running command")

	output, err := p.executor.Output(ctx, cmd[0], cmdArgs...)
	if err == nil {
		return output, nil
	}

	var cliErr *shell.CLIError
	switch {
	case osutils.IsExecNotFound(err):
		return nil, newOpError(op, path, ErrBackendUnavailable, err)
	case errors.As(err, &cliErr):
		if osutils.IsNotExistMessage(cliErr.Stderr) {
			if failKind == ErrTransfer {
				return nil, newOpError(op, path, ErrTransfer, fmt.Errorf("%w: %w", ErrPathNotFound, err))
			}
			return nil, newOpError(op, path, ErrPathNotFound, err)
		}
		return nil, newOpError(op, path, failKind, err)
	default:
		return nil, newOpError(op, path, failKind, err)
	}
}
