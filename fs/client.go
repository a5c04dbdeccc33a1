package fs

import (
	"context"

	"github.com/apex/log"
	pkgErrors "github.com/pkg/errors"

	"github.com/uob-dice/dice-lib/config"
	"github.com/uob-dice/dice-lib/shell"
)

type Config struct {
	// Site is the site configuration from which the mount table is built.
	Site *config.Config

	// Executor runs the commands of the POSIX backend. Defaults to a
	// shell.LocalExecutor.
	Executor shell.Executor
	// HDFS configures the HDFS backend. The Logger and Parallelism fields
	// are inherited if unset.
	HDFS HDFSConfig
	// Parallelism is the number of concurrent queries of SizeOfPaths.
	// Defaults to DefaultParallelism.
	Parallelism int

	// Registry replaces the default backend registry.
	Registry *Registry
	// Mounts lists the mounted file systems of the host for MountStatus.
	// Defaults to gofsutil.GetMounts.
	Mounts MountsFunc

	Logger log.Interface
}

// Client routes paths according to the site configuration and dispatches
// operations to the responsible backend.
//
// Operations accepting several paths resolve the backend from the first
// (routed) path only. All paths of one call must therefore belong to the
// same backend.
type Client struct {
	mounts   *MountTable
	registry *Registry

	listMounts MountsFunc

	fieldLogger log.Interface
}

// New builds the mount table from config.Site and sets up the backend
// registry. Backends are constructed on first use.
func New(config *Config) (*Client, error) {
	if config.Site == nil {
		return nil, pkgErrors.Wrap(ErrConfiguration, "fs.New: no site configuration")
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Log
	}

	c := &Client{
		mounts:     BuildMountTable(config.Site),
		registry:   config.Registry,
		listMounts: config.Mounts,
		fieldLogger: logger.WithFields(log.Fields{
			"package":   "fs",
			"component": "Client",
		}),
	}

	if c.registry == nil {
		registry, err := DefaultRegistry(config)
		if err != nil {
			return nil, err
		}
		c.registry = registry
	}
	if c.listMounts == nil {
		c.listMounts = defaultMounts
	}

	return c, nil
}

// NewFromFile loads the site configuration at path and calls New. All other
// fields of config are used as passed, config may be nil.
func NewFromFile(path string, config *Config) (*Client, error) {
	site, err := loadSite(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if config != nil {
		c = *config
	}
	c.Site = site

	return New(&c)
}

func loadSite(path string) (*config.Config, error) {
	site, err := config.Load(path)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "fs.NewFromFile")
	}
	return site, nil
}

// DefaultRegistry returns a Registry with a backend for each protocol
// constant of this package. file:// is the default.
func DefaultRegistry(config *Config) (*Registry, error) {
	logger := config.Logger

	hdfsConfig := config.HDFS
	if hdfsConfig.Logger == nil {
		hdfsConfig.Logger = logger
	}
	if hdfsConfig.Parallelism == 0 {
		hdfsConfig.Parallelism = config.Parallelism
	}

	posixConfig := &PosixConfig{
		Executor:    config.Executor,
		Parallelism: config.Parallelism,
		Logger:      logger,
	}

	return NewRegistry(logger, ProtocolFile,
		RegistryEntry{
			Protocol: ProtocolHDFS,
			Factory: func(ctx context.Context) (FileSystem, error) {
				return NewHDFSFileSystem(ctx, &hdfsConfig)
			},
		},
		RegistryEntry{
			Protocol: ProtocolFile,
			Factory: func(context.Context) (FileSystem, error) {
				return NewPosixFileSystem(posixConfig), nil
			},
		},
		stubEntry(ProtocolS3),
		stubEntry(ProtocolXRootD),
		stubEntry(ProtocolGridFTP),
		stubEntry(ProtocolDavix),
	)
}

func stubEntry(protocol string) RegistryEntry {
	return RegistryEntry{
		Protocol: protocol,
		Factory: func(context.Context) (FileSystem, error) {
			return newStubFileSystem(protocol), nil
		},
	}
}

// MountTable returns the mount table built from the site configuration.
func (c *Client) MountTable() *MountTable {
	return c.mounts
}

// Registry returns the backend registry of the client.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Route returns the routed form of each of paths.
func (c *Client) Route(paths ...string) []string {
	return c.mounts.Route(paths)
}

// resolve routes paths and returns the backend of the first routed path.
// Paths after the first which belong to another backend are logged.
func (c *Client) resolve(ctx context.Context, op string, paths ...string) (FileSystem, []string, error) {
	routed := c.mounts.Route(paths)
	if len(routed) == 0 {
		return nil, routed, nil
	}

	backend, err := c.registry.Resolve(ctx, routed[0])
	if err != nil {
		return nil, routed, err
	}

	for _, path := range routed[1:] {
		if protocol := c.registry.ProtocolOf(path); protocol != backend.Protocol() {
			c.fieldLogger.WithFields(log.Fields{
				"op":       op,
				"path":     path,
				"protocol": protocol,
				"backend":  backend.Protocol(),
			}).Warn("Path belongs to another backend than the first path of the call")
		}
	}

	c.fieldLogger.WithFields(log.Fields{
		"op":       op,
		"path":     routed[0],
		"protocol": backend.Protocol(),
	}).Debug("Dispatching operation")

	return backend, routed, nil
}

// resolveTransfer routes src and dest and returns their common backend.
// Transfers between backends are refused with ErrConfiguration.
func (c *Client) resolveTransfer(ctx context.Context, op, src, dest string) (FileSystem, string, string, error) {
	routed := c.mounts.Route([]string{src, dest})

	srcProtocol, destProtocol := c.registry.ProtocolOf(routed[0]), c.registry.ProtocolOf(routed[1])
	if srcProtocol != destProtocol {
		c.fieldLogger.WithFields(log.Fields{
			"op":            op,
			"src":           routed[0],
			"dest":          routed[1],
			"src_protocol":  srcProtocol,
			"dest_protocol": destProtocol,
		}).Warn("Refusing transfer between backends")

		return nil, routed[0], routed[1], newOpError(op, routed[1], ErrConfiguration,
			pkgErrors.Errorf("destination belongs to backend %s, source to backend %s", destProtocol, srcProtocol))
	}

	backend, _, err := c.resolve(ctx, op, routed[0])
	if err != nil {
		return nil, routed[0], routed[1], err
	}

	return backend, routed[0], routed[1], nil
}

// GetOwner returns the user name of the owner of path.
func (c *Client) GetOwner(ctx context.Context, path string) (string, error) {
	backend, routed, err := c.resolve(ctx, "owner", path)
	if err != nil {
		return "", err
	}
	return backend.GetOwner(ctx, routed[0])
}

func (c *Client) SizeOf(ctx context.Context, path string) (SizeRecord, error) {
	backend, routed, err := c.resolve(ctx, "size", path)
	if err != nil {
		return SizeRecord{Path: routed[0]}, err
	}
	return backend.SizeOf(ctx, routed[0])
}

// SizeOfPaths returns the size of each of paths, in order. Failures are
// reported per path in SizeResult.Err.
func (c *Client) SizeOfPaths(ctx context.Context, paths ...string) []SizeResult {
	if len(paths) == 0 {
		return []SizeResult{}
	}

	backend, routed, err := c.resolve(ctx, "size", paths...)
	if err != nil {
		results := make([]SizeResult, len(paths))
		for ind := range results {
			results[ind] = SizeResult{Record: SizeRecord{Path: routed[ind]}, Err: err}
		}
		return results
	}

	results := backend.SizeOfMany(ctx, routed)
	for _, result := range results {
		if result.Err != nil {
			c.fieldLogger.WithError(result.Err).
				WithField("path", result.Record.Path).
				Warn("Encountered error while querying size")
		}
	}

	return results
}

func (c *Client) List(ctx context.Context, path string) ([]ListingRecord, error) {
	backend, routed, err := c.resolve(ctx, "list", path)
	if err != nil {
		return nil, err
	}
	return backend.List(ctx, routed[0])
}

func (c *Client) Mkdir(ctx context.Context, path string) error {
	backend, routed, err := c.resolve(ctx, "mkdir", path)
	if err != nil {
		return err
	}
	return backend.Mkdir(ctx, routed[0])
}

func (c *Client) Remove(ctx context.Context, path string) error {
	backend, routed, err := c.resolve(ctx, "remove", path)
	if err != nil {
		return err
	}
	return backend.Remove(ctx, routed[0])
}

func (c *Client) RemoveRecursive(ctx context.Context, path string) error {
	backend, routed, err := c.resolve(ctx, "remove", path)
	if err != nil {
		return err
	}
	return backend.RemoveRecursive(ctx, routed[0])
}

func (c *Client) Copy(ctx context.Context, src, dest string) error {
	backend, src, dest, err := c.resolveTransfer(ctx, "copy", src, dest)
	if err != nil {
		return err
	}
	return backend.Copy(ctx, src, dest)
}

func (c *Client) CopyRecursive(ctx context.Context, src, dest string) error {
	backend, src, dest, err := c.resolveTransfer(ctx, "copy", src, dest)
	if err != nil {
		return err
	}
	return backend.CopyRecursive(ctx, src, dest)
}

func (c *Client) Move(ctx context.Context, src, dest string) error {
	backend, src, dest, err := c.resolveTransfer(ctx, "move", src, dest)
	if err != nil {
		return err
	}
	return backend.Move(ctx, src, dest)
}
