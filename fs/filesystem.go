// Package fs provides uniform file operations across the storage systems of
// a DICE site.
//
// Paths are routed by a MountTable built from the site configuration: a path
// below a configured mount point is rewritten to the protocol of the storage
// entry, e.g. /hdfs/user/x becomes hdfs:///user/x. The Registry then selects
// the FileSystem backend by protocol prefix, falling back to the POSIX
// backend. Client combines both and is the main entry point.
package fs

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uob-dice/dice-lib/units"
)

// Protocol prefixes known to the Registry.
const (
	ProtocolHDFS    = "hdfs://"
	ProtocolFile    = "file://"
	ProtocolS3      = "s3://"
	ProtocolXRootD  = "root://"
	ProtocolGridFTP = "gsiftp://"
	ProtocolDavix   = "davs://"
)

// FileSystem is the set of operations implemented by every storage backend.
//
// All paths passed to a FileSystem are expected to be routed, i.e. carry the
// protocol prefix of the backend. Operations block until the underlying
// command or request has completed or ctx is done.
type FileSystem interface {
	// Protocol returns the protocol prefix handled by the backend.
	Protocol() string

	// SizeOf returns the storage consumed by path, including all children.
	SizeOf(ctx context.Context, path string) (SizeRecord, error)
	// SizeOfMany calls SizeOf for each path. A failure for one path does
	// not affect the others, the results are in the order of paths.
	SizeOfMany(ctx context.Context, paths []string) []SizeResult
	// GetOwner returns the name of the owner of path. "unknown" is returned
	// if the owner's id can not be resolved to a name.
	GetOwner(ctx context.Context, path string) (string, error)
	// List returns the immediate children of the directory path.
	List(ctx context.Context, path string) ([]ListingRecord, error)

	// Mkdir creates path and all missing parents.
	Mkdir(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	RemoveRecursive(ctx context.Context, path string) error
	Copy(ctx context.Context, src, dest string) error
	CopyRecursive(ctx context.Context, src, dest string) error
	Move(ctx context.Context, src, dest string) error
}

// UnknownOwner is returned by GetOwner if the owner id could not be resolved.
const UnknownOwner = "unknown"

// SizeRecord is the result of a size query.
type SizeRecord struct {
	Path  string
	Bytes uint64
	// ScaledValue is Bytes in ScaledUnit, e.g. 1.5 and "kB" for 1536 bytes.
	ScaledValue float64
	ScaledUnit  string
}

func newSizeRecord(path string, bytes uint64) SizeRecord {
	scaled, unit := units.ScaleBytes(bytes)
	return SizeRecord{
		Path:        path,
		Bytes:       bytes,
		ScaledValue: scaled,
		ScaledUnit:  unit,
	}
}

// SizeResult is a SizeRecord or the error encountered while querying it.
type SizeResult struct {
	Record SizeRecord
	Err    error
}

// ListingRecord describes one entry of a directory listing.
type ListingRecord struct {
	// Permissions in the symbolic form of ls, e.g. "drwxr-xr-x".
	Permissions string
	Owner       string
	Group       string
	Size        uint64
	ScaledSize  float64
	ScaledUnit  string
	ModTime     time.Time
	// Name is the full path of the entry.
	Name string
	// LinkTarget is set for symbolic links.
	LinkTarget string
}

// DefaultParallelism is the number of concurrent queries issued by
// SizeOfMany if no other value is configured.
const DefaultParallelism = 4

// sizeOfMany queries the sizes of paths using at most parallelism concurrent
// calls to sizeOf. The Path of every record is set to native(path), whether
// the query succeeded or not.
func sizeOfMany(ctx context.Context, paths []string, parallelism int, native func(string) string, sizeOf func(context.Context, string) (SizeRecord, error)) []SizeResult {
	results := make([]SizeResult, len(paths))

	if parallelism < 1 {
		parallelism = 1
	}

	var group errgroup.Group
	group.SetLimit(parallelism)

	for ind := range paths {
		ind := ind
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[ind] = SizeResult{Record: SizeRecord{Path: native(paths[ind])}, Err: err}
				return nil
			}

			record, err := sizeOf(ctx, paths[ind])
			record.Path = native(paths[ind])
			results[ind] = SizeResult{Record: record, Err: err}
			return nil
		})
	}

	_ = group.Wait()

	return results
}

// stripProtocol removes the prefix protocol from path. If stripAny is true,
// any other "scheme://" prefix is removed as well.
func stripProtocol(path, protocol string, stripAny bool) string {
	if strings.HasPrefix(path, protocol) {
		return path[len(protocol):]
	}
	if stripAny {
		if ind := strings.Index(path, "://"); ind > 0 && !strings.Contains(path[:ind], "/") {
			return path[ind+len("://"):]
		}
	}
	return path
}
