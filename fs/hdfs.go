package fs

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	pkgErrors "github.com/pkg/errors"

	"github.com/uob-dice/dice-lib/fs/webhdfs"
	"github.com/uob-dice/dice-lib/host"
	"github.com/uob-dice/dice-lib/units"
)

const (
	DefaultHDFSSiteConfigPath = "/etc/hadoop/conf/hdfs-site.xml"

	namenodeHTTPAddressProperty = "dfs.namenode.http-address"
)

type HDFSConfig struct {
	// SiteConfigPath is the hdfs-site.xml file listing the namenodes.
	// Defaults to DefaultHDFSSiteConfigPath.
	SiteConfigPath string
	// Namenodes overrides the namenode HTTP addresses read from
	// SiteConfigPath.
	Namenodes []string
	// User is the user name sent to the namenodes. Defaults to the user
	// running the process.
	User string
	// Timeout of single requests, zero means no timeout.
	Timeout time.Duration
	// Parallelism is the number of concurrent requests issued by
	// SizeOfMany. Defaults to DefaultParallelism.
	Parallelism int

	Logger log.Interface
}

var _ FileSystem = &HDFSFileSystem{}

// HDFSFileSystem accesses HDFS through the WebHDFS API of its namenodes.
type HDFSFileSystem struct {
	client      *webhdfs.Client
	parallelism int

	fieldLogger log.Interface
}

// NewHDFSFileSystem discovers the namenodes and checks that one of them is
// reachable.
//
// ErrConfiguration is returned if no namenode could be discovered,
// ErrBackendUnavailable if none of them answered.
func NewHDFSFileSystem(ctx context.Context, config *HDFSConfig) (*HDFSFileSystem, error) {
	if config == nil {
		config = &HDFSConfig{}
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Log
	}

	namenodes := config.Namenodes
	if len(namenodes) == 0 {
		siteConfigPath := config.SiteConfigPath
		if len(siteConfigPath) == 0 {
			siteConfigPath = DefaultHDFSSiteConfigPath
		}

		var err error
		namenodes, err = ReadNamenodes(siteConfigPath)
		if err != nil {
			return nil, err
		}
	}

	user := config.User
	if len(user) == 0 {
		user = host.CurrentUser()
	}

	client, err := webhdfs.New(&webhdfs.Config{
		Namenodes: namenodes,
		User:      user,
		Timeout:   config.Timeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, pkgErrors.Wrap(ErrConfiguration, err.Error())
	}

	h := &HDFSFileSystem{
		client:      client,
		parallelism: config.Parallelism,
		fieldLogger: logger.WithFields(log.Fields{
			"package":   "fs",
			"component": "HDFSFileSystem",
		}),
	}
	if h.parallelism <= 0 {
		h.parallelism = DefaultParallelism
	}

	if _, err := client.GetFileStatus(ctx, "/"); err != nil {
		return nil, newOpError("connect", strings.Join(namenodes, ","), ErrBackendUnavailable, err)
	}

	h.fieldLogger.WithFields(log.Fields{
		"namenodes": namenodes,
		"user":      user,
	}).Info("Connected to HDFS")

	return h, nil
}

type hdfsSiteConfig struct {
	Properties []struct {
		Name  string `xml:"name"`
		Value string `xml:"value"`
	} `xml:"property"`
}

// ReadNamenodes returns the namenode HTTP addresses listed in the
// hdfs-site.xml file at path.
func ReadNamenodes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgErrors.Wrapf(ErrConfiguration, "ReadNamenodes: %v", err)
	}
	defer f.Close()

	return ParseNamenodes(f)
}

// ParseNamenodes returns the values of all properties whose name starts with
// dfs.namenode.http-address, in document order.
func ParseNamenodes(r io.Reader) ([]string, error) {
	var siteConfig hdfsSiteConfig

	if err := xml.NewDecoder(r).Decode(&siteConfig); err != nil {
		return nil, pkgErrors.Wrapf(ErrConfiguration, "ParseNamenodes: decode hdfs-site: %v", err)
	}

	var namenodes []string
	for _, property := range siteConfig.Properties {
		if strings.HasPrefix(strings.TrimSpace(property.Name), namenodeHTTPAddressProperty) {
			namenodes = append(namenodes, strings.TrimSpace(property.Value))
		}
	}

	if len(namenodes) == 0 {
		return nil, pkgErrors.Wrapf(ErrConfiguration, "ParseNamenodes: no %s property found", namenodeHTTPAddressProperty)
	}

	return namenodes, nil
}

func (h *HDFSFileSystem) Protocol() string {
	return ProtocolHDFS
}

// nativePath removes the protocol prefix. The result is always absolute.
func (h *HDFSFileSystem) nativePath(p string) string {
	p = stripProtocol(p, ProtocolHDFS, false)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func (h *HDFSFileSystem) SizeOf(ctx context.Context, p string) (SizeRecord, error) {
	p = h.nativePath(p)

	summary, err := h.client.GetContentSummary(ctx, p)
	if err != nil {
		return SizeRecord{Path: p}, h.opError("size", p, ErrCommandFailed, err)
	}

	return newSizeRecord(p, summary.SpaceConsumed), nil
}

func (h *HDFSFileSystem) SizeOfMany(ctx context.Context, paths []string) []SizeResult {
	return sizeOfMany(ctx, paths, h.parallelism, h.nativePath, h.SizeOf)
}

func (h *HDFSFileSystem) GetOwner(ctx context.Context, p string) (string, error) {
	p = h.nativePath(p)

	status, err := h.client.GetFileStatus(ctx, p)
	if err != nil {
		return "", h.opError("owner", p, ErrCommandFailed, err)
	}

	if len(status.Owner) == 0 {
		return UnknownOwner, nil
	}
	return status.Owner, nil
}

func (h *HDFSFileSystem) List(ctx context.Context, p string) ([]ListingRecord, error) {
	p = h.nativePath(p)

	statuses, err := h.client.ListStatus(ctx, p)
	if err != nil {
		return nil, h.opError("list", p, ErrCommandFailed, err)
	}

	records := make([]ListingRecord, 0, len(statuses))
	for ind := range statuses {
		status := &statuses[ind]

		permissions, err := symbolicPermissions(status.Type, status.Permission)
		if err != nil {
			return nil, newOpError("list", p, ErrParse, err)
		}

		scaled, unit := units.ScaleBytes(status.Length)
		records = append(records, ListingRecord{
			Permissions: permissions,
			Owner:       status.Owner,
			Group:       status.Group,
			Size:        status.Length,
			ScaledSize:  scaled,
			ScaledUnit:  unit,
			ModTime:     status.ModTime(),
			Name:        path.Join(p, status.PathSuffix),
			LinkTarget:  status.Symlink,
		})
	}

	return records, nil
}

func (h *HDFSFileSystem) Mkdir(ctx context.Context, p string) error {
	p = h.nativePath(p)

	ok, err := h.client.Mkdirs(ctx, p)
	if err != nil {
		return h.opError("mkdir", p, ErrCommandFailed, err)
	}
	if !ok {
		return newOpError("mkdir", p, ErrCommandFailed, nil)
	}
	return nil
}

func (h *HDFSFileSystem) Remove(ctx context.Context, p string) error {
	return h.remove(ctx, p, false)
}

func (h *HDFSFileSystem) RemoveRecursive(ctx context.Context, p string) error {
	return h.remove(ctx, p, true)
}

func (h *HDFSFileSystem) remove(ctx context.Context, p string, recursive bool) error {
	p = h.nativePath(p)

	ok, err := h.client.Delete(ctx, p, recursive)
	if err != nil {
		return h.opError("remove", p, ErrCommandFailed, err)
	}
	if !ok {
		return newOpError("remove", p, ErrPathNotFound, nil)
	}
	return nil
}

// Copy is not supported by WebHDFS without streaming file contents through
// the client.
func (h *HDFSFileSystem) Copy(ctx context.Context, src, dest string) error {
	return newOpError("copy", h.nativePath(src), ErrNotImplemented, nil)
}

func (h *HDFSFileSystem) CopyRecursive(ctx context.Context, src, dest string) error {
	return newOpError("copy", h.nativePath(src), ErrNotImplemented, nil)
}

func (h *HDFSFileSystem) Move(ctx context.Context, src, dest string) error {
	src, dest = h.nativePath(src), h.nativePath(dest)

	ok, err := h.client.Rename(ctx, src, dest)
	if err != nil {
		return h.opError("move", src, ErrTransfer, err)
	}
	if !ok {
		return newOpError("move", src, ErrTransfer, errors.New("rename to "+dest+" refused"))
	}
	return nil
}

func (h *HDFSFileSystem) opError(op, p string, failKind, err error) error {
	switch {
	case errors.Is(err, webhdfs.ErrNotFound):
		return newOpError(op, p, ErrPathNotFound, err)
	case errors.Is(err, webhdfs.ErrUnavailable):
		return newOpError(op, p, ErrBackendUnavailable, err)
	default:
		return newOpError(op, p, failKind, err)
	}
}

// symbolicPermissions converts an octal WebHDFS permission string, e.g.
// "755" or "1777", to the form printed by ls, e.g. "drwxr-xr-x".
func symbolicPermissions(fileType, octal string) (string, error) {
	mode, err := strconv.ParseUint(octal, 8, 32)
	if err != nil {
		return "", pkgErrors.Wrapf(err, "symbolicPermissions: parse %q", octal)
	}

	var b strings.Builder
	b.Grow(10)

	switch fileType {
	case webhdfs.TypeDirectory:
		b.WriteByte('d')
	case webhdfs.TypeSymlink:
		b.WriteByte('l')
	default:
		b.WriteByte('-')
	}

	const rwx = "rwx"
	for i := 8; i >= 0; i-- {
		if mode&(1<<uint(i)) != 0 {
			b.WriteByte(rwx[(8-i)%3])
		} else {
			b.WriteByte('-')
		}
	}

	perm := []byte(b.String())
	if mode&0o1000 != 0 {
		if perm[9] == 'x' {
			perm[9] = 't'
		} else {
			perm[9] = 'T'
		}
	}

	return string(perm), nil
}
