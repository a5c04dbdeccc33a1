// Package webhdfs implements a client for the WebHDFS REST API of HDFS
// namenodes.
//
// The client is bound to a list of namenode HTTP addresses and a user name.
// Requests are sent to the namenode which answered last; if it is
// unreachable or in standby, the remaining namenodes are tried in order.
package webhdfs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/go-resty/resty/v2"
	pkgErrors "github.com/pkg/errors"
)

// Error variables related to Client.
var (
	ErrNoNamenodes = errors.New("no namenodes configured")
	ErrUnavailable = errors.New("no namenode available")
	ErrNotFound    = errors.New("file not found")
)

const (
	pathPrefix = "/webhdfs/v1"

	standbyException      = "StandbyException"
	fileNotFoundException = "FileNotFoundException"
)

var _ error = &RemoteError{}

// RemoteError is an exception reported by a namenode.
type RemoteError struct {
	StatusCode    int    `json:"-"`
	Exception     string `json:"exception"`
	JavaClassName string `json:"javaClassName"`
	Message       string `json:"message"`
}

func (r *RemoteError) Error() string {
	return fmt.Sprintf("webhdfs: %s (HTTP status %d): %s", r.Exception, r.StatusCode, r.Message)
}

func (r *RemoteError) Is(target error) bool {
	return target == ErrNotFound && r.Exception == fileNotFoundException
}

type remoteExceptionResponse struct {
	RemoteException RemoteError `json:"RemoteException"`
}

// FileStatus is the status of a file or directory as returned by WebHDFS.
type FileStatus struct {
	AccessTime       int64  `json:"accessTime"`
	BlockSize        int64  `json:"blockSize"`
	ChildrenNum      int64  `json:"childrenNum"`
	FileID           int64  `json:"fileId"`
	Group            string `json:"group"`
	Length           uint64 `json:"length"`
	ModificationTime int64  `json:"modificationTime"`
	Owner            string `json:"owner"`
	PathSuffix       string `json:"pathSuffix"`
	Permission       string `json:"permission"`
	Replication      int    `json:"replication"`
	Symlink          string `json:"symlink"`
	Type             string `json:"type"`
}

// File types of FileStatus.Type.
const (
	TypeFile      = "FILE"
	TypeDirectory = "DIRECTORY"
	TypeSymlink   = "SYMLINK"
)

// ModTime returns ModificationTime as time.Time.
func (f *FileStatus) ModTime() time.Time {
	return time.UnixMilli(f.ModificationTime)
}

// ContentSummary is the summary of a directory tree.
type ContentSummary struct {
	DirectoryCount int64  `json:"directoryCount"`
	FileCount      int64  `json:"fileCount"`
	Length         uint64 `json:"length"`
	Quota          int64  `json:"quota"`
	SpaceConsumed  uint64 `json:"spaceConsumed"`
	SpaceQuota     int64  `json:"spaceQuota"`
}

type fileStatusResponse struct {
	FileStatus FileStatus `json:"FileStatus"`
}

type listStatusResponse struct {
	FileStatuses struct {
		FileStatus []FileStatus `json:"FileStatus"`
	} `json:"FileStatuses"`
}

type contentSummaryResponse struct {
	ContentSummary ContentSummary `json:"ContentSummary"`
}

type booleanResponse struct {
	Boolean bool `json:"boolean"`
}

type Config struct {
	// Namenodes are the HTTP addresses (host:port) of the namenodes.
	Namenodes []string
	User      string
	// Scheme is "http" or "https". Defaults to "http".
	Scheme  string
	Timeout time.Duration

	Logger log.Interface
}

// Client is a WebHDFS client. It is safe for concurrent use.
type Client struct {
	namenodes []string
	user      string
	scheme    string

	http *resty.Client

	mu     sync.Mutex
	active int

	fieldLogger log.Interface
}

// New returns a Client for config. No requests are performed.
func New(config *Config) (*Client, error) {
	if len(config.Namenodes) == 0 {
		return nil, ErrNoNamenodes
	}

	c := &Client{
		namenodes: append([]string(nil), config.Namenodes...),
		user:      config.User,
		scheme:    config.Scheme,
		http:      resty.New(),
	}
	if len(c.scheme) == 0 {
		c.scheme = "http"
	}
	if config.Timeout > 0 {
		c.http.SetTimeout(config.Timeout)
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Log
	}
	c.fieldLogger = logger.WithFields(log.Fields{
		"package":   "webhdfs",
		"component": "Client",
		"user":      c.user,
	})

	return c, nil
}

// Namenodes returns the configured namenode addresses.
func (c *Client) Namenodes() []string {
	return append([]string(nil), c.namenodes...)
}

// GetFileStatus returns the status of path.
func (c *Client) GetFileStatus(ctx context.Context, path string) (*FileStatus, error) {
	var result fileStatusResponse

	err := c.do(ctx, http.MethodGet, path, "GETFILESTATUS", nil, &result)
	if err != nil {
		return nil, err
	}

	return &result.FileStatus, nil
}

// ListStatus returns the status of all children of the directory path.
func (c *Client) ListStatus(ctx context.Context, path string) ([]FileStatus, error) {
	var result listStatusResponse

	err := c.do(ctx, http.MethodGet, path, "LISTSTATUS", nil, &result)
	if err != nil {
		return nil, err
	}

	return result.FileStatuses.FileStatus, nil
}

// GetContentSummary returns the content summary of path.
func (c *Client) GetContentSummary(ctx context.Context, path string) (*ContentSummary, error) {
	var result contentSummaryResponse

	err := c.do(ctx, http.MethodGet, path, "GETCONTENTSUMMARY", nil, &result)
	if err != nil {
		return nil, err
	}

	return &result.ContentSummary, nil
}

// Mkdirs creates path and all missing parents.
func (c *Client) Mkdirs(ctx context.Context, path string) (bool, error) {
	var result booleanResponse

	err := c.do(ctx, http.MethodPut, path, "MKDIRS", nil, &result)
	if err != nil {
		return false, err
	}

	return result.Boolean, nil
}

// Delete deletes path. It returns false if path did not exist.
func (c *Client) Delete(ctx context.Context, path string, recursive bool) (bool, error) {
	var result booleanResponse

	err := c.do(ctx, http.MethodDelete, path, "DELETE", map[string]string{
		"recursive": strconv.FormatBool(recursive),
	}, &result)
	if err != nil {
		return false, err
	}

	return result.Boolean, nil
}

// Rename moves src to dest.
func (c *Client) Rename(ctx context.Context, src, dest string) (bool, error) {
	var result booleanResponse

	err := c.do(ctx, http.MethodPut, src, "RENAME", map[string]string{
		"destination": dest,
	}, &result)
	if err != nil {
		return false, err
	}

	return result.Boolean, nil
}

func (c *Client) do(ctx context.Context, method, path, op string, params map[string]string, result interface{}) error {
	c.mu.Lock()
	start := c.active
	c.mu.Unlock()

	var lastErr error

	for i := 0; i < len(c.namenodes); i++ {
		ind := (start + i) % len(c.namenodes)
		namenode := c.namenodes[ind]

		err := c.doNamenode(ctx, namenode, method, path, op, params, result)
		if err == nil {
			c.setActive(ind)
			return nil
		}

		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Exception != standbyException {
			// The namenode is active and reported an error for the request.
			c.setActive(ind)
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		c.fieldLogger.WithError(err).WithFields(log.Fields{
			"namenode": namenode,
			"op":       op,
		}).Debug("Namenode failed, trying next")

		lastErr = err
	}

	return pkgErrors.Wrapf(ErrUnavailable, "%s %s: %v", op, path, lastErr)
}

func (c *Client) setActive(ind int) {
	c.mu.Lock()
	c.active = ind
	c.mu.Unlock()
}

func (c *Client) doNamenode(ctx context.Context, namenode, method, path, op string, params map[string]string, result interface{}) error {
	var exception remoteExceptionResponse

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("op", op).
		SetQueryParams(params).
		SetResult(result).
		SetError(&exception)
	if len(c.user) > 0 {
		req.SetQueryParam("user.name", c.user)
	}

	// path is escaped by url.URL, it may contain '?', '#' or '%'.
	reqURL := url.URL{
		Scheme: c.scheme,
		Host:   namenode,
		Path:   pathPrefix + path,
	}

	resp, err := req.Execute(method, reqURL.String())
	if err != nil {
		return err
	}

	if resp.IsError() {
		remoteErr := exception.RemoteException
		remoteErr.StatusCode = resp.StatusCode()
		if len(remoteErr.Exception) == 0 {
			remoteErr.Exception = http.StatusText(resp.StatusCode())
			remoteErr.Message = resp.String()
		}
		return &remoteErr
	}

	return nil
}
