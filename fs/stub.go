package fs

import (
	"context"
)

var _ FileSystem = &stubFileSystem{}

// stubFileSystem is registered for protocols which are recognised but not
// supported. All operations fail with ErrNotImplemented.
type stubFileSystem struct {
	protocol string
}

func newStubFileSystem(protocol string) *stubFileSystem {
	return &stubFileSystem{protocol: protocol}
}

func (s *stubFileSystem) Protocol() string {
	return s.protocol
}

func (s *stubFileSystem) notImplemented(op, path string) error {
	return newOpError(op, path, ErrNotImplemented, nil)
}

func (s *stubFileSystem) SizeOf(ctx context.Context, path string) (SizeRecord, error) {
	return SizeRecord{Path: path}, s.notImplemented("size", path)
}

func (s *stubFileSystem) SizeOfMany(ctx context.Context, paths []string) []SizeResult {
	results := make([]SizeResult, len(paths))
	for ind, path := range paths {
		results[ind].Record, results[ind].Err = s.SizeOf(ctx, path)
	}
	return results
}

func (s *stubFileSystem) GetOwner(ctx context.Context, path string) (string, error) {
	return "", s.notImplemented("owner", path)
}

func (s *stubFileSystem) List(ctx context.Context, path string) ([]ListingRecord, error) {
	return nil, s.notImplemented("list", path)
}

func (s *stubFileSystem) Mkdir(ctx context.Context, path string) error {
	return s.notImplemented("mkdir", path)
}

func (s *stubFileSystem) Remove(ctx context.Context, path string) error {
	return s.notImplemented("remove", path)
}

func (s *stubFileSystem) RemoveRecursive(ctx context.Context, path string) error {
	return s.notImplemented("remove", path)
}

func (s *stubFileSystem) Copy(ctx context.Context, src, dest string) error {
	return s.notImplemented("copy", src)
}

func (s *stubFileSystem) CopyRecursive(ctx context.Context, src, dest string) error {
	return s.notImplemented("copy", src)
}

func (s *stubFileSystem) Move(ctx context.Context, src, dest string) error {
	return s.notImplemented("move", src)
}
