//go:build !unix

package fs

func fileOwnerUID(path string) (uint32, error) {
	return 0, newOpError("owner", path, ErrNotImplemented, nil)
}
