//go:build unix

package fs

import (
	"golang.org/x/sys/unix"
)

func fileOwnerUID(path string) (uint32, error) {
	var stat unix.Stat_t

	err := unix.Stat(path, &stat)
	if err != nil {
		if err == unix.ENOENT || err == unix.ENOTDIR {
			return 0, newOpError("owner", path, ErrPathNotFound, err)
		}
		return 0, newOpError("owner", path, ErrCommandFailed, err)
	}

	return stat.Uid, nil
}
