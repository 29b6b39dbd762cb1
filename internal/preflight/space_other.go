//go:build !(linux || darwin || freebsd)

package preflight

func freeSpace(dir string) (int64, error) {
	return 0, errFreeSpaceUnsupported
}
