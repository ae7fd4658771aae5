package file

import "os"

func Exists(file string) bool {
	stats, err := os.Stat(file)
	return !os.IsNotExist(err) && (stats != nil && !stats.IsDir())
}

func DirExists(file string) bool {
	stats, err := os.Stat(file)
	return !os.IsNotExist(err) && (stats != nil && stats.IsDir())
}

// EnsureDir creates the directory including its parents if it does not exist.
func EnsureDir(dir string) error {
	if DirExists(dir) {
		return nil
	}
	return os.MkdirAll(dir, 0750)
}
