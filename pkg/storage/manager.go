package storage

import (
	"fmt"
	"io"
	"sync"

	"github.com/alenadem/stonecart/config"
	"github.com/alenadem/stonecart/pkg/logger"
)

var (
	mu          sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk string
)

// Connect boots the configured disks. Call once at startup.
// The local driver is always available; the s3 driver joins when S3_BUCKET
// is set. A broken S3 config logs a warning and leaves only local.
func Connect() {
	mu.Lock()
	defer mu.Unlock()

	defaultDisk = config.StorageDefault()
	disks["local"] = newLocalDisk()

	if config.StorageS3Bucket() == "" {
		return
	}
	d, err := newS3Disk()
	if err != nil {
		logger.Warn("storage: s3 disk disabled", "err", err)
		return
	}
	disks["s3"] = d
}

// Use returns the named disk ("local" or "s3"). Panics on an unconfigured
// name; that is a wiring bug, not a runtime condition.
func Use(name string) Disk {
	mu.RLock()
	d, ok := disks[name]
	mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("storage: disk %q is not configured", name))
	}
	return d
}

// RegisterDisk plugs in a custom Disk under name. Meant for tests and boot.
func RegisterDisk(name string, d Disk) {
	mu.Lock()
	disks[name] = d
	mu.Unlock()
}

func active() Disk { return Use(defaultDisk) }

// The helpers below proxy to the default disk (STORAGE_DISK, default local).
// Photo uploads in the admin controller go through PutStream.

func Put(path string, content []byte) error        { return active().Put(path, content) }
func PutStream(path string, r io.Reader) error     { return active().PutStream(path, r) }
func Get(path string) ([]byte, error)              { return active().Get(path) }
func GetStream(path string) (io.ReadCloser, error) { return active().GetStream(path) }
func Exists(path string) bool                      { return active().Exists(path) }
func Size(path string) (int64, error)              { return active().Size(path) }
func URL(path string) string                       { return active().URL(path) }
func Delete(path string) error                     { return active().Delete(path) }
func Files(directory string) ([]string, error)     { return active().Files(directory) }
func DeleteDirectory(path string) error            { return active().DeleteDirectory(path) }
