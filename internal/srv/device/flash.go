package device

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/jypelle/navlink/internal/srv/checkpoint"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	flashPageSize  = 256
	flashBlockSize = 4096
	flashBlocks    = 64
	flashStateDir  = "/state"
	flashTmpSuffix = ".tmp"
)

// FileBlockDevice emulates a NOR flash chip inside a plain file.
type FileBlockDevice struct {
	file *os.File
	size int64
}

// OpenFileBlockDevice opens filename, creating an erased image when it does not exist.
func OpenFileBlockDevice(filename string) (*FileBlockDevice, error) {
	size := int64(flashBlockSize * flashBlocks)
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	dev := &FileBlockDevice{file: file, size: size}
	if info.Size() < size {
		if err := dev.EraseBlocks(0, flashBlocks); err != nil {
			file.Close()
			return nil, err
		}
	}
	return dev, nil
}

func (d *FileBlockDevice) ReadAt(buf []byte, off int64) (int, error) {
	return d.file.ReadAt(buf, off)
}

func (d *FileBlockDevice) WriteAt(buf []byte, off int64) (int, error) {
	return d.file.WriteAt(buf, off)
}

func (d *FileBlockDevice) Size() int64 {
	return d.size
}

func (d *FileBlockDevice) WriteBlockSize() int64 {
	return flashPageSize
}

func (d *FileBlockDevice) EraseBlockSize() int64 {
	return flashBlockSize
}

func (d *FileBlockDevice) EraseBlocks(start, count int64) error {
	erased := make([]byte, flashBlockSize)
	for i := range erased {
		erased[i] = 0xFF
	}
	for block := start; block < start+count; block++ {
		if _, err := d.file.WriteAt(erased, block*flashBlockSize); err != nil {
			return err
		}
	}
	return d.file.Sync()
}

func (d *FileBlockDevice) Close() error {
	return d.file.Close()
}

// FlashStorage keeps one file per key on a littlefs volume.
type FlashStorage struct {
	lock sync.Mutex
	fs   *littlefs.LFS
}

// NewFlashStorage mounts the volume, formatting it when it holds no filesystem yet.
func NewFlashStorage(blockDev tinyfs.BlockDevice) (*FlashStorage, error) {
	lfs := littlefs.New(blockDev)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := lfs.Mount(); err != nil {
		logrus.Infof("Format flash storage")
		if err := lfs.Format(); err != nil {
			return nil, fmt.Errorf("unable to format flash storage: %w", err)
		}
		if err := lfs.Mount(); err != nil {
			return nil, fmt.Errorf("unable to mount flash storage: %w", err)
		}
	}

	storage := &FlashStorage{fs: lfs}
	if err := lfs.Mkdir(flashStateDir, 0755); err != nil && !isExist(err) {
		return nil, err
	}
	storage.cleanup()
	return storage, nil
}

// cleanup removes temporary files left over from interrupted writes.
func (s *FlashStorage) cleanup() {
	dir, err := s.fs.Open(flashStateDir)
	if err != nil {
		return
	}
	defer dir.Close()
	entries, err := dir.Readdir(-1)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), flashTmpSuffix) {
			s.fs.Remove(path.Join(flashStateDir, entry.Name()))
		}
	}
}

func (s *FlashStorage) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.fs.Unmount()
}

func (s *FlashStorage) keyPath(key string) string {
	return path.Join(flashStateDir, key)
}

func (s *FlashStorage) Get(key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	f, err := s.fs.Open(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "No directory entry") {
			return nil, checkpoint.ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	var data []byte
	buf := make([]byte, 64)
	for {
		n, err := f.Read(buf)
		data = append(data, buf[:n]...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Put writes to a temporary file, syncs it, then renames it over the previous value.
func (s *FlashStorage) Put(key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	filepath := s.keyPath(key)
	tempPath := filepath + flashTmpSuffix
	s.fs.Remove(tempPath)

	f, err := s.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		s.fs.Remove(tempPath)
		return err
	}
	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			s.fs.Remove(tempPath)
			return err
		}
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tempPath)
		return err
	}

	// littlefs rename does not replace
	s.fs.Remove(filepath)
	if err := s.fs.Rename(tempPath, filepath); err != nil {
		s.fs.Remove(tempPath)
		return err
	}
	return nil
}

func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}
