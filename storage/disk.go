package storage

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

type DiskStorage struct {
	// BasePath is a directory (usually mount point of a disk) that is writable by the current process
	BasePath  string
	bucket    Bucket
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(bucket *Bucket) StorageAPI {
	return &DiskStorage{
		BasePath: bucket.Path,
		bucket:   *bucket,
		dirs:     make(map[string]bool, 10),
	}
}

func (s *DiskStorage) GetBucket() *Bucket {
	return &s.bucket
}

func (s *DiskStorage) GetFullPath(path string) string {
	return s.BasePath + "/" + path
}

func (s *DiskStorage) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	s.dirs[dir] = true
	return os.MkdirAll(dir, 0777)
}

func (s *DiskStorage) GetSize(path string) int64 {
	fi, err := os.Stat(s.GetFullPath(path))
	if err != nil {
		return -1
	}
	return fi.Size()
}

func (s *DiskStorage) Save(path string, reader io.Reader) (int64, error) {
	fileName := s.GetFullPath(path)
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	file.Close()
	return result, err
}

// limitedFile closes the underlying file when the ranged view is closed
type limitedFile struct {
	io.Reader
	file *os.File
}

func (l *limitedFile) Close() error {
	return l.file.Close()
}

func (s *DiskStorage) OpenRange(path string, start, end int64) (io.ReadCloser, int64, error) {
	file, err := os.Open(s.GetFullPath(path))
	if err != nil {
		return nil, 0, err
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	size := fi.Size()
	if start >= size {
		file.Close()
		return nil, size, ErrOutOfRange
	}
	if end < 0 || end >= size {
		end = size - 1
	}
	if start > 0 {
		if _, err = file.Seek(start, io.SeekStart); err != nil {
			file.Close()
			return nil, size, err
		}
	}
	return &limitedFile{Reader: io.LimitReader(file, end-start+1), file: file}, size, nil
}

func (s *DiskStorage) Delete(path string) error {
	err := os.Remove(s.GetFullPath(path))
	if os.IsNotExist(err) {
		// Delete is idempotent
		return nil
	}
	return err
}
