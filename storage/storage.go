package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"
	"videoflow/config"
	"videoflow/db"
	"videoflow/utils"
)

// ErrOutOfRange is returned by OpenRange when the requested start byte is
// at or past the end of the stored file.
var ErrOutOfRange = errors.New("requested range starts past end of file")

type StorageAPI interface {
	GetBucket() *Bucket
	GetFullPath(path string) string
	GetSize(path string) int64
	Save(path string, reader io.Reader) (int64, error)
	// OpenRange returns a reader over [start,end] (inclusive) and the total
	// file size. end < 0 means until EOF. start/end of 0,-1 is the whole file.
	OpenRange(path string, start, end int64) (io.ReadCloser, int64, error)
	Delete(path string) error
}

var (
	cachedStorage []StorageAPI
)

func Init() {
	if err := db.Instance.AutoMigrate(&Bucket{}); err != nil {
		panic(err)
	}
	cachedStorage = []StorageAPI{}
	var buckets []Bucket
	if err := db.Instance.Find(&buckets).Error; err != nil {
		panic(err)
	}
	if len(buckets) == 0 && config.UPLOAD_DIR != "" {
		bucket := Bucket{
			Name:        "local",
			StorageType: StorageTypeFile,
			Path:        config.UPLOAD_DIR,
		}
		if err := db.Instance.Create(&bucket).Error; err != nil {
			panic(err)
		}
		buckets = append(buckets, bucket)
	}
	log.Printf("Storage Buckets found: %d\n", len(buckets))
	for _, bucket := range buckets {
		if bucket.StorageType == StorageTypeFile {
			cachedStorage = append(cachedStorage, NewDiskStorage(&bucket))
		} else if bucket.StorageType == StorageTypeS3 {
			cachedStorage = append(cachedStorage, NewS3Storage(&bucket))
		} else {
			panic(fmt.Sprintf("Storage type unavailable for Bucket %d", bucket.ID))
		}
	}
}

func StorageFrom(bucket *Bucket) StorageAPI {
	for _, s := range cachedStorage {
		if s.GetBucket().ID == bucket.ID {
			return s
		}
	}
	return nil
}

func GetDefaultStorage() StorageAPI {
	if len(cachedStorage) == 0 {
		panic("no storage available")
	}
	for _, s := range cachedStorage {
		if s.GetBucket().StorageType == StorageTypeFile {
			return s
		}
	}
	return cachedStorage[0]
}

// NewFileKey generates a collision-free key for a newly uploaded file:
// timestamp plus a random suffix, keeping the original extension.
func NewFileKey(ext string) string {
	return "videos/" + strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + utils.Rand8BytesToBase62() + ext
}
