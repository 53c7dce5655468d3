package catalog

import (
	"time"
)

type Driver string

const (
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
)

type Entry struct {
	RemotePath string `json:"remote_path"`
	LocalPath  string `json:"local_path"`
	Name       string `json:"name"`
	Extension  string `json:"extension"`

	ContentType string `json:"content_type"`

	SizeBytes uint64 `json:"size_bytes"`

	HashSumSHA512 string `json:"hash_sum_sha512"`

	DownloadedTimestamp *time.Time `json:"downloaded_timestamp"`
}

type Catalog interface {
	Store(e Entry) error
	Close() error
}
