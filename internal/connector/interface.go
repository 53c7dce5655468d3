package connector

import (
	"context"
	"io"
)

type Connector interface {
	ListFiles(ctx context.Context, url string) ([]string, error)
	ListFolders(ctx context.Context, parentPath string) ([]string, error)
	Get(ctx context.Context, fileURL string) (io.ReadCloser, error)
	BaseURL() string
}
