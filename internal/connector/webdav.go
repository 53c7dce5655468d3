package connector

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kataglyphis/davmirror/internal/remotepath"
)

const (
	methodPropfind    = "PROPFIND"
	statusMultiStatus = 207

	requestTimeout = 30 * time.Second
)

// ListError reports a PROPFIND that was answered with something other than
// 207 multistatus.
type ListError struct {
	StatusCode int
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list directory contents: unexpected status %d", e.StatusCode)
}

type WebdavConnectorConfig struct {
	BaseURL  string
	Username string
	Password string
}

type WebdavConnector struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	lg         *zap.Logger
}

func NewWebdavConnector(cfg WebdavConnectorConfig, lg *zap.Logger) Connector {
	return &WebdavConnector{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				IdleConnTimeout:     20 * time.Second,
				MaxIdleConns:        5,
				MaxIdleConnsPerHost: 2,
			},
		},
		lg: lg,
	}
}

func (c *WebdavConnector) BaseURL() string {
	return c.baseURL
}

func (c *WebdavConnector) propfind(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, methodPropfind, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build propfind request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Depth", "1")
	req.SetBasicAuth(c.username, c.password)

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("propfind %s: %w", url, err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != statusMultiStatus {
		return nil, &ListError{StatusCode: rsp.StatusCode}
	}

	var ms multistatus
	if err := xml.NewDecoder(rsp.Body).Decode(&ms); err != nil {
		return nil, fmt.Errorf("decode multistatus for %s: %w", url, err)
	}

	hrefs := make([]string, 0, len(ms.Responses))
	for _, r := range ms.Responses {
		hrefs = append(hrefs, r.Href)
	}
	return hrefs, nil
}

// ListFiles returns the raw hrefs of the files directly below url. Folder
// entries carry a trailing slash and are skipped.
func (c *WebdavConnector) ListFiles(ctx context.Context, url string) ([]string, error) {
	hrefs, err := c.propfind(ctx, url)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if strings.HasSuffix(href, "/") {
			continue
		}
		c.lg.Debug("found file", zap.String("href", href), zap.String("url", url))
		files = append(files, href)
	}
	return files, nil
}

// ListFolders returns the names of the folders directly below parentPath.
// The listing echoes the queried folder itself and may contain hidden
// folders, both are dropped.
func (c *WebdavConnector) ListFolders(ctx context.Context, parentPath string) ([]string, error) {
	url := remotepath.Join(c.baseURL, parentPath)
	hrefs, err := c.propfind(ctx, url)
	if err != nil {
		return nil, err
	}

	parentName := parentPath
	if idx := strings.LastIndex(parentPath, "/"); idx >= 0 {
		parentName = parentPath[idx+1:]
	}

	folders := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if !strings.HasSuffix(href, "/") {
			continue
		}
		folder := path.Base(strings.TrimSuffix(href, "/"))
		if href == url+"/" || folder == parentName || strings.HasPrefix(folder, ".") {
			continue
		}
		c.lg.Debug("found folder", zap.String("folder", folder), zap.String("parent", parentPath))
		folders = append(folders, folder)
	}
	return folders, nil
}

func (c *WebdavConnector) Get(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build get request for %s: %w", fileURL, err)
	}
	req.SetBasicAuth(c.username, c.password)

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", fileURL, err)
	}
	if rsp.StatusCode != http.StatusOK {
		rsp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %d", fileURL, rsp.StatusCode)
	}
	return rsp.Body, nil
}

// Multistatus elements are matched by local name only, servers differ in the
// namespace prefixes they emit.
type multistatus struct {
	XMLName   xml.Name   `xml:"multistatus"`
	Responses []response `xml:"response"`
}

type response struct {
	Href string `xml:"href"`
}
