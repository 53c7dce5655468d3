package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/studio-b12/gowebdav"
	"go.uber.org/zap"

	"github.com/kataglyphis/davmirror/internal/catalog"
	"github.com/kataglyphis/davmirror/internal/connector"
	"github.com/kataglyphis/davmirror/internal/remotepath"
	"github.com/kataglyphis/davmirror/pkg/utils"
)

const copyChunkSize = 8 * 1024

type Mirror struct {
	con connector.Connector
	cat catalog.Catalog
	lg  *zap.Logger

	filesDownloaded uint64
	bytesDownloaded uint64
}

// NewMirror builds a mirror reading from con and writing downloaded files to
// the local filesystem. cat may be nil, downloads are then not cataloged.
func NewMirror(con connector.Connector, cat catalog.Catalog, lg *zap.Logger) *Mirror {
	return &Mirror{
		con: con,
		cat: cat,
		lg:  lg,
	}
}

// DownloadTree mirrors the remote folder hierarchy rooted at remoteRoot into
// localBase. remoteRoot stays the anchor for relative path computation during
// the whole walk, so the tree shape below it is reproduced locally.
func (m *Mirror) DownloadTree(ctx context.Context, remoteRoot, localBase string) error {
	m.filesDownloaded = 0
	m.bytesDownloaded = 0
	start := time.Now()

	stack := []string{remoteRoot}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.lg.Debug("processing remote folder", zap.String("folder", current))

		if err := m.DownloadFolder(ctx, remoteRoot, current, localBase); err != nil {
			return err
		}

		folders, err := m.con.ListFolders(ctx, current)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			m.lg.Info("found no subfolders", zap.String("folder", current))
		}
		for _, folder := range folders {
			m.lg.Info("found subfolder",
				zap.String("subfolder", folder), zap.String("folder", current))
			stack = append(stack, gowebdav.Join(current, folder))
		}
	}

	m.lg.Info("download tree finished",
		zap.String("root", remoteRoot),
		zap.Uint64("files", m.filesDownloaded),
		zap.String("size", humanize.IBytes(m.bytesDownloaded)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// DownloadFolder downloads every file directly inside remoteFolder. The local
// destination is derived from each file's href relative to globalAnchor, so a
// walk anchored at the tree root lands nested files in nested local folders.
// Files that fail to download are skipped, the rest of the folder still
// completes.
func (m *Mirror) DownloadFolder(ctx context.Context, globalAnchor, remoteFolder, localBase string) error {
	if err := m.ensureFolderExists(localBase); err != nil {
		return err
	}
	absBase, err := filepath.Abs(localBase)
	if err != nil {
		return fmt.Errorf("resolve local base %s: %w", localBase, err)
	}

	url := remotepath.Join(m.con.BaseURL(), remoteFolder)
	files, err := m.con.ListFiles(ctx, url)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		m.lg.Info("found no files", zap.String("folder", remoteFolder))
	}

	for _, href := range files {
		fileRelative, found := remotepath.StripBasePrefix(href, remoteFolder)
		if !found {
			m.lg.Error("folder prefix not found in href, using href as-is",
				zap.String("href", href), zap.String("folder", remoteFolder))
		}
		decodedName := remotepath.Decode(fileRelative)

		subPath, err := remotepath.SubPath(href, globalAnchor)
		if err != nil {
			return err
		}
		// The sub-path still ends with the file name, only the folder
		// part of it goes into the destination.
		if strings.HasSuffix(subPath, decodedName) {
			subPath = subPath[:len(subPath)-len(decodedName)]
		}
		if subPath == decodedName {
			subPath = ""
		}

		dest := filepath.Join(absBase, filepath.FromSlash(subPath), filepath.FromSlash(decodedName))
		if dest != absBase && !strings.HasPrefix(dest, absBase+string(os.PathSeparator)) {
			m.lg.Error("destination escapes local base, skipping",
				zap.String("href", href), zap.String("destination", dest))
			continue
		}

		fileURL := remotepath.Join(m.con.BaseURL(), remoteFolder, fileRelative)
		m.lg.Info("downloading file", zap.String("url", fileURL), zap.String("destination", dest))

		body, err := m.con.Get(ctx, fileURL)
		if err != nil {
			m.lg.Error("failed to download file, skipping",
				zap.String("url", fileURL), zap.Error(err))
			continue
		}

		written, err := m.writeFile(dest, body)
		if err != nil {
			return err
		}
		m.filesDownloaded++
		m.bytesDownloaded += uint64(written)

		if m.cat != nil {
			if err := m.recordDownload(remoteFolder, fileRelative, decodedName, dest, written); err != nil {
				return err
			}
		}

		m.lg.Info("downloaded file",
			zap.String("destination", dest),
			zap.String("size", humanize.IBytes(uint64(written))))
	}

	return nil
}

func (m *Mirror) ensureFolderExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		m.lg.Debug("folder already exists", zap.String("path", path))
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", path, err)
	}
	m.lg.Debug("folder created", zap.String("path", path))
	return nil
}

func (m *Mirror) writeFile(dest string, body io.ReadCloser) (int64, error) {
	defer body.Close()

	if err := m.ensureFolderExists(filepath.Dir(dest)); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dest, err)
	}

	written, err := io.CopyBuffer(f, body, make([]byte, copyChunkSize))
	if err != nil {
		f.Close()
		return written, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", dest, err)
	}

	return written, nil
}

func (m *Mirror) recordDownload(remoteFolder, fileRelative, name, dest string, size int64) error {
	sum, contentType, err := catalog.Fingerprint(dest)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", dest, err)
	}

	entry := catalog.Entry{
		RemotePath:          remotepath.Join(remoteFolder, fileRelative),
		LocalPath:           dest,
		Name:                name,
		Extension:           filepath.Ext(name),
		ContentType:         contentType,
		SizeBytes:           uint64(size),
		HashSumSHA512:       sum,
		DownloadedTimestamp: utils.Ptr(time.Now()),
	}
	if err := m.cat.Store(entry); err != nil {
		return fmt.Errorf("store catalog entry for %s: %w", dest, err)
	}
	return nil
}
