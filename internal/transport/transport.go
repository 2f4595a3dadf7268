// Package transport downloads task and stack payloads and materializes
// them on disk, extracting recognized archive formats.
package transport

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvalidSourceError indicates a URL with no usable trailing file name.
type InvalidSourceError struct {
	URL string
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid source URL: %s", e.URL)
}

// TransportError wraps a network or HTTP failure during download.
type TransportError struct {
	URL        string
	StatusCode int // 0 when the failure was not an HTTP status
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download of %s failed: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractError indicates a corrupt, unsupported or path-escaping
// archive entry.
type ExtractError struct {
	Entry string
	Err   error
}

func (e *ExtractError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("failed to extract %q: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// HTTPClient is the subset of http.Client the transport needs,
// extracted as an interface so tests can substitute responses.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// Client downloads files with a bounded timeout and materializes them
// into a destination directory.
type Client struct {
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewClient creates a transport client. Every download is bounded by
// timeout end to end.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetHTTPClient substitutes the HTTP client (useful for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// FetchAndMaterialize downloads url into destDir. Archives (.zip,
// .tar.gz, .tgz) are extracted into destDir and the directory path is
// returned; anything else is copied verbatim and the file path is
// returned. The downloaded original and its temporary holding
// directory are always cleaned up; cleanup failures are logged, never
// propagated.
func (c *Client) FetchAndMaterialize(url, destDir string) (string, error) {
	filename, err := fileNameFromURL(url)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Each download gets its own holding directory so that concurrent
	// fetches into sibling destinations never collide.
	tempDir := filepath.Join(destDir, "tmp-"+uuid.NewString())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer c.cleanup(tempDir)

	downloaded := filepath.Join(tempDir, filename)
	if err := c.download(url, downloaded); err != nil {
		return "", err
	}

	c.logger.Info("downloaded file", zap.String("url", url), zap.String("file", downloaded))

	switch {
	case strings.HasSuffix(filename, ".zip"):
		if err := extractZip(downloaded, destDir); err != nil {
			return "", err
		}
		return destDir, nil
	case strings.HasSuffix(filename, ".tar.gz"), strings.HasSuffix(filename, ".tgz"):
		if err := extractTarGz(downloaded, destDir); err != nil {
			return "", err
		}
		return destDir, nil
	default:
		// .conf files and anything else unrecognized are ready-to-use
		// artifacts, not archives.
		destPath := filepath.Join(destDir, filename)
		if err := copyFile(downloaded, destPath); err != nil {
			return "", err
		}
		return destPath, nil
	}
}

func (c *Client) download(url, dest string) error {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return &TransportError{URL: url, Err: err}
	}
	return nil
}

// cleanup removes the temporary holding directory. It must never fail
// the surrounding operation.
func (c *Client) cleanup(tempDir string) {
	if err := os.RemoveAll(tempDir); err != nil {
		c.logger.Warn("failed to remove temp directory",
			zap.String("dir", tempDir), zap.Error(err))
	}
}

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return &ExtractError{Err: err}
	}
	defer r.Close()

	for _, entry := range r.File {
		target, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return &ExtractError{Entry: entry.Name, Err: err}
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return &ExtractError{Entry: entry.Name, Err: err}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return &ExtractError{Entry: entry.Name, Err: err}
		}

		src, err := entry.Open()
		if err != nil {
			return &ExtractError{Entry: entry.Name, Err: err}
		}
		dst, err := os.Create(target)
		if err != nil {
			src.Close()
			return &ExtractError{Entry: entry.Name, Err: err}
		}
		_, copyErr := io.Copy(dst, src)
		src.Close()
		dst.Close()
		if copyErr != nil {
			return &ExtractError{Entry: entry.Name, Err: copyErr}
		}

		// Shell scripts must be runnable after extraction.
		if strings.HasSuffix(target, ".sh") {
			if err := os.Chmod(target, 0755); err != nil {
				return &ExtractError{Entry: entry.Name, Err: err}
			}
		}
	}
	return nil
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return &ExtractError{Err: err}
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return &ExtractError{Err: err}
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ExtractError{Err: err}
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return &ExtractError{Entry: header.Name, Err: err}
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return &ExtractError{Entry: header.Name, Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return &ExtractError{Entry: header.Name, Err: err}
			}
			dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode)&0777)
			if err != nil {
				return &ExtractError{Entry: header.Name, Err: err}
			}
			_, copyErr := io.Copy(dst, tr)
			dst.Close()
			if copyErr != nil {
				return &ExtractError{Entry: header.Name, Err: copyErr}
			}
		}
	}
	return nil
}

// FileName derives the destination file name a URL will materialize
// as, without fetching anything.
func FileName(rawURL string) (string, error) {
	return fileNameFromURL(rawURL)
}

// fileNameFromURL derives the destination file name from the URL's
// trailing path segment.
func fileNameFromURL(rawURL string) (string, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "", &InvalidSourceError{URL: rawURL}
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", &InvalidSourceError{URL: rawURL}
	}
	return name, nil
}

// safeJoin joins name under dir and rejects entries that would escape
// the destination.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	cleanDir := filepath.Clean(dir)
	if target != cleanDir && !strings.HasPrefix(target, cleanDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry escapes destination directory")
	}
	return target, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return nil
}
