package catalog

import (
	"crypto/sha512"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Fingerprint computes the SHA512 checksum and content type of a downloaded
// file in a single pass over its contents.
func Fingerprint(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	readers := splitReader(f, 2)

	var (
		wg sync.WaitGroup

		contentType string
		typeErr     error

		sum    string
		sumErr error
	)

	// Detect content type.
	wg.Add(1)
	go func() {
		defer wg.Done()
		contentType, typeErr = detectContentType(readers[0])
	}()

	// Calculate SHA512 checksum.
	wg.Add(1)
	go func() {
		defer wg.Done()
		sum, sumErr = calculateSHA512(readers[1])
	}()

	wg.Wait()
	if typeErr != nil {
		return "", "", typeErr
	}
	if sumErr != nil {
		return "", "", sumErr
	}

	return sum, contentType, nil
}

// splitReader fans r out to n pipe readers. Readers may stop consuming early,
// writes to them fail from then on and are skipped.
func splitReader(r io.Reader, n int) []io.ReadCloser {
	pws := make([]*io.PipeWriter, n)
	readers := make([]io.ReadCloser, n)

	for i := 0; i < n; i++ {
		pr, pw := io.Pipe()
		pws[i] = pw
		readers[i] = pr
	}

	go func() {
		defer func() {
			for _, pw := range pws {
				pw.Close()
			}
		}()

		dead := make([]bool, n)
		buf := make([]byte, 1024*32)
		for {
			nr, err := r.Read(buf)
			if nr > 0 {
				for i := range pws {
					if dead[i] {
						continue
					}

					if _, wrErr := pws[i].Write(buf[:nr]); wrErr != nil {
						dead[i] = true
					}
				}
			}
			if err != nil {
				break
			}
		}
	}()

	return readers
}

func calculateSHA512(reader io.ReadCloser) (string, error) {
	defer reader.Close()

	hash := sha512.New()
	_, err := io.Copy(hash, reader)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

func detectContentType(reader io.ReadCloser) (string, error) {
	defer reader.Close()

	fileMimetype, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", err
	}

	return fileMimetype.String(), nil
}
