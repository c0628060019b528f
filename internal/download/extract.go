package download

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract materialises an archive next to path and returns the result.
// Plain files are returned unchanged. A .gz file is decompressed to the
// same name without the suffix. A .zip, .tar.gz or .tgz archive is
// unpacked into "<path>.extracted"; when it holds exactly one regular file
// that file's path is returned, otherwise the directory.
//
// Previously extracted output is reused until DiscardExtracted clears it.
func Extract(path string) (string, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return extractDir(path, unzip)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return extractDir(path, untarGz)
	case strings.HasSuffix(lower, ".gz"):
		return gunzipFile(path)
	}
	return path, nil
}

// DiscardExtracted removes whatever Extract produced from path, so the next
// Extract unpacks the current archive again.
func DiscardExtracted(path string) error {
	targets := []string{path + ".extracted", path + ".extracted.tmp"}
	if lower := strings.ToLower(path); strings.HasSuffix(lower, ".gz") && !strings.HasSuffix(lower, ".tar.gz") {
		targets = append(targets, path[:len(path)-len(".gz")])
	}
	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("download: discard %q: %w", t, err)
		}
	}
	return nil
}

func extractDir(path string, unpack func(src, dst string) error) (string, error) {
	dst := path + ".extracted"
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		tmp := dst + ".tmp"
		_ = os.RemoveAll(tmp)
		if err := os.MkdirAll(tmp, 0o755); err != nil {
			return "", fmt.Errorf("download: extract %q: %w", path, err)
		}
		if err := unpack(path, tmp); err != nil {
			_ = os.RemoveAll(tmp)
			return "", fmt.Errorf("download: extract %q: %w", path, err)
		}
		if err := os.Rename(tmp, dst); err != nil {
			return "", fmt.Errorf("download: extract %q: %w", path, err)
		}
	}
	return singleFile(dst)
}

func singleFile(dir string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("download: scan %q: %w", dir, err)
	}
	if len(files) == 1 {
		return files[0], nil
	}
	return dir, nil
}

// safeJoin rejects archive member names that escape dst.
func safeJoin(dst, name string) (string, error) {
	target := filepath.Join(dst, name)
	if target != dst && !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive member %q escapes destination", name)
	}
	return target, nil
}

func writeMember(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func unzip(src, dst string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, zf := range zr.File {
		target, err := safeJoin(dst, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		err = writeMember(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func untarGz(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target, err := safeJoin(dst, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(target, tr); err != nil {
				return err
			}
		}
	}
}

func gunzipFile(path string) (string, error) {
	dst := path[:len(path)-len(".gz")]
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("download: gunzip %q: %w", path, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("download: gunzip %q: %w", path, err)
	}
	defer gz.Close()
	tmp := dst + ".tmp"
	if err := writeMember(tmp, gz); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download: gunzip %q: %w", path, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("download: gunzip %q: %w", path, err)
	}
	return dst, nil
}
