// Package asset turns a local directory into what the engines ship: a file
// listing for bucket sync, a content hash, and a zip bundle for compute code.
package asset

import (
	"archive/zip"
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// File is one regular file of an asset directory.
type File struct {
	// Key is the slash-separated path relative to the asset root.
	Key  string
	Path string
	Size int64
	// MD5 is hex encoded, comparable to a single-part S3 ETag.
	MD5 string
}

// zip entries carry this time so identical trees produce identical bundles.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// List walks dir and returns its regular files sorted by key. Symlinks and
// other special files are skipped.
func List(dir string) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset %s is not a directory", dir)
	}

	var files []File
	err = filepath.WalkDir(dir, func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, current)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		sum, err := md5File(current)
		if err != nil {
			return err
		}

		files = append(files, File{
			Key:  filepath.ToSlash(rel),
			Path: current,
			Size: info.Size(),
			MD5:  sum,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Key < files[j].Key
	})

	return files, nil
}

// Hash is a sha256 over every key and file digest of dir. It changes when
// any file is added, removed, renamed or edited.
func Hash(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		return "", err
	}

	hasher := sha256.New()
	for _, f := range files {
		fmt.Fprintf(hasher, "%s\x00%s\x00", f.Key, f.MD5)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Zip bundles dir into a zip archive with stable entry order and timestamps.
func Zip(dir string) ([]byte, error) {
	files, err := List(dir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, f := range files {
		header := &zip.FileHeader{
			Name:     f.Key,
			Method:   zip.Deflate,
			Modified: epoch,
		}
		header.SetMode(0o644)

		entry, err := w.CreateHeader(header)
		if err != nil {
			return nil, err
		}

		if err := copyInto(entry, f.Path); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteZip bundles dir into a file at dest, creating parent directories.
func WriteZip(dir, dest string) error {
	bundle, err := Zip(dir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	return os.WriteFile(dest, bundle, 0o644)
}

func copyInto(w io.Writer, path string) error {
	input, err := os.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	_, err = io.Copy(w, input)
	return err
}

func md5File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
