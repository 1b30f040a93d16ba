package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IsArchive reports whether the file at path is a readable ZIP archive.
func IsArchive(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

// ListFiles returns the archive's member names in archive order, directories
// excluded.
func ListFiles(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	names := []string{}
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}

// ExtractAll unpacks every file member of the archive into targetDir,
// creating parent directories as needed, and returns the written paths in
// archive order. Members that name a path outside targetDir are rejected;
// a member that fails to copy is skipped so one bad entry does not abort
// the scan.
func ExtractAll(path, targetDir string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	extracted := []string{}
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return extracted, fmt.Errorf("unsafe member path %q", f.Name)
		}
		dest := filepath.Join(targetDir, filepath.FromSlash(f.Name))
		if err := extractMember(f, dest); err != nil {
			continue
		}
		extracted = append(extracted, dest)
	}
	return extracted, nil
}

func extractMember(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Close()
}

// Save streams r to dest, creating parent directories. Used to land an
// uploaded package on disk before scoring.
func Save(r io.Reader, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create package dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create package file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, r)
	if err != nil {
		return n, fmt.Errorf("write package file: %w", err)
	}
	return n, out.Close()
}

// SaveLocal copies the ZIP at src into workdir under its base name so all
// later stages operate on an isolated copy.
func SaveLocal(src, workdir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source archive: %w", err)
	}
	defer in.Close()

	dest := filepath.Join(workdir, filepath.Base(src))
	if _, err := Save(in, dest); err != nil {
		return "", err
	}
	return dest, nil
}
