package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/oshokin/ssm-package/internal/config"
)

// stageInstaller copies the installer into the staging directory, keeping its file name.
func stageInstaller(installer, stagingDir string) error {
	if err := os.MkdirAll(stagingDir, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	src, err := os.Open(filepath.Clean(installer))
	if err != nil {
		return fmt.Errorf("open installer: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(stagingDir, filepath.Base(installer))

	// Truncating the destination would empty an installer that already lives in the staging dir.
	if same, err := sameFile(src, dstPath); err != nil {
		return err
	} else if same {
		return nil
	}

	dst, err := os.OpenFile(filepath.Clean(dstPath), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("create staged installer: %w", err)
	}

	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy installer: %w", err)
	}

	if err = dst.Close(); err != nil {
		return fmt.Errorf("close staged installer: %w", err)
	}

	return nil
}

// sameFile reports whether path refers to the already opened file.
func sameFile(f *os.File, path string) (bool, error) {
	dstInfo, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	srcInfo, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat installer: %w", err)
	}

	return os.SameFile(srcInfo, dstInfo), nil
}

// zipDirectory writes the regular files directly inside dir into a flat archive.
// Subdirectories are skipped.
func zipDirectory(dir, archivePath string) (err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read staging dir: %w", err)
	}

	out, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}

		// A half-written archive would be reused by the next run.
		if err != nil {
			_ = os.Remove(archivePath)
		}
	}()

	zw := zip.NewWriter(out)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		if err = addFile(zw, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}

	return nil
}

// addFile stores a single file at the root of the archive.
func addFile(zw *zip.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header %s: %w", path, err)
	}

	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", path, err)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err = io.Copy(w, f); err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}

	return nil
}

// FileSHA256 streams a file through SHA-256 and returns the hex digest and the file size.
func FileSHA256(path string) (string, int64, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()

	size, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
