package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/xi2/xz"          // For reading .xz compressed data

	"blender-downloader/internal/logger"
)

// ErrUnsafePath is returned for archive entries that would land outside the extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// ExtractArchive routes to the extraction function matching the archive's extension
// and unpacks src into dest.
func ExtractArchive(src, dest string) error {
	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("[DEBUG] compression type is zip\n")
		return extractZip(src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("[DEBUG] compression type is .7z\n")
		return extract7z(src, dest)
	case isTarArchive(src):
		logger.Debug("[DEBUG] compression type is .tar.*\n")
		return extractTarArchive(src, dest)
	default:
		return fmt.Errorf("unsupported archive format: %s", src)
	}
}

func isTarArchive(src string) bool {
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz"} {
		if strings.HasSuffix(src, ext) {
			return true
		}
	}
	return false
}

// openTar opens src and wraps it with the decompressor its extension calls for.
// The returned close function releases the file and any decompressor.
func openTar(src string) (*tar.Reader, func(), error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader = f
	closeAll := func() { _ = f.Close() }

	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		reader = gr
		closeAll = func() {
			_ = gr.Close()
			_ = f.Close()
		}
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		reader = xzr
	}

	return tar.NewReader(reader), closeAll, nil
}

// extractTarArchive handles tar and compressed tar variants
func extractTarArchive(src, dest string) error {
	logger.Debug("[DEBUG] uncompressing %s to %s\n", src, dest)
	tr, closeAll, err := openTar(src)
	if err != nil {
		return fmt.Errorf("failed to open tar archive: %w", err)
	}
	defer closeAll()

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar archive: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, hdr.Linkname); err != nil {
				return err
			}
		default:
			logger.Debug("[DEBUG] Skipping tar entry %s of type %c\n", hdr.Name, hdr.Typeflag)
		}
	}
}

// extractZip extracts a .zip archive
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		// Only reported with GODEBUG=zipinsecurepath=0; the reader is still usable.
		r.Close()
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		if f.Mode()&os.ModeSymlink != 0 {
			err = extractZipSymlink(dest, target, rc)
		} else {
			err = writeFile(target, rc, f.Mode())
		}
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractZipSymlink recreates a symlink stored in a zip entry; the entry body is the link target.
func extractZipSymlink(dest, target string, rc io.Reader) error {
	linkname, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return writeSymlink(dest, target, string(linkname))
}

// extract7z handles .7z extraction using the sevenzip library
func extract7z(src, dest string) error {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin joins an archive entry name onto dest and rejects names that climb
// out of it or that would be written through a symlink already extracted under dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !withinDir(dest, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	if err := checkNoSymlinks(dest, target); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsafePath, name, err)
	}
	return target, nil
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// checkNoSymlinks walks target's components below dest and fails on the first
// one that exists as a symlink. Components that do not exist yet end the walk.
func checkNoSymlinks(dest, target string) error {
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == "." {
		return err
	}
	cur := dest
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symlink", cur)
		}
	}
	return nil
}

// writeFile creates target (and its parents) with the entry's permission bits and copies r into it.
func writeFile(target string, r io.Reader, mode os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// writeSymlink creates target pointing at linkname. Absolute link targets and
// relative ones that resolve outside dest are refused.
func writeSymlink(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) || !withinDir(dest, filepath.Join(filepath.Dir(target), linkname)) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf("failed to create symlink %s -> %s: %w", target, linkname, err)
	}
	return nil
}
