// Package archive creates and unpacks the gzip-compressed tar streams
// backups are stored as, plus the zip containers modpacks ship in.
package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/shulkerhost/shulker/internal/fault"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Create writes a tar.gz of dir to destPath. Entry names are rooted at
// dir's basename so extraction into a parent directory recreates the
// directory itself. Top-level sub-paths listed in excludes are skipped.
func Create(dir, destPath string, excludes []string) error {
	base := filepath.Base(dir)

	out, err := os.Create(destPath)
	if err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("create %s: %w", destPath, err))
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		if excluded(rel, excludes) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := filepath.ToSlash(filepath.Join(base, rel))
		switch {
		case info.IsDir():
			return tw.WriteHeader(&tar.Header{
				Name:     name + "/",
				Typeflag: tar.TypeDir,
				Mode:     dirMode,
			})
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return tw.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeSymlink,
				Linkname: target,
				Mode:     fileMode,
			})
		case info.Mode().IsRegular():
			if err := tw.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeReg,
				Mode:     fileMode,
				Size:     info.Size(),
			}); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(tw, f)
			return err
		default:
			// Sockets, devices and the like do not belong in a data backup.
			return nil
		}
	})
	if walkErr != nil {
		tw.Close()
		gz.Close()
		return fault.New(fault.KindArchive, fmt.Errorf("archive %s: %w", dir, walkErr))
	}

	if err := tw.Close(); err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("finish tar: %w", err))
	}
	if err := gz.Close(); err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("finish gzip: %w", err))
	}
	if err := out.Close(); err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("close %s: %w", destPath, err))
	}
	return nil
}

// Extract unpacks the tar.gz at srcPath into destDir, overwriting existing
// entries. Source permissions, ownership and modification times are not
// restored; restores must not fail because the destination disallows
// chown or utime.
func Extract(srcPath, destDir string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("open %s: %w", srcPath, err))
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("gzip %s: %w", srcPath, err))
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fault.New(fault.KindArchive, fmt.Errorf("read tar %s: %w", srcPath, err))
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode); err != nil {
				return fault.New(fault.KindArchive, fmt.Errorf("mkdir %s: %w", target, err))
			}
		case tar.TypeSymlink:
			os.Remove(target)
			if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
				return fault.New(fault.KindArchive, fmt.Errorf("mkdir for %s: %w", target, err))
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fault.New(fault.KindArchive, fmt.Errorf("symlink %s: %w", target, err))
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		}
	}
}

// Unzip unpacks the zip at srcPath into destDir with the same overwrite
// and traversal rules as Extract.
func Unzip(srcPath, destDir string) error {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("open zip %s: %w", srcPath, err))
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := securePath(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirMode); err != nil {
				return fault.New(fault.KindArchive, fmt.Errorf("mkdir %s: %w", target, err))
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fault.New(fault.KindArchive, fmt.Errorf("open zip entry %s: %w", f.Name, err))
		}
		err = writeEntry(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("mkdir for %s: %w", target, err))
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("create %s: %w", target, err))
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fault.New(fault.KindArchive, fmt.Errorf("write %s: %w", target, err))
	}
	if err := out.Close(); err != nil {
		return fault.New(fault.KindArchive, fmt.Errorf("close %s: %w", target, err))
	}
	return nil
}

// securePath joins an archive entry name onto destDir, rejecting names
// that would escape it.
func securePath(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || filepath.IsAbs(cleaned) {
		return "", fault.Archivef("archive entry %q escapes destination", name)
	}
	return filepath.Join(destDir, cleaned), nil
}

func excluded(rel string, excludes []string) bool {
	if rel == "" {
		return false
	}
	top := strings.Split(filepath.ToSlash(rel), "/")[0]
	for _, e := range excludes {
		if top == strings.Trim(filepath.ToSlash(e), "/") {
			return true
		}
	}
	return false
}
