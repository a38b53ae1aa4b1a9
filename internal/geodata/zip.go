package geodata

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIP распаковывает архив в destDir и возвращает пути извлеченных файлов
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "zip: create destination")
	}

	var extracted []string
	for _, f := range r.File {
		path, err := extractZIPEntry(f, destDir)
		if err != nil {
			return extracted, err
		}
		if path != "" {
			extracted = append(extracted, path)
		}
	}

	return extracted, nil
}

// extractZIPEntry извлекает один элемент архива; для каталогов возвращает пустую строку
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return "", eris.Wrap(err, "zip: create directory")
		}
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return "", eris.Wrap(err, "zip: write file")
	}

	return destPath, nil
}

// findFileByExt ищет первый файл с расширением ext (в лексическом порядке, включая подкаталоги)
func findFileByExt(dir, ext string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found != "" {
			return filepath.SkipAll
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ext) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "geodata: scan %s", dir)
	}
	if found == "" {
		return "", eris.Errorf("geodata: no %s file found in %s", ext, dir)
	}
	return found, nil
}
