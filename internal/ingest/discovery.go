package ingest

import (
	"cmp"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// SaveExt is the extension of save archives.
const SaveExt = ".sav"

// ironmanName is the single save file of an ironman game, rewritten in
// place on every autosave.
const ironmanName = "ironman" + SaveExt

// SaveFile is one discovered save archive.
type SaveFile struct {
	Path    string
	Session string
	Name    string
	ModTime time.Time
	Size    int64
}

// IsIronman reports whether the file is an ironman save.
func (f SaveFile) IsIronman() bool {
	return f.Name == ironmanName
}

// stamp identifies one version of a file on disk.
type stamp struct {
	modTime int64
	size    int64
}

func (f SaveFile) stamp() stamp {
	return stamp{modTime: f.ModTime.UnixNano(), size: f.Size}
}

// DiscoveryConfig selects the save files to ingest.
type DiscoveryConfig struct {
	SaveDir       string
	Filter        string
	SessionPrefix string
}

// matchStem reports whether the file name without its extension contains
// filter, ignoring case.
func matchStem(name, filter string) bool {
	stem := strings.ToLower(name[:len(name)-len(filepath.Ext(name))])
	return strings.Contains(stem, strings.ToLower(filter))
}

// Discover lists the save files below cfg.SaveDir, sorted by session and
// path. A file's session is the name of its parent directory; files
// directly in SaveDir belong to no session and are ignored.
func Discover(cfg DiscoveryConfig) ([]SaveFile, error) {
	root := filepath.Clean(cfg.SaveDir)
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var files []SaveFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Sessions can be deleted while we walk.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), SaveExt) {
			return nil
		}
		dir := filepath.Dir(path)
		if dir == root {
			return nil
		}
		f := SaveFile{
			Path:    path,
			Session: filepath.Base(dir),
			Name:    d.Name(),
		}
		if cfg.Filter != "" && !matchStem(f.Name, cfg.Filter) {
			return nil
		}
		if cfg.SessionPrefix != "" && !strings.HasPrefix(f.Session, cfg.SessionPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		f.ModTime = info.ModTime()
		f.Size = info.Size()
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b SaveFile) int {
		return cmp.Or(cmp.Compare(a.Session, b.Session), cmp.Compare(a.Path, b.Path))
	})
	return files, nil
}
