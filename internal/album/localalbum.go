package album

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions mirrors the small allow-list pattern the teacher used
// for audio formats, adapted to the photo/video domain.
var supportedExtensions = map[string]MediaType{
	".jpg":  Photo,
	".jpeg": Photo,
	".png":  Photo,
	".heic": Photo,
	".gif":  Photo,
	".mp4":  Video,
	".mov":  Video,
	".mkv":  Video,
}

// IsSupportedExtension reports whether ext (including the leading dot, any
// case) names a media type this album recognizes.
func IsSupportedExtension(ext string) bool {
	_, ok := supportedExtensions[strings.ToLower(ext)]
	return ok
}

// LocalAlbum is a filesystem-backed Album: every supported file under Dir is
// an item, its id derived from its path relative to Dir and its created
// time from the file's modification time. It exists so the slideshow core
// has something concrete to run against without the out-of-scope remote
// album provider (OAuth token flow, paginated search, etc).
type LocalAlbum struct {
	Dir string
}

// NewLocalAlbum returns a LocalAlbum rooted at dir.
func NewLocalAlbum(dir string) *LocalAlbum {
	return &LocalAlbum{Dir: dir}
}

// Items walks Dir eagerly and returns a static iterator over what it found.
// Per-file errors encountered during the walk are collected and surfaced
// through the iterator as non-fatal item errors rather than aborting the
// whole scan, mirroring the way a directory walk over a large media
// collection tolerates a handful of unreadable entries.
func (a *LocalAlbum) Items() Iterator {
	var items []Item
	var errs []Error

	walkErr := filepath.Walk(a.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, Transient("walk", path, err))
			return nil
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		mediaType, ok := supportedExtensions[strings.ToLower(ext)]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(a.Dir, path)
		if err != nil {
			errs = append(errs, Transient("relpath", path, err))
			return nil
		}
		id := filepath.ToSlash(rel)

		items = append(items, Item{
			ID:           id,
			RelativePath: localalbumCacheName(id, ext),
			MediaType:    mediaType,
			CreatedTime:  info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, Fatal("walk", a.Dir, walkErr))
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	slog.Debug("Local album scan complete",
		"dir", a.Dir,
		"items", len(items),
		"errors", len(errs),
	)

	return &sliceIterator{items: items, errs: errs}
}

// localalbumCacheName derives a flat, collision-resistant cache filename
// from a (possibly nested) relative album id.
func localalbumCacheName(id, ext string) string {
	flat := strings.ReplaceAll(id, string(filepath.Separator), "_")
	flat = strings.ReplaceAll(flat, "/", "_")
	if !strings.HasSuffix(strings.ToLower(flat), strings.ToLower(ext)) {
		flat += ext
	}
	return flat
}

// PrepareItem copies the source file into destPath. For a local album this
// is a plain file copy; a remote album would download instead.
func (a *LocalAlbum) PrepareItem(item Item, destPath string) error {
	srcPath := filepath.Join(a.Dir, filepath.FromSlash(item.ID))

	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Sync()
}

// sliceIterator is a materialized Iterator used by LocalAlbum. Items are
// returned first, then any collected errors — order among errors does not
// matter since the builder only checks IsFatal().
type sliceIterator struct {
	items []Item
	errs  []Error
	ip    int
	ep    int
}

func (s *sliceIterator) Next() (Item, Error, bool) {
	if s.ip < len(s.items) {
		item := s.items[s.ip]
		s.ip++
		return item, nil, true
	}
	if s.ep < len(s.errs) {
		err := s.errs[s.ep]
		s.ep++
		return Item{}, err, true
	}
	return Item{}, nil, false
}
