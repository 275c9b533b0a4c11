// Package album defines the contract between the slideshow core and the
// thing that actually knows how to list and download media: a remote photo
// service, a local directory, or anything else that can enumerate items
// lazily and fetch one on demand.
package album

import "time"

// MediaType distinguishes a still photo from a video clip.
type MediaType int

const (
	Photo MediaType = iota
	Video
)

func (m MediaType) String() string {
	switch m {
	case Photo:
		return "photo"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by an Album while iterating or preparing
// items. IsFatal distinguishes errors that should abort the whole playlist
// build (I/O failure, permanent auth failure) from transient ones that
// should simply be logged and skipped.
type Error interface {
	error
	IsFatal() bool
}

// Item is a single photo or video with a stable identity within its album.
// Equality is by value of all fields.
type Item struct {
	// ID uniquely identifies this item within its album.
	ID string
	// RelativePath is the filename-form identifier this item is stored
	// under in the local cache, e.g. "<id>.jpg".
	RelativePath string
	MediaType    MediaType
	CreatedTime  time.Time
}

// Equal reports whether two items are the same by value, matching the
// equality contract the distilled spec requires of AlbumItem.
func (i Item) Equal(other Item) bool {
	return i.ID == other.ID &&
		i.RelativePath == other.RelativePath &&
		i.MediaType == other.MediaType &&
		i.CreatedTime.Equal(other.CreatedTime)
}

// Album is a lazily-streamed, possibly-remote source of Items.
type Album interface {
	// Items returns the current item stream. Implementations should
	// prefer to produce items lazily as Next is called rather than
	// materializing the whole album up front.
	Items() Iterator
	// PrepareItem downloads or otherwise makes item's content available
	// at destPath. On success destPath must exist and be complete.
	PrepareItem(item Item, destPath string) error
}

// Iterator yields album items one at a time, surfacing per-item errors
// without aborting the whole stream.
type Iterator interface {
	// Next returns the next item, or ok=false when the stream is
	// exhausted. err is non-nil only when an item failed to be produced;
	// in that case ok is still true so the caller knows to continue
	// iterating (unless err.IsFatal()).
	Next() (item Item, err Error, ok bool)
}
