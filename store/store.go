// Package store persists the video library: scanned videos, mounted
// folders, user-defined attributes and playback positions.
package store

import "time"

// AttributeKind selects one of the three user-defined attribute tables.
type AttributeKind string

const (
	Tags         AttributeKind = "tags"
	Participants AttributeKind = "participants"
	Languages    AttributeKind = "languages"
)

func (k AttributeKind) String() string {
	return string(k)
}

// Singular returns the kind's singular noun for messages.
func (k AttributeKind) Singular() string {
	switch k {
	case Tags:
		return "tag"
	case Participants:
		return "participant"
	case Languages:
		return "language"
	default:
		return string(k)
	}
}

// Kinds lists every attribute kind.
func Kinds() []AttributeKind {
	return []AttributeKind{Tags, Participants, Languages}
}

// Video is a scanned media file known to the library.
type Video struct {
	ID        string `gorm:"primaryKey"`
	Path      string `gorm:"uniqueIndex"`
	Name      string
	Folder    string `gorm:"index"`
	Size      int64
	CreatedAt time.Time
	ThumbPath string
}

// Folder is a mounted library root.
type Folder struct {
	ID        string `gorm:"primaryKey"`
	Path      string `gorm:"uniqueIndex"`
	Name      string
	ScanDepth int
	AddedAt   time.Time
}

// Attribute is a named value of some AttributeKind.
type Attribute struct {
	ID   uint
	Name string
}

// Position remembers how far into a video playback got.
type Position struct {
	VideoID   string `gorm:"primaryKey"`
	Seconds   float64
	UpdatedAt time.Time
}

// Store is the persistence surface the library consumes.
type Store interface {
	UpsertVideos(videos []Video) error
	Videos() ([]Video, error)
	Video(id string) (Video, error)
	DeleteVideos(ids []string) error
	DeleteVideosUnder(prefix string) error

	UpsertFolder(folder Folder) error
	Folders() ([]Folder, error)
	DeleteFolder(id string) error

	AddAttribute(kind AttributeKind, name string) error
	RemoveAttribute(kind AttributeKind, name string) error
	Attributes(kind AttributeKind) ([]Attribute, error)
	Assign(kind AttributeKind, videoID, name string) error
	Unassign(kind AttributeKind, videoID, name string) error
	VideoAttributes(kind AttributeKind, videoID string) ([]Attribute, error)

	Position(videoID string) (float64, bool, error)
	SetPosition(videoID string, seconds float64) error

	Close() error
}
