package store

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Per-kind row types so AutoMigrate derives the usual table names.
type (
	tagRow struct {
		ID   uint   `gorm:"primaryKey"`
		Name string `gorm:"uniqueIndex"`
	}
	participantRow struct {
		ID   uint   `gorm:"primaryKey"`
		Name string `gorm:"uniqueIndex"`
	}
	languageRow struct {
		ID   uint   `gorm:"primaryKey"`
		Name string `gorm:"uniqueIndex"`
	}

	videoTag struct {
		VideoID string `gorm:"primaryKey"`
		TagID   uint   `gorm:"primaryKey"`
	}
	videoParticipant struct {
		VideoID       string `gorm:"primaryKey"`
		ParticipantID uint   `gorm:"primaryKey"`
	}
	videoLanguage struct {
		VideoID    string `gorm:"primaryKey"`
		LanguageID uint   `gorm:"primaryKey"`
	}
)

func (tagRow) TableName() string         { return string(Tags) }
func (participantRow) TableName() string { return string(Participants) }
func (languageRow) TableName() string    { return string(Languages) }

func (k AttributeKind) joinTable() string {
	switch k {
	case Tags:
		return "video_tags"
	case Participants:
		return "video_participants"
	default:
		return "video_languages"
	}
}

func (k AttributeKind) joinColumn() string {
	return k.Singular() + "_id"
}

// SQLite is the gorm-backed Store implementation.
type SQLite struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at the given path and
// migrates the schema.
func Open(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.AutoMigrate(
		&Video{},
		&Folder{},
		&Position{},
		&tagRow{},
		&participantRow{},
		&languageRow{},
		&videoTag{},
		&videoParticipant{},
		&videoLanguage{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func (s *SQLite) UpsertVideos(videos []Video) error {
	if len(videos) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&videos).Error
}

func (s *SQLite) Videos() ([]Video, error) {
	var videos []Video
	err := s.db.Order("path").Find(&videos).Error
	return videos, err
}

func (s *SQLite) Video(id string) (Video, error) {
	var video Video
	err := s.db.Take(&video, "id = ?", id).Error
	return video, err
}

func (s *SQLite) DeleteVideos(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.Delete(&Video{}, "id IN ?", ids).Error; err != nil {
		return err
	}
	return s.deleteVideoRefs(ids)
}

func (s *SQLite) DeleteVideosUnder(prefix string) error {
	var ids []string
	err := s.db.Model(&Video{}).
		Where(`path LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	return s.DeleteVideos(ids)
}

// deleteVideoRefs drops join rows and positions for removed videos.
func (s *SQLite) deleteVideoRefs(ids []string) error {
	for _, kind := range Kinds() {
		err := s.db.Table(kind.joinTable()).
			Where("video_id IN ?", ids).
			Delete(nil).Error
		if err != nil {
			return err
		}
	}
	return s.db.Delete(&Position{}, "video_id IN ?", ids).Error
}

func (s *SQLite) UpsertFolder(folder Folder) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&folder).Error
}

func (s *SQLite) Folders() ([]Folder, error) {
	var folders []Folder
	err := s.db.Order("path").Find(&folders).Error
	return folders, err
}

func (s *SQLite) DeleteFolder(id string) error {
	return s.db.Delete(&Folder{}, "id = ?", id).Error
}

func (s *SQLite) AddAttribute(kind AttributeKind, name string) error {
	return s.db.Table(kind.String()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"name": name}).Error
}

func (s *SQLite) RemoveAttribute(kind AttributeKind, name string) error {
	attr, ok, err := s.attribute(kind, name)
	if err != nil || !ok {
		return err
	}

	err = s.db.Table(kind.joinTable()).
		Where(kind.joinColumn()+" = ?", attr.ID).
		Delete(nil).Error
	if err != nil {
		return err
	}

	return s.db.Table(kind.String()).Where("id = ?", attr.ID).Delete(nil).Error
}

func (s *SQLite) Attributes(kind AttributeKind) ([]Attribute, error) {
	var attrs []Attribute
	err := s.db.Table(kind.String()).Order("name").Scan(&attrs).Error
	return attrs, err
}

func (s *SQLite) Assign(kind AttributeKind, videoID, name string) error {
	attr, ok, err := s.attribute(kind, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown %s %q", kind.Singular(), name)
	}

	return s.db.Table(kind.joinTable()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{
			"video_id":        videoID,
			kind.joinColumn(): attr.ID,
		}).Error
}

func (s *SQLite) Unassign(kind AttributeKind, videoID, name string) error {
	attr, ok, err := s.attribute(kind, name)
	if err != nil || !ok {
		return err
	}

	return s.db.Table(kind.joinTable()).
		Where("video_id = ? AND "+kind.joinColumn()+" = ?", videoID, attr.ID).
		Delete(nil).Error
}

func (s *SQLite) VideoAttributes(kind AttributeKind, videoID string) ([]Attribute, error) {
	join := kind.joinTable()

	var attrs []Attribute
	err := s.db.Table(kind.String()).
		Select(kind.String()+".id, "+kind.String()+".name").
		Joins(fmt.Sprintf(
			"JOIN %s ON %s.%s = %s.id",
			join, join, kind.joinColumn(), kind.String(),
		)).
		Where(join+".video_id = ?", videoID).
		Order("name").
		Scan(&attrs).Error
	return attrs, err
}

func (s *SQLite) attribute(kind AttributeKind, name string) (Attribute, bool, error) {
	var attrs []Attribute
	err := s.db.Table(kind.String()).
		Where("name = ?", name).
		Limit(1).
		Scan(&attrs).Error
	if err != nil || len(attrs) == 0 {
		return Attribute{}, false, err
	}
	return attrs[0], true, nil
}

func (s *SQLite) Position(videoID string) (float64, bool, error) {
	var positions []Position
	err := s.db.Where("video_id = ?", videoID).Limit(1).Find(&positions).Error
	if err != nil || len(positions) == 0 {
		return 0, false, err
	}
	return positions[0].Seconds, true, nil
}

func (s *SQLite) SetPosition(videoID string, seconds float64) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"seconds", "updated_at"}),
	}).Create(&Position{VideoID: videoID, Seconds: seconds}).Error
}

// escapeLike quotes LIKE metacharacters so paths match literally.
func escapeLike(s string) string {
	return lo.Reduce([]string{`\`, "%", "_"}, func(acc, ch string, _ int) string {
		return strings.ReplaceAll(acc, ch, `\`+ch)
	}, s)
}
