package store

import (
	"context"
	"errors"
	"time"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// participantRow is the participants table. Name is the primary key, which
// gives the uniqueness guarantee Join relies on.
type participantRow struct {
	Name         string `gorm:"primaryKey;size:255"`
	LastActivity int64  `gorm:"not null;index"` // unix ms
}

func (participantRow) TableName() string { return "participants" }

// messageRow is the messages table. Seq is the log order.
type messageRow struct {
	Seq       uint64 `gorm:"primaryKey;autoIncrement"`
	MessageID string `gorm:"size:26;uniqueIndex"`
	Sender    string `gorm:"size:255;index"`
	Recipient string `gorm:"size:255;index"`
	Body      string `gorm:"type:text"`
	Kind      string `gorm:"size:32;index"`
	Stamp     string `gorm:"size:16"`
}

func (messageRow) TableName() string { return "messages" }

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:   r.MessageID,
		From: r.Sender,
		To:   r.Recipient,
		Text: r.Body,
		Kind: domain.Kind(r.Kind),
		Time: r.Stamp,
	}
}

// sqlStore implements Store on any gorm dialect from pkg/database.
type sqlStore struct {
	db *gorm.DB
}

// NewSQLStore opens the database and migrates both tables.
func NewSQLStore(cfg database.Config) (Store, error) {
	db, err := database.New(&cfg)
	if err != nil {
		return nil, err
	}
	s, err := newSQLStore(db)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return s, nil
}

func newSQLStore(db *gorm.DB) (*sqlStore, error) {
	if err := database.AutoMigrate(db, &participantRow{}, &messageRow{}); err != nil {
		return nil, unavailable("migrate", err)
	}
	return &sqlStore{db: db}, nil
}

func (s *sqlStore) Join(ctx context.Context, name string, now time.Time) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&participantRow{Name: name, LastActivity: now.UnixMilli()})
	if res.Error != nil {
		return unavailable("join", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (s *sqlStore) Touch(ctx context.Context, name string, now time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&participantRow{}).
		Where("name = ?", name).
		Update("last_activity", now.UnixMilli())
	if res.Error != nil {
		return unavailable("touch", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, name string) (domain.Participant, error) {
	var row participantRow
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Participant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Participant{}, unavailable("get participant", err)
	}
	return domain.Participant{Name: row.Name, LastActivity: time.UnixMilli(row.LastActivity)}, nil
}

func (s *sqlStore) List(ctx context.Context) ([]domain.Participant, error) {
	var rows []participantRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, unavailable("list participants", err)
	}

	out := make([]domain.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Participant{Name: r.Name, LastActivity: time.UnixMilli(r.LastActivity)})
	}
	return out, nil
}

// ExpireOne picks the stalest candidate and deletes it only if it is still
// stale. A touch that commits in between turns the delete into a no-op, and
// the touch wins.
func (s *sqlStore) ExpireOne(ctx context.Context, threshold time.Time) (domain.Participant, error) {
	cutoff := threshold.UnixMilli()
	var victim participantRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("last_activity < ?", cutoff).
			Order("last_activity, name").
			Take(&victim).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		res := tx.Where("name = ? AND last_activity < ?", victim.Name, cutoff).Delete(&participantRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Participant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Participant{}, unavailable("expire participant", err)
	}
	return domain.Participant{Name: victim.Name, LastActivity: time.UnixMilli(victim.LastActivity)}, nil
}

func (s *sqlStore) Append(ctx context.Context, msg domain.Message) error {
	row := messageRow{
		MessageID: msg.ID,
		Sender:    msg.From,
		Recipient: msg.To,
		Body:      msg.Text,
		Kind:      string(msg.Kind),
		Stamp:     msg.Time,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return unavailable("append message", err)
	}
	return nil
}

// Recent pushes the visibility predicate into SQL; it must stay equivalent to
// domain.Visible.
func (s *sqlStore) Recent(ctx context.Context, viewer string, limit int) ([]domain.Message, error) {
	var rows []messageRow
	err := s.db.WithContext(ctx).
		Where("recipient = ? OR sender = ? OR recipient = ? OR kind = ?",
			viewer, viewer, domain.Everyone, string(domain.KindPublic)).
		Order("seq DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, unavailable("read messages", err)
	}

	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *sqlStore) Close() error {
	return database.Close(s.db)
}
