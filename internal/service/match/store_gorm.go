package match

import (
	"context"
	"errors"
	"iter"

	"wetime-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps the queue in the match_queue table.
type GormStore struct {
	db    *gorm.DB
	batch int
}

func NewGormStore(db *gorm.DB, batch int) *GormStore {
	if batch <= 0 {
		batch = defaultScanBatch
	}
	return &GormStore{db: db, batch: batch}
}

func (s *GormStore) Upsert(ctx context.Context, t Ticket) error {
	row := toRow(t)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"origin_channel", "joined_at"}),
	}).Create(&row).Error
	if err != nil {
		return storageErr("upsert", err)
	}
	return nil
}

func (s *GormStore) Scan(ctx context.Context, tenantID string) iter.Seq2[Ticket, error] {
	return func(yield func(Ticket, error) bool) {
		var cursor *model.QueueTicket
		for {
			q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
			if cursor != nil {
				q = q.Where("(joined_at > ? OR (joined_at = ? AND participant_id > ?))",
					cursor.JoinedAt, cursor.JoinedAt, cursor.ParticipantID)
			}
			var rows []model.QueueTicket
			err := q.Order("joined_at ASC").Order("participant_id ASC").Limit(s.batch).Find(&rows).Error
			if err != nil {
				yield(Ticket{}, storageErr("scan", err))
				return
			}
			for i := range rows {
				if !yield(fromRow(rows[i]), nil) {
					return
				}
			}
			if len(rows) < s.batch {
				return
			}
			last := rows[len(rows)-1]
			cursor = &last
		}
	}
}

func (s *GormStore) Remove(ctx context.Context, tenantID, participantID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("tenant_id = ? AND participant_id = ?", tenantID, participantID).
		Delete(&model.QueueTicket{})
	if res.Error != nil {
		return false, storageErr("remove", res.Error)
	}
	return res.RowsAffected > 0, nil
}

var errPartnerGone = errors.New("partner ticket already consumed")

func (s *GormStore) ConsumePair(ctx context.Context, tenantID, partnerID, requesterID string) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("tenant_id = ? AND participant_id = ?", tenantID, partnerID).
			Delete(&model.QueueTicket{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPartnerGone
		}
		return tx.Where("tenant_id = ? AND participant_id = ?", tenantID, requesterID).
			Delete(&model.QueueTicket{}).Error
	})
	if errors.Is(err, errPartnerGone) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("consume", err)
	}
	return true, nil
}

func (s *GormStore) Lookup(ctx context.Context, tenantID, participantID string) (Ticket, bool, error) {
	var row model.QueueTicket
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND participant_id = ?", tenantID, participantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Ticket{}, false, nil
		}
		return Ticket{}, false, storageErr("lookup", err)
	}
	return fromRow(row), true, nil
}

func toRow(t Ticket) model.QueueTicket {
	return model.QueueTicket{
		TenantID:      t.TenantID,
		ParticipantID: t.ParticipantID,
		OriginChannel: t.OriginChannel,
		JoinedAt:      t.JoinedAt.UTC(),
	}
}

func fromRow(row model.QueueTicket) Ticket {
	return Ticket{
		ParticipantID: row.ParticipantID,
		TenantID:      row.TenantID,
		OriginChannel: row.OriginChannel,
		JoinedAt:      row.JoinedAt.UTC(),
	}
}
