package repository

import (
	"context"

	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() ledgerdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, entry *ledgerdomain.LedgerEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

// UpdateVersioned writes the full row guarded by the version the entry was
// read at. Zero rows affected means a concurrent writer won.
func (r *repository) UpdateVersioned(ctx context.Context, db *gorm.DB, entry *ledgerdomain.LedgerEntry) (bool, error) {
	readVersion := entry.Version
	entry.Version = readVersion + 1

	res := db.WithContext(ctx).
		Model(&ledgerdomain.LedgerEntry{}).
		Where("id = ? AND version = ?", entry.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(entry)
	if res.Error != nil {
		entry.Version = readVersion
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		entry.Version = readVersion
		return false, nil
	}
	return true, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ledgerdomain.LedgerEntry, error) {
	var entry ledgerdomain.LedgerEntry
	err := db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindForRepPeriod(ctx context.Context, db *gorm.DB, repID snowflake.ID, p period.Period) (*ledgerdomain.LedgerEntry, error) {
	var entry ledgerdomain.LedgerEntry
	err := db.WithContext(ctx).
		Where("representative_id = ? AND month = ? AND year = ?", repID, p.Month, p.Year).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListForPeriod(ctx context.Context, db *gorm.DB, p period.Period) ([]ledgerdomain.LedgerEntry, error) {
	var entries []ledgerdomain.LedgerEntry
	err := db.WithContext(ctx).
		Where("month = ? AND year = ?", p.Month, p.Year).
		Order("representative_id ASC").
		Find(&entries).Error
	return entries, err
}
