package datastore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gurbos/tcc/encode"
)

// The dueling engine reads these tables as they are, so they are created
// with explicit DDL rather than migrated from the structs.
var cardDBSchema = []string{
	`CREATE TABLE IF NOT EXISTS datas (
		id integer PRIMARY KEY, ot integer, alias integer, setcode integer, type integer,
		atk integer, def integer, level integer, race integer, attribute integer, category integer
	)`,
	`CREATE TABLE IF NOT EXISTS texts (
		id integer PRIMARY KEY, name text, "desc" text,
		str1 text, str2 text, str3 text, str4 text, str5 text, str6 text, str7 text, str8 text,
		str9 text, str10 text, str11 text, str12 text, str13 text, str14 text, str15 text, str16 text
	)`,
	`CREATE TABLE IF NOT EXISTS setcodes (
		officialcode integer, betacode integer, name text UNIQUE, cardid integer
	)`,
}

// CardDB is the SQLite card database (.cdb) read by the dueling engine.
type CardDB struct {
	db *gorm.DB
}

// OpenCardDB opens or creates the card database at path.
func OpenCardDB(ctx context.Context, path string) (*CardDB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("Error opening card database %s: %w", path, err)
	}
	for _, stmt := range cardDBSchema {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("Error creating card database schema: %w", err)
		}
	}
	return &CardDB{db: db}, nil
}

// Upsert writes both rows of each record, replacing existing rows with the
// same id.
func (s *CardDB) Upsert(ctx context.Context, recs ...encode.Record) error {
	if len(recs) == 0 {
		return nil
	}
	datas := make([]Data, len(recs))
	texts := make([]Text, len(recs))
	for i, r := range recs {
		datas[i], texts[i] = rows(r)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
		if err := tx.Clauses(upsert).Create(&datas).Error; err != nil {
			return err
		}
		return tx.Clauses(upsert).Create(&texts).Error
	})
	if err != nil {
		return fmt.Errorf("Error upserting %d cards: %w", len(recs), err)
	}
	return nil
}

// DeleteExcept removes every card whose id is not in keep and returns how many
// cards were removed.
func (s *CardDB) DeleteExcept(ctx context.Context, keep []int64) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := func(tx *gorm.DB) *gorm.DB {
			if len(keep) == 0 {
				return tx.Where("1 = 1")
			}
			return tx.Where("id NOT IN ?", keep)
		}
		res := tx.Scopes(scope).Delete(&Data{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Scopes(scope).Delete(&Text{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("Error deleting stale cards: %w", err)
	}
	return removed, nil
}

// IDs returns the ids of all stored cards in ascending order.
func (s *CardDB) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&Data{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("Error listing card ids: %w", err)
	}
	return ids, nil
}

// Get reads one card back.
func (s *CardDB) Get(ctx context.Context, id int64) (encode.Record, error) {
	var d Data
	var t Text
	db := s.db.WithContext(ctx)
	if err := db.First(&d, "id = ?", id).Error; err != nil {
		return encode.Record{}, notFound(id, err)
	}
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		return encode.Record{}, notFound(id, err)
	}
	return record(d, t), nil
}

// SaveSetCodes replaces the setcodes table with codes.
func (s *CardDB) SaveSetCodes(ctx context.Context, codes encode.SetCodes) error {
	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Setcode, len(names))
	for i, name := range names {
		entries[i] = Setcode{OfficialCode: int64(codes[name]), BetaCode: int64(codes[name]), Name: name}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Setcode{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("Error saving setcodes: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *CardDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(id int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("card %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("Error reading card %d: %w", id, err)
}
