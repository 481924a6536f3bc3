package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbos/tcc/encode"
)

// PostgresDataStore mirrors the card database into PostgreSQL so compiled
// sets can be queried alongside other catalog data.
type PostgresDataStore struct {
	cp *pgxpool.Pool // Connection pool to the PostgreSQL database
}

var catalogSchema = []string{
	`CREATE TABLE IF NOT EXISTS datas (
		id bigint PRIMARY KEY, ot bigint, alias bigint, setcode bigint, type bigint,
		atk bigint, def bigint, level bigint, race bigint, attribute bigint, category bigint
	)`,
	`CREATE TABLE IF NOT EXISTS texts (
		id bigint PRIMARY KEY, name text, "desc" text,
		str1 text, str2 text, str3 text, str4 text, str5 text, str6 text, str7 text, str8 text,
		str9 text, str10 text, str11 text, str12 text, str13 text, str14 text, str15 text, str16 text
	)`,
}

const upsertData = `INSERT INTO datas (id, ot, alias, setcode, type, atk, def, level, race, attribute, category)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET ot = EXCLUDED.ot, alias = EXCLUDED.alias, setcode = EXCLUDED.setcode,
	type = EXCLUDED.type, atk = EXCLUDED.atk, def = EXCLUDED.def, level = EXCLUDED.level,
	race = EXCLUDED.race, attribute = EXCLUDED.attribute, category = EXCLUDED.category`

const upsertText = `INSERT INTO texts (id, name, "desc", str1, str2, str3, str4, str5, str6, str7, str8,
	str9, str10, str11, str12, str13, str14, str15, str16)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, "desc" = EXCLUDED."desc",
	str1 = EXCLUDED.str1, str2 = EXCLUDED.str2, str3 = EXCLUDED.str3, str4 = EXCLUDED.str4,
	str5 = EXCLUDED.str5, str6 = EXCLUDED.str6, str7 = EXCLUDED.str7, str8 = EXCLUDED.str8,
	str9 = EXCLUDED.str9, str10 = EXCLUDED.str10, str11 = EXCLUDED.str11, str12 = EXCLUDED.str12,
	str13 = EXCLUDED.str13, str14 = EXCLUDED.str14, str15 = EXCLUDED.str15, str16 = EXCLUDED.str16`

// EnsureSchema creates the mirror tables if they do not exist.
func (r *PostgresDataStore) EnsureSchema(ctx context.Context) error {
	c, err := r.cp.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("Error acquiring connection from pool: %w", err)
	}
	defer c.Release()

	for _, stmt := range catalogSchema {
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("Error creating catalog schema: %w", err)
		}
	}
	return nil
}

// Upsert writes every record in one batch.
func (r *PostgresDataStore) Upsert(ctx context.Context, recs ...encode.Record) error {
	if len(recs) == 0 {
		return nil
	}
	c, err := r.cp.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("Error acquiring connection from pool: %w", err)
	}
	defer c.Release()

	batch := &pgx.Batch{}
	for _, rec := range recs {
		d, t := rows(rec)
		batch.Queue(upsertData, d.ID, d.Ot, d.Alias, d.Setcode, d.Type, d.Atk, d.Def, d.Level, d.Race, d.Attribute, d.Category)

		args := []any{t.ID, t.Name, t.Desc}
		for _, s := range t.strs() {
			args = append(args, *s)
		}
		batch.Queue(upsertText, args...)
	}

	tx, err := c.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("Error executing batch upsert for cards: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("Error closing batch: %w", err)
	}
	return tx.Commit(ctx)
}

// DeleteExcept removes every card whose id is not in keep.
func (r *PostgresDataStore) DeleteExcept(ctx context.Context, keep []int64) (int64, error) {
	c, err := r.cp.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("Error acquiring connection from pool: %w", err)
	}
	defer c.Release()

	if keep == nil {
		keep = []int64{}
	}
	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM datas WHERE NOT (id = ANY($1))", keep)
	batch.Queue("DELETE FROM texts WHERE NOT (id = ANY($1))", keep)

	br := c.SendBatch(ctx, batch)
	defer br.Close()

	tag, err := br.Exec()
	if err != nil {
		return 0, fmt.Errorf("Error deleting stale data rows: %w", err)
	}
	if _, err := br.Exec(); err != nil {
		return 0, fmt.Errorf("Error deleting stale text rows: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IDs returns the stored ids in ascending order.
func (r *PostgresDataStore) IDs(ctx context.Context) ([]int64, error) {
	res, err := r.cp.Query(ctx, "SELECT id FROM datas ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("Error listing card ids: %w", err)
	}
	ids, err := pgx.CollectRows(res, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("Error scanning card ids: %w", err)
	}
	return ids, nil
}

// Get reads one card back.
func (r *PostgresDataStore) Get(ctx context.Context, id int64) (encode.Record, error) {
	c, err := r.cp.Acquire(ctx)
	if err != nil {
		return encode.Record{}, fmt.Errorf("Error acquiring connection from pool: %w", err)
	}
	defer c.Release()

	var d Data
	row := c.QueryRow(ctx,
		"SELECT id, ot, alias, setcode, type, atk, def, level, race, attribute, category FROM datas WHERE id=$1;", id,
	)
	if err := row.Scan(&d.ID, &d.Ot, &d.Alias, &d.Setcode, &d.Type, &d.Atk, &d.Def, &d.Level, &d.Race, &d.Attribute, &d.Category); err != nil {
		return encode.Record{}, pgNotFound(id, err)
	}

	var t Text
	dest := []any{&t.ID, &t.Name, &t.Desc}
	for _, s := range t.strs() {
		dest = append(dest, s)
	}
	row = c.QueryRow(ctx, `SELECT id, name, "desc", str1, str2, str3, str4, str5, str6, str7, str8,
		str9, str10, str11, str12, str13, str14, str15, str16 FROM texts WHERE id=$1;`, id)
	if err := row.Scan(dest...); err != nil {
		return encode.Record{}, pgNotFound(id, err)
	}
	return record(d, t), nil
}

// Close closes the pool.
func (r *PostgresDataStore) Close() error {
	r.cp.Close()
	return nil
}

func pgNotFound(id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("card %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("Error scanning card %d: %w", id, err)
}
