// Package items provides the PostgreSQL repository for the card catalog.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/dbx"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

const itemColumns = `id, name, rarity, description, artwork_ref, price, attack, defense, enchant_level, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.Item, error) {
	item := &models.Item{}
	err := s.Scan(&item.ID, &item.Name, &item.Rarity, &item.Description, &item.ArtworkRef,
		&item.Price, &item.Attack, &item.Defense, &item.EnchantLevel, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`INSERT INTO items (name, rarity, description, artwork_ref, price, attack, defense)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ` + itemColumns

	created, err := scanItem(r.db.QueryRowContext(ctx, query,
		item.Name, item.Rarity, item.Description, item.ArtworkRef, item.Price, item.Attack, item.Defense))
	if err != nil {
		if dbx.IsUniqueViolation(err, "items_name_key") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE lower(name) = lower($1)`
	return r.getOne(ctx, query, name)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
}

func (r *PostgresRepository) ListForSale(ctx context.Context) ([]*models.Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items WHERE price > 0 ORDER BY price, id`)
}

func (r *PostgresRepository) Enchant(ctx context.Context, id int64, attackGain, defenseGain int64) (*models.Item, error) {
	query :=
		`UPDATE items SET enchant_level = enchant_level + 1, attack = attack + $2, defense = defense + $3
		 WHERE id = $1
		 RETURNING ` + itemColumns
	return r.getOne(ctx, query, id, attackGain, defenseGain)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string) ([]*models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
