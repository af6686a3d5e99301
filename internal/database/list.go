package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/Masterminds/squirrel"
)

//go:embed schema.sql
var Schema string

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var restaurantColumns = []string{
	"id", "name", "address", "phone", "email", "opening_date",
	"seats_count", "restaurant_type_id", "is_active", "created_at",
}

// ListRestaurantsParams filters a restaurant listing. Zero values disable a
// filter.
type ListRestaurantsParams struct {
	NameContains string
	Active       *bool
	Limit        uint64
	Offset       uint64
}

// ListRestaurantsQuery builds the listing statement. sqlc cannot express
// optional filters, so this one is assembled with squirrel.
func ListRestaurantsQuery(arg ListRestaurantsParams) (string, []interface{}, error) {
	q := psql.Select(restaurantColumns...).From("restaurants").OrderBy("id")

	if arg.NameContains != "" {
		q = q.Where(squirrel.ILike{"name": "%" + arg.NameContains + "%"})
	}
	if arg.Active != nil {
		q = q.Where(squirrel.Eq{"is_active": *arg.Active})
	}
	if arg.Limit > 0 {
		q = q.Limit(arg.Limit)
	}
	if arg.Offset > 0 {
		q = q.Offset(arg.Offset)
	}
	return q.ToSql()
}

func (q *Queries) ListRestaurants(ctx context.Context, arg ListRestaurantsParams) ([]Restaurant, error) {
	query, args, err := ListRestaurantsQuery(arg)
	if err != nil {
		return nil, fmt.Errorf("build restaurant listing: %w", err)
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Restaurant
	for rows.Next() {
		var i Restaurant
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Address,
			&i.Phone,
			&i.Email,
			&i.OpeningDate,
			&i.SeatsCount,
			&i.RestaurantTypeID,
			&i.IsActive,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
