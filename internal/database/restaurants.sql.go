// Queries from queries/restaurants.sql.

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const deleteRestaurant = `-- name: DeleteRestaurant :execrows
DELETE FROM restaurants
WHERE id = $1
`

func (q *Queries) DeleteRestaurant(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteRestaurant, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getRestaurant = `-- name: GetRestaurant :one
SELECT id, name, address, phone, email, opening_date, seats_count, restaurant_type_id, is_active, created_at FROM restaurants
WHERE id = $1
`

func (q *Queries) GetRestaurant(ctx context.Context, id int64) (Restaurant, error) {
	row := q.db.QueryRow(ctx, getRestaurant, id)
	var i Restaurant
	err := row.Scan(
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
	)
	return i, err
}

const getRestaurantByNaturalKey = `-- name: GetRestaurantByNaturalKey :one
SELECT id, name, address, phone, email, opening_date, seats_count, restaurant_type_id, is_active, created_at FROM restaurants
WHERE name = $1 AND address = $2
LIMIT 1
`

type GetRestaurantByNaturalKeyParams struct {
	Name    string
	Address string
}

func (q *Queries) GetRestaurantByNaturalKey(ctx context.Context, arg GetRestaurantByNaturalKeyParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, getRestaurantByNaturalKey, arg.Name, arg.Address)
	var i Restaurant
	err := row.Scan(
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
	)
	return i, err
}

const insertRestaurant = `-- name: InsertRestaurant :one
INSERT INTO restaurants (
    name, address, phone, email, opening_date, seats_count, restaurant_type_id, is_active
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING id, name, address, phone, email, opening_date, seats_count, restaurant_type_id, is_active, created_at
`

type InsertRestaurantParams struct {
	Name             string
	Address          string
	Phone            pgtype.Text
	Email            pgtype.Text
	OpeningDate      pgtype.Date
	SeatsCount       int32
	RestaurantTypeID int32
	IsActive         bool
}

func (q *Queries) InsertRestaurant(ctx context.Context, arg InsertRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, insertRestaurant,
		arg.Name,
		arg.Address,
		arg.Phone,
		arg.Email,
		arg.OpeningDate,
		arg.SeatsCount,
		arg.RestaurantTypeID,
		arg.IsActive,
	)
	var i Restaurant
	err := row.Scan(
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
	)
	return i, err
}
