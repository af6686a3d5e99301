package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type ImportRun struct {
	ID         pgtype.UUID
	FileName   string
	Entity     string
	Total      int32
	Successful int32
	Failed     int32
	Skipped    int32
	FatalError pgtype.Text
	StartedAt  pgtype.Timestamptz
	DurationMs int64
}

type Restaurant struct {
	ID               int64
	Name             string
	Address          string
	Phone            pgtype.Text
	Email            pgtype.Text
	OpeningDate      pgtype.Date
	SeatsCount       int32
	RestaurantTypeID int32
	IsActive         bool
	CreatedAt        pgtype.Timestamptz
}
