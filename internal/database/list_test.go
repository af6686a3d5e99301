package database

import (
	"reflect"
	"strings"
	"testing"
)

func TestListRestaurantsQuery(t *testing.T) {
	active := true

	tests := []struct {
		name      string
		params    ListRestaurantsParams
		wantWhere string
		wantTail  string
		wantArgs  []interface{}
	}{
		{
			name:     "no filters",
			params:   ListRestaurantsParams{},
			wantTail: "FROM restaurants ORDER BY id",
			wantArgs: nil,
		},
		{
			name:      "name filter",
			params:    ListRestaurantsParams{NameContains: "cafe"},
			wantWhere: "WHERE name ILIKE $1",
			wantArgs:  []interface{}{"%cafe%"},
		},
		{
			name:      "name and active",
			params:    ListRestaurantsParams{NameContains: "cafe", Active: &active},
			wantWhere: "WHERE name ILIKE $1 AND is_active = $2",
			wantArgs:  []interface{}{"%cafe%", true},
		},
		{
			name:     "paging",
			params:   ListRestaurantsParams{Limit: 20, Offset: 40},
			wantTail: "ORDER BY id LIMIT 20 OFFSET 40",
			wantArgs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := ListRestaurantsQuery(tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(sql, "SELECT id, name, address") {
				t.Errorf("sql = %q, want column list prefix", sql)
			}
			if tt.wantWhere != "" && !strings.Contains(sql, tt.wantWhere) {
				t.Errorf("sql = %q, want %q", sql, tt.wantWhere)
			}
			if tt.wantTail != "" && !strings.HasSuffix(sql, tt.wantTail) {
				t.Errorf("sql = %q, want suffix %q", sql, tt.wantTail)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestSchemaDeclaresNaturalKey(t *testing.T) {
	if !strings.Contains(Schema, "UNIQUE (name, address)") {
		t.Error("schema must declare the restaurant natural key as unique")
	}
}
