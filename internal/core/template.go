package core

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// RestaurantColumns is the column set a restaurant import file carries.
var RestaurantColumns = []string{
	"name", "address", "phone", "email",
	"opening_date", "seats_count", "restaurant_type_id", "is_active",
}

var restaurantSample = []string{
	"Blue Door Bistro", "12 Harbour Street", "+1 555 010 2030", "hello@bluedoor.example",
	"2024-01-15", "48", "1", "yes",
}

// WriteTemplate writes an import template with the restaurant header and one
// sample row, as CSV or XLSX depending on ext.
func WriteTemplate(w io.Writer, ext string) error {
	switch NormalizeExtension(ext) {
	case ".csv":
		cw := csv.NewWriter(w)
		if err := cw.WriteAll([][]string{RestaurantColumns, restaurantSample}); err != nil {
			return fmt.Errorf("write csv template: %w", err)
		}
		return nil
	case ".xlsx":
		return writeXLSXTemplate(w)
	}
	return fmt.Errorf("%w: templates are available as .csv or .xlsx", ErrUnsupportedFormat)
}

func writeXLSXTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range [][]string{RestaurantColumns, restaurantSample} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx template: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx template: %w", err)
	}
	return nil
}
