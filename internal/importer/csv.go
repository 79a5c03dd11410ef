package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/stwalsh4118/pfman/internal/models"
)

// MaxUploadSize caps an uploaded CSV file.
const MaxUploadSize = 10 << 20

// TemplateFilename is the suggested name of the downloadable template.
const TemplateFilename = "portfolio_template.csv"

var (
	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("csv file is empty")

	// ErrMalformedFile wraps CSV syntax errors.
	ErrMalformedFile = errors.New("malformed csv file")
)

// Row is one CSV record after columns have been renamed to attributes.
type Row struct {
	ID               string `csv:"id,omitempty"`
	Name             string `csv:"name,omitempty"`
	Unit             string `csv:"unit,omitempty"`
	HouseNumber      string `csv:"house_number,omitempty"`
	Street           string `csv:"street,omitempty"`
	AddressLine      string `csv:"address_line,omitempty"`
	Neighborhood     string `csv:"neighborhood,omitempty"`
	City             string `csv:"city,omitempty"`
	County           string `csv:"county,omitempty"`
	State            string `csv:"state,omitempty"`
	StateCode        string `csv:"state_code,omitempty"`
	Country          string `csv:"country,omitempty"`
	CountryCode      string `csv:"country_code,omitempty"`
	PostalCode       string `csv:"postal_code,omitempty"`
	FormattedAddress string `csv:"formatted_address,omitempty"`
	Latitude         string `csv:"latitude,omitempty"`
	Longitude        string `csv:"longitude,omitempty"`
}

// AddressInput converts the row for validation. Blank cells are unset.
func (r Row) AddressInput() models.AddressInput {
	s := func(v string) *string { return &v }
	return models.AddressInput{
		ID:               s(r.ID),
		Name:             s(r.Name),
		Unit:             s(r.Unit),
		HouseNumber:      r.HouseNumber,
		Street:           s(r.Street),
		AddressLine:      s(r.AddressLine),
		Neighborhood:     s(r.Neighborhood),
		City:             s(r.City),
		County:           s(r.County),
		State:            s(r.State),
		StateCode:        s(r.StateCode),
		Country:          s(r.Country),
		CountryCode:      s(r.CountryCode),
		PostalCode:       s(r.PostalCode),
		FormattedAddress: s(r.FormattedAddress),
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
	}
}

// Template returns an empty CSV with one column per attribute.
func Template() ([]byte, error) {
	header, err := csvutil.Header(Row{}, "csv")
	if err != nil {
		return nil, fmt.Errorf("failed to build template header: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// RowResult is the validation outcome of one data row.
type RowResult struct {
	Line    int                    `json:"line"`
	Address *models.Address        `json:"address,omitempty"`
	Valid   bool                   `json:"valid"`
	Errors  map[string]interface{} `json:"errors,omitempty"`
}

// Preview is the parsed file with every row validated.
type Preview struct {
	Columns      []string    `json:"columns"`
	Mapping      Mapping     `json:"mapping"`
	Rows         []RowResult `json:"rows"`
	ValidCount   int         `json:"valid_count"`
	InvalidCount int         `json:"invalid_count"`
}

// Addresses returns the addresses of the valid rows in file order.
func (p *Preview) Addresses() []models.Address {
	out := make([]models.Address, 0, p.ValidCount)
	for _, row := range p.Rows {
		if row.Valid && row.Address != nil {
			out = append(out, *row.Address)
		}
	}
	return out
}

// Parse reads a CSV file, renames its columns with mapping (or a suggested
// mapping when nil) and validates each row as a property address.
// Row-level validation failures are reported in the preview; structural
// problems with the file or the mapping are returned as errors.
func Parse(r io.Reader, mapping Mapping, resolver models.Resolver) (*Preview, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	for i, column := range header {
		column = strings.TrimSpace(column)
		if i == 0 {
			column = strings.TrimPrefix(column, "\ufeff")
		}
		header[i] = column
	}

	if mapping == nil {
		mapping = SuggestMapping(header)
	}
	if err := ValidateMapping(header, mapping); err != nil {
		return nil, err
	}

	renamed := make([]string, len(header))
	for i, column := range header {
		target := mapping[column]
		if target == "" || target == Ignored {
			target = fmt.Sprintf("%s_%d", Ignored, i)
		}
		renamed[i] = target
	}

	dec, err := csvutil.NewDecoder(cr, renamed...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	preview := &Preview{Columns: header, Mapping: mapping, Rows: []RowResult{}}
	for {
		var row Row
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		line, _ := cr.FieldPos(0)

		result, err := validateRow(line, row, resolver)
		if err != nil {
			return nil, err
		}
		if result.Valid {
			preview.ValidCount++
		} else {
			preview.InvalidCount++
		}
		preview.Rows = append(preview.Rows, result)
	}

	return preview, nil
}

func validateRow(line int, row Row, resolver models.Resolver) (RowResult, error) {
	addr, err := models.NewAddress(row.AddressInput(), resolver)
	if err != nil {
		var verrs models.ValidationErrors
		if !errors.As(err, &verrs) {
			return RowResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		return RowResult{Line: line, Errors: verrs.Details()}, nil
	}

	if !addr.IsValidPropertyAddress() {
		return RowResult{Line: line, Address: addr, Errors: map[string]interface{}{
			"address": "Row does not contain enough information to locate a property",
		}}, nil
	}
	return RowResult{Line: line, Address: addr, Valid: true}, nil
}
