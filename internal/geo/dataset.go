package geo

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	countriesFile    = "countries.yaml"
	subdivisionsFile = "subdivisions.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

// ErrInvalidDataset is returned when reference data fails to load or is inconsistent.
var ErrInvalidDataset = errors.New("invalid geo dataset")

// Dataset is the immutable ISO 3166 reference data a Resolver searches.
type Dataset struct {
	Countries    []Country
	Subdivisions []Subdivision
}

type countryRecord struct {
	Name         string `yaml:"name"`
	OfficialName string `yaml:"official_name"`
	Alpha2       string `yaml:"alpha_2"`
	Alpha3       string `yaml:"alpha_3"`
	Numeric      string `yaml:"numeric"`
}

type subdivisionRecord struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	CountryCode string `yaml:"country_code"`
	ParentCode  string `yaml:"parent_code"`
}

// DefaultDataset returns the reference data compiled into the binary.
func DefaultDataset() (*Dataset, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return LoadDataset(sub)
}

// LoadDataset reads countries.yaml and subdivisions.yaml from fsys.
func LoadDataset(fsys fs.FS) (*Dataset, error) {
	var countries []countryRecord
	if err := readYAML(fsys, countriesFile, &countries); err != nil {
		return nil, err
	}
	var subdivisions []subdivisionRecord
	if err := readYAML(fsys, subdivisionsFile, &subdivisions); err != nil {
		return nil, err
	}

	ds := &Dataset{
		Countries:    make([]Country, 0, len(countries)),
		Subdivisions: make([]Subdivision, 0, len(subdivisions)),
	}

	for i, rec := range countries {
		if rec.Name == "" || len(rec.Alpha2) != 2 || len(rec.Alpha3) != 3 {
			return nil, fmt.Errorf("%w: %s entry %d is incomplete", ErrInvalidDataset, countriesFile, i)
		}
		numeric, err := strconv.Atoi(rec.Numeric)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: country %s has non-numeric code %q",
				ErrInvalidDataset, countriesFile, rec.Alpha2, rec.Numeric)
		}
		ds.Countries = append(ds.Countries, Country{
			Name:         rec.Name,
			OfficialName: rec.OfficialName,
			Alpha2:       strings.ToUpper(rec.Alpha2),
			Alpha3:       strings.ToUpper(rec.Alpha3),
			Numeric:      numeric,
			Flag:         flagEmoji(rec.Alpha2),
		})
	}

	for i, rec := range subdivisions {
		if rec.Code == "" || rec.Name == "" || !strings.Contains(rec.Code, "-") {
			return nil, fmt.Errorf("%w: %s entry %d is incomplete", ErrInvalidDataset, subdivisionsFile, i)
		}
		countryCode := rec.CountryCode
		if countryCode == "" {
			countryCode = rec.Code[:strings.Index(rec.Code, "-")]
		}
		ds.Subdivisions = append(ds.Subdivisions, Subdivision{
			Name:        rec.Name,
			Type:        rec.Type,
			Code:        rec.Code,
			CountryCode: countryCode,
			ParentCode:  rec.ParentCode,
		})
	}

	return ds, nil
}

func readYAML(fsys fs.FS, name string, out interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalidDataset, name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidDataset, name, err)
	}
	return nil
}

// flagEmoji maps an alpha-2 code onto its pair of regional indicator symbols.
func flagEmoji(alpha2 string) string {
	if len(alpha2) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(alpha2) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
