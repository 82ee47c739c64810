// Package input loads the delimited region and car-model reference files.
// Records are semicolon separated with a single header row; decimal values
// may use a comma as decimal mark. Malformed records are fatal: the run is
// rejected rather than silently defaulted.
package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/evfleet/chargesim/core/model"
)

// Config points at the reference data files.
type Config struct {
	RegionsFile string `json:"regions_file"`
	CarsFile    string `json:"cars_file"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.RegionsFile == "" {
		c.RegionsFile = "data/regions.csv"
	}
	if c.CarsFile == "" {
		c.CarsFile = "data/cars.csv"
	}
}

// ReadRegions parses the region definition file.
func ReadRegions(path string) ([]model.RegionSpec, error) {
	rows, err := readRows(path, 8)
	if err != nil {
		return nil, err
	}
	specs := make([]model.RegionSpec, 0, len(rows))
	for i, row := range rows {
		spec, err := parseRegion(row)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+2, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseRegion(row []string) (model.RegionSpec, error) {
	var spec model.RegionSpec
	var err error
	spec.ID = strings.TrimSpace(row[0])
	if spec.Latitude, err = parseFloat(row[1]); err != nil {
		return spec, fmt.Errorf("latitude: %w", err)
	}
	if spec.Longitude, err = parseFloat(row[2]); err != nil {
		return spec, fmt.Errorf("longitude: %w", err)
	}
	if spec.AvgPopulation, err = strconv.Atoi(strings.TrimSpace(row[3])); err != nil {
		return spec, fmt.Errorf("average population: %w", err)
	}
	if spec.DrivingPct, err = parseFloat(row[4]); err != nil {
		return spec, fmt.Errorf("driving percentage: %w", err)
	}
	if spec.AvgIncome, err = parseFloat(row[5]); err != nil {
		return spec, fmt.Errorf("average income: %w", err)
	}
	if spec.Chargers, err = strconv.Atoi(strings.TrimSpace(row[6])); err != nil {
		return spec, fmt.Errorf("charger capacity: %w", err)
	}
	if spec.Traffic, err = strconv.Atoi(strings.TrimSpace(row[7])); err != nil {
		return spec, fmt.Errorf("traffic weight: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

// ReadCarModels parses the car-model definition file.
func ReadCarModels(path string) ([]model.CarModel, error) {
	rows, err := readRows(path, 3)
	if err != nil {
		return nil, err
	}
	models := make([]model.CarModel, 0, len(rows))
	for i, row := range rows {
		var m model.CarModel
		m.ID = strings.TrimSpace(row[0])
		autonomy, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: autonomy: %w", path, i+2, err)
		}
		m.Autonomy = float64(autonomy)
		if m.Price, err = strconv.Atoi(strings.TrimSpace(row[2])); err != nil {
			return nil, fmt.Errorf("%s: record %d: price: %w", path, i+2, err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+2, err)
		}
		models = append(models, m)
	}
	return models, nil
}

// readRows reads all data rows, skipping the header and enforcing the field
// count.
func readRows(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = fields
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	return rows[1:], nil
}

// parseFloat accepts both dot and comma decimal marks.
func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}
