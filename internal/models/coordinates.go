package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Degrees is an angle in decimal degrees. The store API encodes it as a
// numeric string ("-37.3159"), but plain JSON numbers are accepted as well.
type Degrees float64

// UnmarshalJSON decodes either a JSON number or a numeric string.
func (d *Degrees) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var raw json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid degrees %s: %w", data, err)
		}
		raw = json.Number(s)
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid degrees %s: %w", data, err)
	}

	val, err := strconv.ParseFloat(raw.String(), 64)
	if err != nil {
		return fmt.Errorf("invalid degrees %s: %w", data, err)
	}
	*d = Degrees(val)

	return nil
}

// Geolocation represents a geographical point defined by its latitude and longitude.
type Geolocation struct {
	Lat  Degrees `json:"lat"`  // Latitude of the geographical point.
	Long Degrees `json:"long"` // Longitude of the geographical point.
}
