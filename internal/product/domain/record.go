package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Record is a catalog product as exchanged with the product API.
type Record struct {
	ID                      *int64   `json:"id,omitempty"`
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	ShortName               string   `json:"shortName"`
	SKU                     string   `json:"sku"`
	Barcode                 string   `json:"barcode"`
	BrandID                 *float64 `json:"brandId"`
	SupplierID              *float64 `json:"supplierId"`
	Price                   *float64 `json:"price"`
	Available               *float64 `json:"available"`
	Allocated               *float64 `json:"allocated"`
	OnHand                  *float64 `json:"onHand"`
	Manufacturer            string   `json:"manufacturer"`
	ManufacturePartNumber   string   `json:"manufacturePartNumber"`
	OEMPartNumber           string   `json:"oemPartNumber"`
	Length                  *float64 `json:"length"`
	Height                  *float64 `json:"height"`
	Width                   *float64 `json:"width"`
	Weight                  *float64 `json:"weight"`
	CountryOfOrigin         string   `json:"countryOfOrigin"`
	UnitMeasurementInHeight string   `json:"unitMeasurementInHeight"`
	UnitMeasurementInWeight string   `json:"unitMeasurementInWeight"`
	ProductImages           []string `json:"productImages"`

	CreatedAt Timestamp `json:"created_at,omitempty"`
}

// MarshalJSON always emits productImages as an array and omits an unset
// created_at, which only the server assigns.
func (r Record) MarshalJSON() ([]byte, error) {
	type payload Record
	out := struct {
		payload
		CreatedAt *Timestamp `json:"created_at,omitempty"`
	}{payload: payload(r)}
	if out.ProductImages == nil {
		out.ProductImages = []string{}
	}
	if !r.CreatedAt.IsZero() {
		createdAt := r.CreatedAt
		out.CreatedAt = &createdAt
	}
	return json.Marshal(out)
}

// Timestamp accepts the date-time shapes the product API is known to emit:
// RFC 3339 with or without fraction, and zone-less local date-times.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var millis int64
		if numErr := json.Unmarshal(data, &millis); numErr != nil {
			return err
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	// Unknown shapes are tolerated so one odd row cannot fail a whole page.
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Display renders the row format of the list view (dd/MM/yy HH:mm).
func (t Timestamp) Display() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/06 15:04")
}
