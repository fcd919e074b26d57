package domain

import (
	"math"
	"strconv"
	"strings"
)

// Draft is the editable state of one product form. Scalars are kept exactly
// as entered; conversion happens in ValidateDraft.
type Draft struct {
	ID *int64

	Name                    string
	Description             string
	ShortName               string
	SKU                     string
	Barcode                 string
	BrandID                 string
	SupplierID              string
	Price                   string
	Available               string
	Allocated               string
	OnHand                  string
	Manufacturer            string
	ManufacturePartNumber   string
	OEMPartNumber           string
	Length                  string
	Height                  string
	Width                   string
	Weight                  string
	CountryOfOrigin         string
	UnitMeasurementInHeight string
	UnitMeasurementInWeight string

	ProductImages []string
}

// NewDraft returns the defaults of the create flow.
func NewDraft() Draft {
	return Draft{
		Available:     "0",
		Allocated:     "0",
		OnHand:        "0",
		ProductImages: []string{},
	}
}

// DraftFromRecord seeds the edit flow from a fetched record.
func DraftFromRecord(r Record) Draft {
	d := Draft{
		Name:                    r.Name,
		Description:             r.Description,
		ShortName:               r.ShortName,
		SKU:                     r.SKU,
		Barcode:                 r.Barcode,
		BrandID:                 formatNumber(r.BrandID),
		SupplierID:              formatNumber(r.SupplierID),
		Price:                   formatNumber(r.Price),
		Available:               formatNumber(r.Available),
		Allocated:               formatNumber(r.Allocated),
		OnHand:                  formatNumber(r.OnHand),
		Manufacturer:            r.Manufacturer,
		ManufacturePartNumber:   r.ManufacturePartNumber,
		OEMPartNumber:           r.OEMPartNumber,
		Length:                  formatNumber(r.Length),
		Height:                  formatNumber(r.Height),
		Width:                   formatNumber(r.Width),
		Weight:                  formatNumber(r.Weight),
		CountryOfOrigin:         r.CountryOfOrigin,
		UnitMeasurementInHeight: r.UnitMeasurementInHeight,
		UnitMeasurementInWeight: r.UnitMeasurementInWeight,
		ProductImages:           append([]string{}, r.ProductImages...),
	}
	if r.ID != nil {
		id := *r.ID
		d.ID = &id
	}
	return d
}

func (d *Draft) ref(name string) *string {
	switch name {
	case "name":
		return &d.Name
	case "description":
		return &d.Description
	case "shortName":
		return &d.ShortName
	case "sku":
		return &d.SKU
	case "barcode":
		return &d.Barcode
	case "brandId":
		return &d.BrandID
	case "supplierId":
		return &d.SupplierID
	case "price":
		return &d.Price
	case "available":
		return &d.Available
	case "allocated":
		return &d.Allocated
	case "onHand":
		return &d.OnHand
	case "manufacturer":
		return &d.Manufacturer
	case "manufacturePartNumber":
		return &d.ManufacturePartNumber
	case "oemPartNumber":
		return &d.OEMPartNumber
	case "length":
		return &d.Length
	case "height":
		return &d.Height
	case "width":
		return &d.Width
	case "weight":
		return &d.Weight
	case "countryOfOrigin":
		return &d.CountryOfOrigin
	case "unitMeasurementInHeight":
		return &d.UnitMeasurementInHeight
	case "unitMeasurementInWeight":
		return &d.UnitMeasurementInWeight
	default:
		return nil
	}
}

// Set assigns one scalar field by its wire name.
func (d *Draft) Set(name, value string) error {
	ptr := d.ref(name)
	if ptr == nil {
		return ErrUnknownField
	}
	*ptr = value
	return nil
}

// Value returns a scalar field by its wire name, "" for unknown names.
func (d Draft) Value(name string) string {
	ptr := d.ref(name)
	if ptr == nil {
		return ""
	}
	return *ptr
}

func (d Draft) IsUpdate() bool {
	return d.ID != nil
}

func (d Draft) Clone() Draft {
	out := d
	out.ProductImages = append([]string{}, d.ProductImages...)
	if d.ID != nil {
		id := *d.ID
		out.ID = &id
	}
	return out
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseNumber(raw string) (*float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, true
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, false
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil, false
	}
	return &parsed, true
}
