package domain

import (
	"net/url"
	"strings"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
)

type NumberRule int

const (
	RuleAny NumberRule = iota
	RulePositive
	RuleNonNegative
)

const (
	MsgPositive    = "must be positive"
	MsgNonNegative = "Cannot be negative"
	MsgInvalidURL  = "Must be valid URL"
)

// FieldSpec declares how one draft field is converted and checked.
type FieldSpec struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Rule     NumberRule
}

func (f FieldSpec) requiredMessage() string {
	return f.Label + " is required"
}

func (f FieldSpec) typeMessage() string {
	return f.Label + " must be a number"
}

func (f FieldSpec) ruleMessage() string {
	switch f.Rule {
	case RulePositive:
		return f.Label + " " + MsgPositive
	case RuleNonNegative:
		return MsgNonNegative
	default:
		return ""
	}
}

// Schema lists the scalar product fields in form order.
var Schema = []FieldSpec{
	{Name: "name", Label: "Name", Kind: KindText, Required: true},
	{Name: "shortName", Label: "Short name", Kind: KindText},
	{Name: "sku", Label: "SKU", Kind: KindText, Required: true},
	{Name: "barcode", Label: "Barcode", Kind: KindText},
	{Name: "description", Label: "Description", Kind: KindText},
	{Name: "brandId", Label: "Brand", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "supplierId", Label: "Supplier", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "manufacturer", Label: "Manufacturer", Kind: KindText},
	{Name: "countryOfOrigin", Label: "Country of origin", Kind: KindText},
	{Name: "price", Label: "Price", Kind: KindNumber, Rule: RulePositive},
	{Name: "manufacturePartNumber", Label: "Manufacture part number", Kind: KindText},
	{Name: "oemPartNumber", Label: "OEM part number", Kind: KindText},
	{Name: "length", Label: "Length", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "height", Label: "Height", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "width", Label: "Width", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "weight", Label: "Weight", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "onHand", Label: "On hand", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "allocated", Label: "Allocated", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "available", Label: "Available", Kind: KindNumber, Rule: RuleNonNegative},
	{Name: "unitMeasurementInHeight", Label: "Unit of height", Kind: KindText},
	{Name: "unitMeasurementInWeight", Label: "Unit of weight", Kind: KindText},
}

// LookupField returns the schema entry of a scalar field.
func LookupField(name string) (FieldSpec, bool) {
	for _, spec := range Schema {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// ValidateDraft converts a draft into a record. Blank numeric input is
// treated as absent; non-numeric input is a type error on that field.
func ValidateDraft(d Draft) (Record, FieldErrors) {
	errs := FieldErrors{}
	numbers := make(map[string]*float64, len(Schema))

	for _, spec := range Schema {
		if spec.Kind != KindNumber {
			continue
		}
		value, ok := parseNumber(d.Value(spec.Name))
		if !ok {
			errs.Set(spec.Name, spec.typeMessage())
			continue
		}
		numbers[spec.Name] = value
	}

	r := Record{
		Name:                    d.Name,
		Description:             d.Description,
		ShortName:               d.ShortName,
		SKU:                     d.SKU,
		Barcode:                 d.Barcode,
		BrandID:                 numbers["brandId"],
		SupplierID:              numbers["supplierId"],
		Price:                   numbers["price"],
		Available:               numbers["available"],
		Allocated:               numbers["allocated"],
		OnHand:                  numbers["onHand"],
		Manufacturer:            d.Manufacturer,
		ManufacturePartNumber:   d.ManufacturePartNumber,
		OEMPartNumber:           d.OEMPartNumber,
		Length:                  numbers["length"],
		Height:                  numbers["height"],
		Width:                   numbers["width"],
		Weight:                  numbers["weight"],
		CountryOfOrigin:         d.CountryOfOrigin,
		UnitMeasurementInHeight: d.UnitMeasurementInHeight,
		UnitMeasurementInWeight: d.UnitMeasurementInWeight,
		ProductImages:           append([]string{}, d.ProductImages...),
	}
	if d.ID != nil {
		id := *d.ID
		r.ID = &id
	}

	for field, message := range ValidateRecord(r) {
		errs.SetIfAbsent(field, message)
	}
	return r, errs
}

// ValidateRecord checks a typed record against Schema.
func ValidateRecord(r Record) FieldErrors {
	errs := FieldErrors{}
	for _, spec := range Schema {
		switch spec.Kind {
		case KindText:
			if spec.Required && strings.TrimSpace(recordText(r, spec.Name)) == "" {
				errs.Set(spec.Name, spec.requiredMessage())
			}
		case KindNumber:
			value := recordNumber(r, spec.Name)
			if value == nil {
				continue
			}
			switch spec.Rule {
			case RulePositive:
				if *value <= 0 {
					errs.Set(spec.Name, spec.ruleMessage())
				}
			case RuleNonNegative:
				if *value < 0 {
					errs.Set(spec.Name, spec.ruleMessage())
				}
			}
		}
	}
	for _, image := range r.ProductImages {
		if !ValidImageRef(image) {
			errs.Set("productImages", MsgInvalidURL)
			break
		}
	}
	return errs
}

// ValidImageRef accepts absolute http(s) URLs and base64 image data URLs.
func ValidImageRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "data:") {
		header, payload, ok := strings.Cut(ref, ",")
		return ok && payload != "" &&
			strings.HasPrefix(header, "data:image/") &&
			strings.HasSuffix(header, ";base64")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func recordText(r Record, name string) string {
	switch name {
	case "name":
		return r.Name
	case "sku":
		return r.SKU
	case "description":
		return r.Description
	case "shortName":
		return r.ShortName
	case "barcode":
		return r.Barcode
	case "manufacturer":
		return r.Manufacturer
	case "manufacturePartNumber":
		return r.ManufacturePartNumber
	case "oemPartNumber":
		return r.OEMPartNumber
	case "countryOfOrigin":
		return r.CountryOfOrigin
	case "unitMeasurementInHeight":
		return r.UnitMeasurementInHeight
	case "unitMeasurementInWeight":
		return r.UnitMeasurementInWeight
	default:
		return ""
	}
}

func recordNumber(r Record, name string) *float64 {
	switch name {
	case "price":
		return r.Price
	case "available":
		return r.Available
	case "allocated":
		return r.Allocated
	case "onHand":
		return r.OnHand
	case "length":
		return r.Length
	case "height":
		return r.Height
	case "width":
		return r.Width
	case "weight":
		return r.Weight
	case "brandId":
		return r.BrandID
	case "supplierId":
		return r.SupplierID
	default:
		return nil
	}
}
