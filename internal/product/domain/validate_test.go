package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	d := NewDraft()
	d.Name = "Widget"
	d.SKU = "WID-1"
	return d
}

func TestValidateDraftRequiresNameAndSKU(t *testing.T) {
	d := NewDraft()

	_, errs := ValidateDraft(d)

	assert.Equal(t, "Name is required", errs.Get("name"))
	assert.Equal(t, "SKU is required", errs.Get("sku"))
}

func TestValidateDraftWhitespaceNameIsMissing(t *testing.T) {
	d := validDraft()
	d.Name = "   "

	_, errs := ValidateDraft(d)

	assert.True(t, errs.Has("name"))
}

func TestValidateDraftNegativePrice(t *testing.T) {
	d := validDraft()
	d.Price = "-5"

	_, errs := ValidateDraft(d)

	assert.Contains(t, errs.Get("price"), "must be positive")
}

func TestValidateDraftZeroPriceIsNotPositive(t *testing.T) {
	d := validDraft()
	d.Price = "0"

	_, errs := ValidateDraft(d)

	assert.Equal(t, "Price must be positive", errs.Get("price"))
}

func TestValidateDraftBlankNumbersAreAbsent(t *testing.T) {
	d := validDraft()
	d.Price = ""
	d.Available = "  "
	d.Length = ""

	rec, errs := ValidateDraft(d)

	require.True(t, errs.Empty(), "unexpected errors: %v", errs)
	assert.Nil(t, rec.Price)
	assert.Nil(t, rec.Available)
	assert.Nil(t, rec.Length)
}

func TestValidateDraftRejectsNonNumericText(t *testing.T) {
	d := validDraft()
	d.Price = "ten"
	d.OnHand = "NaN"
	d.Weight = "1e999"

	_, errs := ValidateDraft(d)

	assert.Equal(t, "Price must be a number", errs.Get("price"))
	assert.Equal(t, "On hand must be a number", errs.Get("onHand"))
	assert.Equal(t, "Weight must be a number", errs.Get("weight"))
}

func TestValidateDraftNegativeStockAndDimensions(t *testing.T) {
	d := validDraft()
	d.Available = "-1"
	d.Allocated = "-2"
	d.Height = "-0.5"
	d.SupplierID = "-3"

	_, errs := ValidateDraft(d)

	for _, field := range []string{"available", "allocated", "height", "supplierId"} {
		assert.Equal(t, MsgNonNegative, errs.Get(field), field)
	}
}

func TestValidateDraftConvertsNumbers(t *testing.T) {
	d := validDraft()
	d.Price = " 12.50 "
	d.BrandID = "2"
	d.Available = "0"

	rec, errs := ValidateDraft(d)

	require.True(t, errs.Empty())
	require.NotNil(t, rec.Price)
	assert.Equal(t, 12.5, *rec.Price)
	require.NotNil(t, rec.BrandID)
	assert.Equal(t, 2.0, *rec.BrandID)
	require.NotNil(t, rec.Available)
	assert.Equal(t, 0.0, *rec.Available)
}

func TestValidateRecordImages(t *testing.T) {
	rec := Record{Name: "a", SKU: "b", ProductImages: []string{
		"https://cdn.example.com/a.png",
		"data:image/png;base64,iVBORw0KGgo=",
	}}
	assert.True(t, ValidateRecord(rec).Empty())

	rec.ProductImages = append(rec.ProductImages, "not a url")
	assert.Equal(t, MsgInvalidURL, ValidateRecord(rec).Get("productImages"))

	rec.ProductImages = []string{"data:text/plain;base64,aGk="}
	assert.Equal(t, MsgInvalidURL, ValidateRecord(rec).Get("productImages"))
}

func TestDraftSetUnknownField(t *testing.T) {
	d := NewDraft()
	assert.ErrorIs(t, d.Set("colour", "red"), ErrUnknownField)
	require.NoError(t, d.Set("sku", "X-1"))
	assert.Equal(t, "X-1", d.Value("sku"))
}

func TestEverySchemaFieldIsSettable(t *testing.T) {
	d := NewDraft()
	for _, spec := range Schema {
		require.NoError(t, d.Set(spec.Name, "v"), spec.Name)
		assert.Equal(t, "v", d.Value(spec.Name), spec.Name)
	}
}

func TestDraftFromRecordRoundTrip(t *testing.T) {
	id := int64(42)
	price := 9.99
	onHand := 3.0
	rec := Record{ID: &id, Name: "Lamp", SKU: "L-1", Price: &price, OnHand: &onHand, ProductImages: []string{"https://x.test/a.png"}}

	d := DraftFromRecord(rec)
	assert.True(t, d.IsUpdate())
	assert.Equal(t, "9.99", d.Price)
	assert.Equal(t, "3", d.OnHand)
	assert.Equal(t, "", d.Available)

	back, errs := ValidateDraft(d)
	require.True(t, errs.Empty())
	assert.Equal(t, id, *back.ID)
	assert.Equal(t, price, *back.Price)
	assert.Equal(t, rec.ProductImages, back.ProductImages)
}

func TestRecordMarshalEmitsFullFieldSet(t *testing.T) {
	rec, errs := ValidateDraft(validDraft())
	require.True(t, errs.Empty())
	rec.ProductImages = nil

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, []any{}, payload["productImages"])
	assert.Contains(t, payload, "price")
	assert.Nil(t, payload["price"])
	assert.Equal(t, 0.0, payload["available"])
	assert.NotContains(t, payload, "id")
	assert.NotContains(t, payload, "created_at")
}

func TestTimestampAcceptsServerShapes(t *testing.T) {
	cases := []string{
		`"2024-03-01T10:15:00Z"`,
		`"2024-03-01T10:15:00.123456"`,
		`"2024-03-01T10:15:00"`,
		`"2024-03-01 10:15:00"`,
	}
	for _, raw := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.Equal(t, "01/03/24 10:15", ts.Display(), raw)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"garbage"`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}
