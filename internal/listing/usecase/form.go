package usecase

import (
	"errors"
	"fmt"
)

// FileSelection is one image picked by the user, already read off the wire.
type FileSelection struct {
	Name        string
	ContentType string
	Data        []byte
}

type UpdateKind int

const (
	UpdateText UpdateKind = iota
	UpdateNumber
	UpdateBool
	UpdateFiles
)

// FieldUpdate is a typed field-update command. The HTTP boundary decides the
// kind per field, so "true"/"false" string coercion never reaches this layer.
type FieldUpdate struct {
	Field  string
	Kind   UpdateKind
	Text   string
	Number float64
	Bool   bool
	Files  []FileSelection
}

func TextUpdate(field, value string) FieldUpdate {
	return FieldUpdate{Field: field, Kind: UpdateText, Text: value}
}

func NumberUpdate(field string, value float64) FieldUpdate {
	return FieldUpdate{Field: field, Kind: UpdateNumber, Number: value}
}

func BoolUpdate(field string, value bool) FieldUpdate {
	return FieldUpdate{Field: field, Kind: UpdateBool, Bool: value}
}

func FilesUpdate(files []FileSelection) FieldUpdate {
	return FieldUpdate{Field: "images", Kind: UpdateFiles, Files: files}
}

var ErrUnknownField = errors.New("unknown form field")

// ListingForm holds the editable field values of one listing submission plus
// the transient flags of the editing session. No validation happens here;
// validation is deferred to submission.
type ListingForm struct {
	Type               string `validate:"required,oneof=sale rent"`
	Name               string `validate:"required,min=10,max=32"`
	Bedrooms           int    `validate:"min=1,max=50"`
	Bathrooms          int    `validate:"min=1,max=50"`
	Parking            bool
	Furnished          bool
	Address            string `validate:"required"`
	Offer              bool
	RegularPrice       int64 `validate:"min=50,max=750000000"`
	DiscountedPrice    int64 `validate:"omitempty,min=50,max=750000000"`
	Latitude           float64
	Longitude          float64
	GeolocationEnabled bool
	Images             []FileSelection `validate:"min=1"`

	// Loading mirrors the in-flight state of the submission; the
	// orchestrator clears it on every exit path.
	Loading bool
}

// Apply consumes one field update. A file selection always replaces the
// images wholesale; later selections do not accumulate onto earlier ones.
func (f *ListingForm) Apply(u FieldUpdate) error {
	if u.Kind == UpdateFiles {
		f.Images = u.Files
		return nil
	}

	switch u.Field {
	case "type":
		f.Type = u.Text
	case "name":
		f.Name = u.Text
	case "address":
		f.Address = u.Text
	case "bedrooms":
		f.Bedrooms = int(u.Number)
	case "bathrooms":
		f.Bathrooms = int(u.Number)
	case "regularPrice":
		f.RegularPrice = int64(u.Number)
	case "discountedPrice":
		f.DiscountedPrice = int64(u.Number)
	case "latitude":
		f.Latitude = u.Number
	case "longitude":
		f.Longitude = u.Number
	case "parking":
		f.Parking = u.Bool
	case "furnished":
		f.Furnished = u.Bool
	case "offer":
		f.Offer = u.Bool
	case "geolocationEnabled":
		f.GeolocationEnabled = u.Bool
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, u.Field)
	}
	return nil
}
