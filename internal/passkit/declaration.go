// Package passkit builds signed wallet pass bundles: a declarative pass
// description, a SHA-1 digest manifest over every bundle file, a detached
// PKCS#7 signature of that manifest, and a zip archive of the whole set.
package passkit

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Declaration describes the credential to render into a pass. Message is
// the encoded token payload carried in the barcode for offline scanning.
type Declaration struct {
	SerialNumber       string `json:"serialNumber"`
	Description        string `json:"description"`
	OrganizationName   string `json:"organizationName"`
	PassTypeIdentifier string `json:"passTypeIdentifier"`
	TeamIdentifier     string `json:"teamIdentifier"`
	Message            string `json:"message"`
}

type passField struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

type passGeneric struct {
	PrimaryFields   []passField `json:"primaryFields"`
	SecondaryFields []passField `json:"secondaryFields"`
	AuxiliaryFields []passField `json:"auxiliaryFields"`
}

type passBarcode struct {
	Message         string `json:"message"`
	Format          string `json:"format"`
	MessageEncoding string `json:"messageEncoding"`
}

// passJSON is the on-disk pass.json document. Struct-based rendering keeps
// the field order stable, so identical declarations produce identical bytes.
type passJSON struct {
	FormatVersion      int         `json:"formatVersion"`
	PassTypeIdentifier string      `json:"passTypeIdentifier"`
	SerialNumber       string      `json:"serialNumber"`
	TeamIdentifier     string      `json:"teamIdentifier"`
	OrganizationName   string      `json:"organizationName"`
	Description        string      `json:"description"`
	LogoText           string      `json:"logoText"`
	ForegroundColor    string      `json:"foregroundColor"`
	BackgroundColor    string      `json:"backgroundColor"`
	Generic            passGeneric `json:"generic"`
	Barcode            passBarcode `json:"barcode"`
}

// render produces the pass.json bytes. An absent serial number gets a
// generated one so every issued pass stays individually identifiable.
func (d *Declaration) render() ([]byte, error) {
	serial := d.SerialNumber
	if serial == "" {
		serial = uuid.NewString()
	}

	doc := passJSON{
		FormatVersion:      1,
		PassTypeIdentifier: d.PassTypeIdentifier,
		SerialNumber:       serial,
		TeamIdentifier:     d.TeamIdentifier,
		OrganizationName:   d.OrganizationName,
		Description:        d.Description,
		LogoText:           d.OrganizationName,
		ForegroundColor:    "rgb(255, 255, 255)",
		BackgroundColor:    "rgb(197, 31, 31)",
		Generic: passGeneric{
			PrimaryFields: []passField{
				{Key: "member", Value: d.Description},
			},
			SecondaryFields: []passField{
				{Key: "subtitle", Label: "MEMBER SINCE", Value: "2025"},
			},
			AuxiliaryFields: []passField{
				{Key: "serial", Label: "SERIAL NUMBER", Value: serial},
			},
		},
		Barcode: passBarcode{
			Message:         d.Message,
			Format:          "PKBarcodeFormatQR",
			MessageEncoding: "iso-8859-1",
		},
	}

	return json.MarshalIndent(doc, "", "  ")
}
