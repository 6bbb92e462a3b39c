// Package testhelpers holds fixtures shared by package tests.
package testhelpers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"realtywizard/server/internal/models"
)

// ValidDraft returns a draft that passes every step except the gallery step,
// which depends on image counts.
func ValidDraft() models.PropertyDraft {
	return models.PropertyDraft{
		Basic: models.BasicInfo{
			Title:       "Casa com quintal",
			Description: "Casa térrea com três quartos e quintal amplo.",
			Type:        "house",
			Status:      models.StatusAvailable,
			CaptorIDs:   []string{"captor-1"},
			IsActive:    true,
		},
		Location: models.Location{
			PostalCode:    "01310-100",
			Street:        "Avenida Paulista",
			Number:        "1000",
			Complements:   []models.ComplementItem{{Type: "Apto", Value: "101"}},
			Neighborhood:  "Bela Vista",
			City:          "São Paulo",
			State:         "SP",
			SelectedState: &models.Place{Code: "SP", Name: "São Paulo"},
			SelectedCity:  &models.Place{Code: "3550308", Name: "São Paulo"},
		},
		Characteristics: models.Characteristics{
			TotalArea: "120,00",
			BuiltArea: "95,50",
			Bedrooms:  3,
			Suites:    1,
			Bathrooms: 2,
			Features:  []string{"quintal", "churrasqueira"},
		},
		Pricing: models.Pricing{
			SalePrice: "R$ 500.000,00",
		},
		Owner: models.Owner{
			Name:         "Maria Silva",
			Email:        "maria@example.com",
			Phone:        "(11) 99999-0000",
			Document:     "123.456.789-09",
			PostalCode:   "04538-133",
			Street:       "Rua Funchal",
			Number:       "200",
			Neighborhood: "Vila Olímpia",
			City:         "São Paulo",
			State:        "SP",
		},
	}
}

// SquarePNG encodes a size×size PNG.
func SquarePNG(size int) []byte {
	return PNG(size, size)
}

// PNG encodes a w×h PNG filled with a single color.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 64 {
		img.Set(x, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
