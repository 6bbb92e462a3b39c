package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeComplements(t *testing.T) {
	items := []ComplementItem{
		{Type: "Apto", Value: "101"},
		{Type: "Bloco", Value: "B"},
		{Type: "Fundos"},
		{Type: "  ", Value: "ignored"},
	}
	assert.Equal(t, "Apto: 101, Bloco: B, Fundos", SerializeComplements(items))
	assert.Equal(t, "", SerializeComplements(nil))
}

func TestParseComplements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []ComplementItem
	}{
		{name: "empty", input: "", want: nil},
		{name: "type only", input: "Fundos", want: []ComplementItem{{Type: "Fundos"}}},
		{
			name:  "mixed",
			input: "Apto: 101,Casa 2 , Sala:3",
			want: []ComplementItem{
				{Type: "Apto", Value: "101"},
				{Type: "Casa 2"},
				{Type: "Sala", Value: "3"},
			},
		},
		{name: "skips empty segments", input: "Apto: 1, , ", want: []ComplementItem{{Type: "Apto", Value: "1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseComplements(tt.input))
		})
	}
}

func TestComplementsRoundTrip(t *testing.T) {
	lists := [][]ComplementItem{
		{{Type: "Apto", Value: "101"}},
		{{Type: "Apto", Value: "101"}, {Type: "Bloco", Value: "C"}, {Type: "Cobertura"}},
		{{Type: "Loja"}, {Type: "Sala", Value: "1203"}},
	}

	for _, items := range lists {
		assert.Equal(t, items, ParseComplements(SerializeComplements(items)))
	}
}

func TestSerializeComplements_ScrubsSeparators(t *testing.T) {
	items := []ComplementItem{
		{Type: "Bloco", Value: "A, B"},
		{Type: "Sala:Comercial", Value: "10:30"},
		{Type: " , ", Value: "x"},
	}
	s := SerializeComplements(items)
	assert.Equal(t, "Bloco: A B, Sala Comercial: 10:30", s)
	assert.Equal(t, []ComplementItem{
		{Type: "Bloco", Value: "A B"},
		{Type: "Sala Comercial", Value: "10:30"},
	}, ParseComplements(s))

	// serializing the parsed form is stable
	assert.Equal(t, s, SerializeComplements(ParseComplements(s)))
}

func TestDraftCloneDoesNotAlias(t *testing.T) {
	d := PropertyDraft{}
	d.Basic.CaptorIDs = []string{"c1"}
	d.Location.SelectedCity = &Place{Code: "3550308", Name: "São Paulo"}

	clone := d.Clone()
	clone.Basic.CaptorIDs[0] = "changed"
	clone.Location.SelectedCity.Name = "changed"

	assert.Equal(t, "c1", d.Basic.CaptorIDs[0])
	assert.Equal(t, "São Paulo", d.Location.SelectedCity.Name)
}
