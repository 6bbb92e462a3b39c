package config

import (
	"strings"

	"github.com/paulmach/orb"
)

// State is a Brazilian federative unit offered in the structured state picker.
type State struct {
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Capital string    `json:"capital"`
	Center  orb.Point `json:"center"`
}

// SupportedStates lists every federative unit. Center is the capital, as
// [lon, lat].
var SupportedStates = []State{
	{Code: "AC", Name: "Acre", Capital: "Rio Branco", Center: orb.Point{-67.8243, -9.9747}},
	{Code: "AL", Name: "Alagoas", Capital: "Maceió", Center: orb.Point{-35.7350, -9.6658}},
	{Code: "AP", Name: "Amapá", Capital: "Macapá", Center: orb.Point{-51.0694, 0.0349}},
	{Code: "AM", Name: "Amazonas", Capital: "Manaus", Center: orb.Point{-60.0217, -3.1190}},
	{Code: "BA", Name: "Bahia", Capital: "Salvador", Center: orb.Point{-38.5014, -12.9714}},
	{Code: "CE", Name: "Ceará", Capital: "Fortaleza", Center: orb.Point{-38.5434, -3.7172}},
	{Code: "DF", Name: "Distrito Federal", Capital: "Brasília", Center: orb.Point{-47.8825, -15.7942}},
	{Code: "ES", Name: "Espírito Santo", Capital: "Vitória", Center: orb.Point{-40.3128, -20.3155}},
	{Code: "GO", Name: "Goiás", Capital: "Goiânia", Center: orb.Point{-49.2648, -16.6869}},
	{Code: "MA", Name: "Maranhão", Capital: "São Luís", Center: orb.Point{-44.3028, -2.5307}},
	{Code: "MT", Name: "Mato Grosso", Capital: "Cuiabá", Center: orb.Point{-56.0974, -15.6014}},
	{Code: "MS", Name: "Mato Grosso do Sul", Capital: "Campo Grande", Center: orb.Point{-54.6295, -20.4697}},
	{Code: "MG", Name: "Minas Gerais", Capital: "Belo Horizonte", Center: orb.Point{-43.9378, -19.9208}},
	{Code: "PA", Name: "Pará", Capital: "Belém", Center: orb.Point{-48.5044, -1.4558}},
	{Code: "PB", Name: "Paraíba", Capital: "João Pessoa", Center: orb.Point{-34.8631, -7.1195}},
	{Code: "PR", Name: "Paraná", Capital: "Curitiba", Center: orb.Point{-49.2733, -25.4284}},
	{Code: "PE", Name: "Pernambuco", Capital: "Recife", Center: orb.Point{-34.8811, -8.0476}},
	{Code: "PI", Name: "Piauí", Capital: "Teresina", Center: orb.Point{-42.8019, -5.0920}},
	{Code: "RJ", Name: "Rio de Janeiro", Capital: "Rio de Janeiro", Center: orb.Point{-43.1729, -22.9068}},
	{Code: "RN", Name: "Rio Grande do Norte", Capital: "Natal", Center: orb.Point{-35.2094, -5.7945}},
	{Code: "RS", Name: "Rio Grande do Sul", Capital: "Porto Alegre", Center: orb.Point{-51.2177, -30.0346}},
	{Code: "RO", Name: "Rondônia", Capital: "Porto Velho", Center: orb.Point{-63.9004, -8.7612}},
	{Code: "RR", Name: "Roraima", Capital: "Boa Vista", Center: orb.Point{-60.6753, 2.8235}},
	{Code: "SC", Name: "Santa Catarina", Capital: "Florianópolis", Center: orb.Point{-48.5482, -27.5954}},
	{Code: "SP", Name: "São Paulo", Capital: "São Paulo", Center: orb.Point{-46.6333, -23.5505}},
	{Code: "SE", Name: "Sergipe", Capital: "Aracaju", Center: orb.Point{-37.0731, -10.9472}},
	{Code: "TO", Name: "Tocantins", Capital: "Palmas", Center: orb.Point{-48.3336, -10.1840}},
}

// GetStateCodes returns the UF codes in display order
func GetStateCodes() []string {
	codes := make([]string, len(SupportedStates))
	for i, s := range SupportedStates {
		codes[i] = s.Code
	}
	return codes
}

// GetState finds a state by UF code or by name, ignoring case and surrounding
// spaces.
func GetState(codeOrName string) *State {
	key := strings.TrimSpace(codeOrName)
	if key == "" {
		return nil
	}
	for _, s := range SupportedStates {
		if strings.EqualFold(s.Code, key) || strings.EqualFold(s.Name, key) {
			state := s
			return &state
		}
	}
	return nil
}
