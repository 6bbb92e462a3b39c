package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/masks"
	"realtywizard/server/internal/models"
)

const viaCEPURL = "https://viacep.com.br/ws"

var (
	ErrInvalidPostalCode = errors.New("postal code must have 8 digits")
	ErrPostalCodeUnknown = errors.New("postal code not found")
)

// CEPClient looks up Brazilian postal codes on ViaCEP.
type CEPClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

func NewCEPClient(baseURL string, logger *logrus.Logger) *CEPClient {
	if baseURL == "" {
		baseURL = viaCEPURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CEPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	IBGE       string `json:"ibge"`
	// ViaCEP answers {"erro": true} or {"erro": "true"} for unknown codes
	Erro any `json:"erro"`
}

// Lookup resolves an 8-digit postal code, masked or not.
func (c *CEPClient) Lookup(ctx context.Context, postalCode string) (models.PostalAddress, error) {
	cep, ok := masks.PostalCode(postalCode)
	if !ok {
		return models.PostalAddress{}, ErrInvalidPostalCode
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, cep), nil)
	if err != nil {
		return models.PostalAddress{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("postal_code", cep).Warn("Postal code lookup failed")
		return models.PostalAddress{}, fmt.Errorf("postal code lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PostalAddress{}, fmt.Errorf("postal code lookup failed: status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.PostalAddress{}, fmt.Errorf("failed to parse response: %w", err)
	}
	switch v := body.Erro.(type) {
	case bool:
		if v {
			return models.PostalAddress{}, fmt.Errorf("%w: %s", ErrPostalCodeUnknown, cep)
		}
	case string:
		if v == "true" {
			return models.PostalAddress{}, fmt.Errorf("%w: %s", ErrPostalCodeUnknown, cep)
		}
	}

	return models.PostalAddress{
		PostalCode:   cep,
		Street:       body.Logradouro,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		CityCode:     body.IBGE,
		State:        body.UF,
	}, nil
}
