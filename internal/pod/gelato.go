package pod

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"artprint-backend/internal/models"
)

const (
	gelatoDefaultBaseURL = "https://api.gelato.com/v3"
	gelatoDefaultProduct = "framed_poster_wood_black_A3_297x420_mm"
)

type GelatoClient struct {
	api *apiClient
}

type gelatoFile struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type gelatoItem struct {
	ProductUID string       `json:"productUid"`
	Quantity   int          `json:"quantity"`
	Files      []gelatoFile `json:"files"`
}

type gelatoAddress struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostCode     string `json:"postCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email"`
}

type gelatoOrderIn struct {
	OrderReferenceID string        `json:"orderReferenceId"`
	Currency         string        `json:"currency"`
	Items            []gelatoItem  `json:"items"`
	ShippingAddress  gelatoAddress `json:"shippingAddress"`
}

type gelatoOrderOut struct {
	ID               string `json:"id"`
	OrderReferenceID string `json:"orderReferenceId"`
	Status           string `json:"status"`
}

func NewGelatoClient(baseURL, apiKey string) *GelatoClient {
	if baseURL == "" {
		baseURL = gelatoDefaultBaseURL
	}
	return &GelatoClient{
		api: newAPIClient(ProviderGelato, baseURL, func(req *http.Request) {
			req.Header.Set("X-API-KEY", apiKey)
		}),
	}
}

func (c *GelatoClient) Name() string { return ProviderGelato }

func (c *GelatoClient) SubmitOrder(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	first, last := SplitName(req.Recipient.Name)
	productUID := req.ProductID
	if productUID == "" {
		productUID = gelatoDefaultProduct
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	in := gelatoOrderIn{
		OrderReferenceID: req.OrderID,
		Currency:         strings.ToUpper(req.Currency),
		Items: []gelatoItem{{
			ProductUID: productUID,
			Quantity:   quantity,
			Files:      []gelatoFile{{URL: req.ArtworkURL, Type: "default"}},
		}},
		ShippingAddress: gelatoAddress{
			FirstName:    first,
			LastName:     last,
			AddressLine1: req.Recipient.Line1,
			AddressLine2: req.Recipient.Line2,
			City:         req.Recipient.City,
			State:        req.Recipient.State,
			PostCode:     req.Recipient.PostalCode,
			Country:      req.Recipient.Country,
			Phone:        req.Recipient.Phone,
			Email:        req.Recipient.Email,
		},
	}

	var out gelatoOrderOut
	if err := c.api.do(ctx, http.MethodPost, "/orders", in, &out); err != nil {
		return SubmitResult{}, err
	}
	if out.ID == "" {
		return SubmitResult{}, fmt.Errorf("gelato order id is empty in response")
	}
	return SubmitResult{ExternalOrderID: out.ID, Status: out.Status}, nil
}

func (c *GelatoClient) GetOrderStatus(ctx context.Context, externalID string) (string, error) {
	var out gelatoOrderOut
	err := c.api.retryWithBackoff(ctx, func() error {
		return c.api.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(externalID), nil, &out)
	})
	if err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *GelatoClient) CancelOrder(ctx context.Context, externalID string) error {
	return c.api.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(externalID), nil, nil)
}

func (c *GelatoClient) NormalizeStatus(native string) (models.OrderStatus, bool) {
	return normalizeGelatoStatus(native)
}

func normalizeGelatoStatus(native string) (models.OrderStatus, bool) {
	switch strings.ToLower(native) {
	case "created", "passed_to_production", "printed", "in_transit":
		return models.OrderStatusSubmitted, true
	case "shipped", "delivered":
		return models.OrderStatusShipped, true
	case "cancelled", "canceled":
		return models.OrderStatusCanceled, true
	}
	return "", false
}
