package pod

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"artprint-backend/internal/models"
)

const printfulDefaultBaseURL = "https://api.printful.com"

type PrintfulClient struct {
	api *apiClient
}

type printfulRecipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email"`
}

type printfulFile struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type printfulItem struct {
	VariantID int            `json:"variant_id"`
	Quantity  int            `json:"quantity"`
	Files     []printfulFile `json:"files"`
}

type printfulOrderIn struct {
	ExternalID string            `json:"external_id"`
	Recipient  printfulRecipient `json:"recipient"`
	Items      []printfulItem    `json:"items"`
}

type printfulOrder struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// Printful wraps every payload in {"code": ..., "result": ...}.
type printfulEnvelope struct {
	Code   int           `json:"code"`
	Result printfulOrder `json:"result"`
}

func NewPrintfulClient(baseURL, accessToken, storeID string) *PrintfulClient {
	if baseURL == "" {
		baseURL = printfulDefaultBaseURL
	}
	return &PrintfulClient{
		api: newAPIClient(ProviderPrintful, baseURL, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+accessToken)
			if storeID != "" {
				req.Header.Set("X-PF-Store-Id", storeID)
			}
		}),
	}
}

func (c *PrintfulClient) Name() string { return ProviderPrintful }

func (c *PrintfulClient) SubmitOrder(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	variantID, err := strconv.Atoi(req.ProductID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("invalid printful variant id %q", req.ProductID)
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	name := strings.TrimSpace(req.Recipient.Name)
	if name == "" {
		name = "Customer"
	}

	in := printfulOrderIn{
		ExternalID: req.OrderID,
		Recipient: printfulRecipient{
			Name:        name,
			Address1:    req.Recipient.Line1,
			Address2:    req.Recipient.Line2,
			City:        req.Recipient.City,
			StateCode:   req.Recipient.State,
			CountryCode: req.Recipient.Country,
			Zip:         req.Recipient.PostalCode,
			Phone:       req.Recipient.Phone,
			Email:       req.Recipient.Email,
		},
		Items: []printfulItem{{
			VariantID: variantID,
			Quantity:  quantity,
			Files:     []printfulFile{{URL: req.ArtworkURL, Type: "default"}},
		}},
	}

	var out printfulEnvelope
	if err := c.api.do(ctx, http.MethodPost, "/orders", in, &out); err != nil {
		return SubmitResult{}, err
	}
	if out.Result.ID == 0 {
		return SubmitResult{}, fmt.Errorf("printful order id is empty in response")
	}
	return SubmitResult{
		ExternalOrderID: strconv.FormatInt(out.Result.ID, 10),
		Status:          out.Result.Status,
	}, nil
}

func (c *PrintfulClient) GetOrderStatus(ctx context.Context, externalID string) (string, error) {
	var out printfulEnvelope
	err := c.api.retryWithBackoff(ctx, func() error {
		return c.api.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(externalID), nil, &out)
	})
	if err != nil {
		return "", err
	}
	return out.Result.Status, nil
}

func (c *PrintfulClient) CancelOrder(ctx context.Context, externalID string) error {
	return c.api.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(externalID), nil, nil)
}

func (c *PrintfulClient) NormalizeStatus(native string) (models.OrderStatus, bool) {
	return normalizePrintfulStatus(native)
}

func normalizePrintfulStatus(native string) (models.OrderStatus, bool) {
	switch strings.ToLower(native) {
	case "draft", "pending", "inprocess", "onhold", "partial":
		return models.OrderStatusSubmitted, true
	case "fulfilled":
		return models.OrderStatusShipped, true
	case "canceled":
		return models.OrderStatusCanceled, true
	}
	return "", false
}
