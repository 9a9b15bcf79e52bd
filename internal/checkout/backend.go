package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrBackendRejected = errors.New("orders backend rejected the order")

// BackendPlacer forwards the order to the orders service.
type BackendPlacer struct {
	baseURL string
	client  *http.Client
}

func NewBackendPlacer(baseURL string, client *http.Client) *BackendPlacer {
	return &BackendPlacer{baseURL: baseURL, client: client}
}

type backendItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	// Price is in paise.
	Price int64 `json:"price"`
}

type backendOrderRequest struct {
	CustomerID    string                 `json:"customer_id"`
	Items         []backendItem          `json:"items"`
	Shipping      domain.ShippingDetails `json:"shipping"`
	PaymentMethod domain.PaymentMethod   `json:"payment_method"`
	Total         int64                  `json:"total"`
}

type backendOrderResponse struct {
	ID string `json:"id"`
}

func (b *BackendPlacer) Place(ctx context.Context, req domain.OrderRequest) (string, error) {
	body := backendOrderRequest{
		CustomerID:    req.SessionID,
		Shipping:      req.Customer,
		PaymentMethod: req.Customer.PaymentMethod,
		Total:         req.Totals.Total.Shift(2).Round(0).IntPart(),
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, backendItem{
			ItemID:   item.Product.ID,
			Quantity: item.Quantity,
			Price:    item.Product.Price.Shift(2).Round(0).IntPart(),
		})
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/orders", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrBackendRejected, resp.StatusCode)
	}

	var out backendOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrBackendRejected)
	}

	return out.ID, nil
}
