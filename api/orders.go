package api

import (
	"context"
	"fmt"
	"net/http"

	"kudakan-telegram/models"
)

type OrderLineInput struct {
	MenuItemID int64 `json:"id_menu"`
	Quantity   int   `json:"jumlah"`
}

// CreateOrderInput is one order for one kantin. Checkout calls CreateOrder
// once per vendor group.
type CreateOrderInput struct {
	VendorID int64            `json:"id_kantin"`
	Lines    []OrderLineInput `json:"details"`
}

func (c *Client) CreateOrder(ctx context.Context, token string, in CreateOrderInput) (models.Order, error) {
	var raw rawOrder
	if err := c.request(ctx, http.MethodPost, "/pesanan/", token, in, &raw); err != nil {
		return models.Order{}, err
	}
	return raw.toModel(), nil
}

// OrderWithDetails returns the order plus its line detail, used to compute
// the displayed total and item summary.
func (c *Client) OrderWithDetails(ctx context.Context, token string, id int64) (models.Order, []models.OrderLine, error) {
	var raw struct {
		rawOrder
		Details []rawOrderLine `json:"details"`
	}
	path := fmt.Sprintf("/pesanan/%d/with-details", id)
	if err := c.request(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return models.Order{}, nil, err
	}
	lines := make([]models.OrderLine, len(raw.Details))
	for i := range raw.Details {
		lines[i] = raw.Details[i].toModel()
	}
	return raw.rawOrder.toModel(), lines, nil
}

// UpdateOrderStatus is the kantin-side status change. The client only ever
// sends the done state; transition checks live in the services layer.
func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id int64, status string) error {
	body := map[string]string{"status": orderStatusToWire(status)}
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/pesanan/%d", id), token, body, nil)
}

func (c *Client) OrdersByStudent(ctx context.Context, token string, studentID int64) ([]models.Order, error) {
	var raw []rawOrder
	path := fmt.Sprintf("/pesanan/mahasiswa/%d", studentID)
	if err := c.request(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	orders := make([]models.Order, len(raw))
	for i := range raw {
		orders[i] = raw[i].toModel()
	}
	return orders, nil
}

func (c *Client) OrdersByKantin(ctx context.Context, token string, kantinID int64) ([]models.Order, error) {
	var raw []rawOrder
	path := fmt.Sprintf("/pesanan/kantin/%d", kantinID)
	if err := c.request(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	orders := make([]models.Order, len(raw))
	for i := range raw {
		orders[i] = raw[i].toModel()
	}
	return orders, nil
}
