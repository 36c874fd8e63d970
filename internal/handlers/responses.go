package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/services"
)

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body too large")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePointer(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartPayload struct {
	UserID       string            `json:"user_id"`
	Items        []cartItemPayload `json:"items"`
	TotalPrice   int64             `json:"total_price"`
	TotalDisplay string            `json:"total_display"`
	UpdatedAt    string            `json:"updated_at,omitempty"`
}

type cartItemPayload struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	OptionID     string `json:"option_id"`
	OptionName   string `json:"option_name"`
	ImageURL     string `json:"image_url,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	SalePrice    *int64 `json:"sale_price,omitempty"`
	LineTotal    int64  `json:"line_total"`
	Available    bool   `json:"available"`
	InStock      bool   `json:"in_stock"`
	StockLeft    int    `json:"stock_left"`
	PriceDisplay string `json:"price_display"`
}

func buildCartPayload(view services.CartView) cartPayload {
	payload := cartPayload{
		UserID:       view.UserID,
		Items:        make([]cartItemPayload, 0, len(view.Items)),
		TotalPrice:   view.TotalPrice,
		TotalDisplay: view.TotalDisplay,
		UpdatedAt:    formatTime(view.UpdatedAt),
	}
	for _, item := range view.Items {
		payload.Items = append(payload.Items, cartItemPayload{
			ID:           item.ItemID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			OptionID:     item.OptionID,
			OptionName:   item.OptionName,
			ImageURL:     item.ImageURL,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			SalePrice:    item.SalePrice,
			LineTotal:    item.LineTotal,
			Available:    item.Available,
			InStock:      item.InStock,
			StockLeft:    item.StockLeft,
			PriceDisplay: item.PriceDisplay,
		})
	}
	return payload
}

type orderResponse struct {
	Order  orderPayload `json:"order"`
	PayURL string       `json:"pay_url,omitempty"`
}

type listOrdersResponse struct {
	Orders        []orderPayload `json:"orders"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type orderPayload struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	Status          string                `json:"status"`
	TotalPrice      int64                 `json:"total_price"`
	TotalDisplay    string                `json:"total_display"`
	ShippingAddress string                `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	Items           []orderItemPayload    `json:"items"`
	Payments        []orderPaymentPayload `json:"payments,omitempty"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at,omitempty"`
	DeliveredAt     string                `json:"delivered_at,omitempty"`
	CancelledAt     string                `json:"cancelled_at,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
}

type orderItemPayload struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	OptionID    string `json:"option_id"`
	ProductName string `json:"product_name"`
	OptionName  string `json:"option_name"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	SalePrice   *int64 `json:"sale_price,omitempty"`
	LineTotal   int64  `json:"line_total"`
}

type orderPaymentPayload struct {
	ID              string `json:"id"`
	Amount          int64  `json:"amount"`
	Method          string `json:"method"`
	Status          string `json:"status"`
	TransactionDate string `json:"transaction_date,omitempty"`
	GatewayRef      string `json:"gateway_ref,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          string(order.Status),
		TotalPrice:      order.TotalPrice,
		TotalDisplay:    domain.FormatVND(order.TotalPrice),
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   string(order.PaymentMethod),
		Items:           make([]orderItemPayload, 0, len(order.Items)),
		Payments:        make([]orderPaymentPayload, 0, len(order.Payments)),
		CreatedAt:       formatTime(order.CreatedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
		DeliveredAt:     formatTimePointer(order.DeliveredAt),
		CancelledAt:     formatTimePointer(order.CancelledAt),
		CancelReason:    order.CancelReason,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ID:          item.ID,
			ProductID:   item.ProductID,
			OptionID:    item.OptionID,
			ProductName: item.ProductName,
			OptionName:  item.OptionName,
			ImageURL:    item.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			SalePrice:   item.SalePrice,
			LineTotal:   item.LineTotal,
		})
	}
	for _, payment := range order.Payments {
		payload.Payments = append(payload.Payments, orderPaymentPayload{
			ID:              payment.ID,
			Amount:          payment.Amount,
			Method:          string(payment.Method),
			Status:          string(payment.Status),
			TransactionDate: formatTime(payment.TransactionDate),
			GatewayRef:      payment.GatewayRef,
		})
	}
	return payload
}

type optionPayload struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	SalePrice     *int64 `json:"sale_price,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
	IsActive      bool   `json:"is_active"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func buildOptionPayload(option domain.Option) optionPayload {
	return optionPayload{
		ID:            option.ID,
		ProductID:     option.ProductID,
		Name:          option.Name,
		Price:         option.Price,
		SalePrice:     option.SalePrice,
		StockQuantity: option.StockQuantity,
		IsActive:      option.IsActive,
		UpdatedAt:     formatTime(option.UpdatedAt),
	}
}
