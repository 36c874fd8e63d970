// Package payments integrates the VNPAY payment gateway: building redirect
// URLs for checkout and verifying the signed IPN callbacks it sends back.
package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mekongmart/api/internal/platform/config"
)

const (
	vnpVersion     = "2.1.0"
	vnpCommand     = "pay"
	vnpCurrency    = "VND"
	vnpLocale      = "vn"
	vnpTimeLayout  = "20060102150405"
	vnpSuccessCode = "00"
)

// Errors surfaced by IPN verification.
var (
	ErrInvalidSignature = errors.New("vnpay: secure hash mismatch")
	ErrMissingSignature = errors.New("vnpay: secure hash absent")
	ErrMissingOrderRef  = errors.New("vnpay: transaction reference absent")
)

// Gateway signs outgoing pay URLs and verifies inbound notifications for a
// single terminal registration.
type Gateway struct {
	tmnCode    string
	hashSecret []byte
	payURL     string
	returnURL  string
	now        func() time.Time
	// VNPAY timestamps are expressed in Indochina time regardless of
	// server locale.
	location *time.Location
}

// Option adjusts gateway construction.
type Option func(*Gateway)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway builds a gateway from the resolved configuration section.
func NewGateway(cfg config.VNPayConfig, opts ...Option) (*Gateway, error) {
	tmn := strings.TrimSpace(cfg.TmnCode)
	if tmn == "" {
		return nil, errors.New("vnpay: terminal code is required")
	}
	secret := strings.TrimSpace(cfg.HashSecret)
	if secret == "" {
		return nil, errors.New("vnpay: hash secret is required")
	}
	payURL := strings.TrimSpace(cfg.PayURL)
	if payURL == "" {
		return nil, errors.New("vnpay: pay url is required")
	}

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}

	g := &Gateway{
		tmnCode:    tmn,
		hashSecret: []byte(secret),
		payURL:     payURL,
		returnURL:  strings.TrimSpace(cfg.ReturnURL),
		now:        time.Now,
		location:   loc,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// PayRequest describes one checkout redirect.
type PayRequest struct {
	OrderID string
	// Amount is the order total in VND. VNPAY expects the value
	// multiplied by 100 on the wire.
	Amount    int64
	OrderInfo string
	ClientIP  string
	// ExpireAfter bounds how long the redirect stays payable. Zero means
	// fifteen minutes.
	ExpireAfter time.Duration
}

// BuildPayURL returns the signed redirect URL for the gateway's hosted
// payment page.
func (g *Gateway) BuildPayURL(req PayRequest) (string, error) {
	if g == nil {
		return "", errors.New("vnpay: gateway not initialised")
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return "", ErrMissingOrderRef
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("vnpay: amount must be positive, got %d", req.Amount)
	}

	now := g.now().In(g.location)
	expire := req.ExpireAfter
	if expire <= 0 {
		expire = 15 * time.Minute
	}

	params := url.Values{}
	params.Set("vnp_Version", vnpVersion)
	params.Set("vnp_Command", vnpCommand)
	params.Set("vnp_TmnCode", g.tmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", vnpCurrency)
	params.Set("vnp_TxnRef", orderID)
	params.Set("vnp_OrderInfo", orderInfo(req.OrderInfo, orderID))
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", vnpLocale)
	params.Set("vnp_IpAddr", clientIP(req.ClientIP))
	params.Set("vnp_CreateDate", now.Format(vnpTimeLayout))
	params.Set("vnp_ExpireDate", now.Add(expire).Format(vnpTimeLayout))
	if g.returnURL != "" {
		params.Set("vnp_ReturnUrl", g.returnURL)
	}

	signed := signingPayload(params)
	params.Set("vnp_SecureHash", g.sign(signed))
	return g.payURL + "?" + params.Encode(), nil
}

// Notification is a verified IPN callback.
type Notification struct {
	OrderID         string
	Amount          int64
	ResponseCode    string
	TransactionNo   string
	BankCode        string
	TransactionDate time.Time
}

// Success reports whether the gateway settled the payment.
func (n Notification) Success() bool {
	return n.ResponseCode == vnpSuccessCode
}

// VerifyIPN checks the secure hash over the callback parameters and decodes
// the notification. The hash covers every vnp_ parameter except the hash
// fields themselves, sorted by key.
func (g *Gateway) VerifyIPN(query url.Values) (Notification, error) {
	if g == nil {
		return Notification{}, errors.New("vnpay: gateway not initialised")
	}

	received := strings.TrimSpace(query.Get("vnp_SecureHash"))
	if received == "" {
		return Notification{}, ErrMissingSignature
	}

	params := url.Values{}
	for key, values := range query {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if !strings.HasPrefix(key, "vnp_") || len(values) == 0 {
			continue
		}
		params.Set(key, values[0])
	}

	expected := g.sign(signingPayload(params))
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return Notification{}, ErrInvalidSignature
	}

	orderID := strings.TrimSpace(params.Get("vnp_TxnRef"))
	if orderID == "" {
		return Notification{}, ErrMissingOrderRef
	}

	rawAmount := strings.TrimSpace(params.Get("vnp_Amount"))
	cents, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return Notification{}, fmt.Errorf("vnpay: invalid amount %q: %w", rawAmount, err)
	}

	n := Notification{
		OrderID:       orderID,
		Amount:        cents / 100,
		ResponseCode:  strings.TrimSpace(params.Get("vnp_ResponseCode")),
		TransactionNo: strings.TrimSpace(params.Get("vnp_TransactionNo")),
		BankCode:      strings.TrimSpace(params.Get("vnp_BankCode")),
	}
	if raw := strings.TrimSpace(params.Get("vnp_PayDate")); raw != "" {
		if ts, err := time.ParseInLocation(vnpTimeLayout, raw, g.location); err == nil {
			n.TransactionDate = ts.UTC()
		}
	}
	return n, nil
}

func (g *Gateway) sign(payload string) string {
	mac := hmac.New(sha512.New, g.hashSecret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// signingPayload renders the parameters as a query string sorted by key,
// with values percent-encoded the same way VNPAY does before hashing.
func signingPayload(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(key)))
	}
	return b.String()
}

func orderInfo(info, orderID string) string {
	trimmed := strings.TrimSpace(info)
	if trimmed == "" {
		return "Thanh toan don hang " + orderID
	}
	return trimmed
}

func clientIP(ip string) string {
	trimmed := strings.TrimSpace(ip)
	if trimmed == "" {
		return "127.0.0.1"
	}
	return trimmed
}
