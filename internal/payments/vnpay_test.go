package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mekongmart/api/internal/platform/config"
)

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := NewGateway(config.VNPayConfig{
		TmnCode:    "MEKONG01",
		HashSecret: "super-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://shop.example.com/checkout/return",
	}, WithClock(func() time.Time {
		return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	return gw
}

func signQuery(secret string, params url.Values) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(signingPayload(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBuildPayURLSignsRequest(t *testing.T) {
	gw := testGateway(t)

	payURL, err := gw.BuildPayURL(PayRequest{
		OrderID:  "ord_01HXYZ",
		Amount:   250_000,
		ClientIP: "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("BuildPayURL: %v", err)
	}

	parsed, err := url.Parse(payURL)
	if err != nil {
		t.Fatalf("parse pay url: %v", err)
	}
	query := parsed.Query()

	if got := query.Get("vnp_TxnRef"); got != "ord_01HXYZ" {
		t.Fatalf("vnp_TxnRef = %q", got)
	}
	// 250,000 VND rides the wire multiplied by 100.
	if got := query.Get("vnp_Amount"); got != "25000000" {
		t.Fatalf("vnp_Amount = %q", got)
	}
	if got := query.Get("vnp_TmnCode"); got != "MEKONG01" {
		t.Fatalf("vnp_TmnCode = %q", got)
	}

	received := query.Get("vnp_SecureHash")
	query.Del("vnp_SecureHash")
	if expected := signQuery("super-secret", query); received != expected {
		t.Fatalf("secure hash mismatch: got %s want %s", received, expected)
	}
}

func TestBuildPayURLRejectsBadInput(t *testing.T) {
	gw := testGateway(t)

	if _, err := gw.BuildPayURL(PayRequest{Amount: 1000}); err == nil {
		t.Fatal("expected error for missing order id")
	}
	if _, err := gw.BuildPayURL(PayRequest{OrderID: "ord_1", Amount: 0}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestVerifyIPNAcceptsSignedCallback(t *testing.T) {
	gw := testGateway(t)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ord_01HXYZ")
	params.Set("vnp_Amount", "25000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionNo", "14422574")
	params.Set("vnp_BankCode", "NCB")
	params.Set("vnp_PayDate", "20250310163512")
	params.Set("vnp_SecureHash", signQuery("super-secret", params))

	n, err := gw.VerifyIPN(params)
	if err != nil {
		t.Fatalf("VerifyIPN: %v", err)
	}
	if n.OrderID != "ord_01HXYZ" {
		t.Fatalf("OrderID = %q", n.OrderID)
	}
	if n.Amount != 250_000 {
		t.Fatalf("Amount = %d", n.Amount)
	}
	if !n.Success() {
		t.Fatal("expected success for response code 00")
	}
	if n.TransactionNo != "14422574" {
		t.Fatalf("TransactionNo = %q", n.TransactionNo)
	}
	if n.TransactionDate.IsZero() {
		t.Fatal("expected pay date to be parsed")
	}
}

func TestVerifyIPNRejectsTamperedAmount(t *testing.T) {
	gw := testGateway(t)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ord_01HXYZ")
	params.Set("vnp_Amount", "25000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_SecureHash", signQuery("super-secret", params))

	params.Set("vnp_Amount", "100")
	if _, err := gw.VerifyIPN(params); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyIPNRejectsMissingHash(t *testing.T) {
	gw := testGateway(t)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ord_01HXYZ")
	if _, err := gw.VerifyIPN(params); err != ErrMissingSignature {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestVerifyIPNFailureCode(t *testing.T) {
	gw := testGateway(t)

	params := url.Values{}
	params.Set("vnp_TxnRef", "ord_01HXYZ")
	params.Set("vnp_Amount", "25000000")
	params.Set("vnp_ResponseCode", "24")
	params.Set("vnp_SecureHash", signQuery("super-secret", params))

	n, err := gw.VerifyIPN(params)
	if err != nil {
		t.Fatalf("VerifyIPN: %v", err)
	}
	if n.Success() {
		t.Fatal("response code 24 must not be success")
	}
	if !strings.HasPrefix(n.OrderID, "ord_") {
		t.Fatalf("OrderID = %q", n.OrderID)
	}
}
