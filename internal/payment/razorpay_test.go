package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"cafehub/internal/apperr"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("http://gateway", "key", "secret")

	good := sign("secret", "order_1", "pay_1")
	assert.True(t, c.VerifySignature("order_1", "pay_1", good))
	assert.False(t, c.VerifySignature("order_1", "pay_1", "deadbeef"))
	assert.False(t, c.VerifySignature("order_2", "pay_1", good), "signature is bound to the order id")
	assert.False(t, c.VerifySignature("order_1", "pay_1", sign("wrong", "order_1", "pay_1")))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_gw1","amount":25000,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	id, err := c.CreateOrder(context.Background(), 25000, "INR", "ORD-1")
	assert.NoError(t, err)
	assert.Equal(t, "order_gw1", id)
}

func TestCreateOrderUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "secret")
	_, err := c.CreateOrder(context.Background(), 100, "INR", "ORD-2")
	assert.True(t, errors.Is(err, apperr.ErrUpstream), "gateway errors must map to ErrUpstream, got %v", err)

	// Unreachable gateway surfaces the same way.
	dead := NewClient("http://127.0.0.1:1", "key", "secret")
	_, err = dead.CreateOrder(context.Background(), 100, "INR", "ORD-3")
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}
