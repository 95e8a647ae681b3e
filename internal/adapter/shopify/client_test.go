package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		StorefrontAccessToken: "storefront-token",
		Timeout:               2 * time.Second,
		Endpoint:              srv.URL,
	})
}

var lines = []entity.RemoteLineItem{
	{VariantID: "gid://shopify/ProductVariant/2", Quantity: 3},
	{VariantID: "gid://shopify/ProductVariant/7", Quantity: 1},
}

func TestNewClient_DerivesEndpoint(t *testing.T) {
	c := NewClient(Config{Domain: "saiko.myshopify.com", APIVersion: "2024-01"})
	assert.Equal(t, "https://saiko.myshopify.com/api/2024-01/graphql.json", c.endpoint)
}

func TestClient_CreateCheckout_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "storefront-token", r.Header.Get(accessTokenHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Query     string `json:"query"`
			Variables struct {
				Input struct {
					LineItems []checkoutLineItem `json:"lineItems"`
				} `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Contains(t, req.Query, "checkoutCreate")
		assert.Equal(t, []checkoutLineItem{
			{VariantID: "gid://shopify/ProductVariant/2", Quantity: 3},
			{VariantID: "gid://shopify/ProductVariant/7", Quantity: 1},
		}, req.Variables.Input.LineItems)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"checkoutCreate":{"checkout":{"id":"gid://shopify/Checkout/abc","webUrl":"https://saiko.myshopify.com/checkouts/abc"},"checkoutUserErrors":[]}}}`)
	})

	session, err := client.CreateCheckout(context.Background(), lines)
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Checkout/abc", session.ID)
	assert.Equal(t, "https://saiko.myshopify.com/checkouts/abc", session.WebURL)
}

func TestClient_CreateCheckout_UserErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"checkoutCreate":{"checkout":null,"checkoutUserErrors":[{"code":"INVALID","field":["input","lineItems","0","variantId"],"message":"Variant is invalid"}]}}}`)
	})

	_, err := client.CreateCheckout(context.Background(), lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrCheckoutRejected)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Len(t, remoteErr.UserErrors, 1)
	assert.Equal(t, "INVALID", remoteErr.UserErrors[0].Code)
	assert.Contains(t, err.Error(), "input.lineItems.0.variantId")
}

func TestClient_CreateCheckout_GraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"message":"Unauthorized"}]}`)
	})

	_, err := client.CreateCheckout(context.Background(), lines)
	assert.ErrorIs(t, err, repository.ErrCheckoutRejected)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestClient_CreateCheckout_ServerDown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := client.CreateCheckout(context.Background(), lines)
	assert.ErrorIs(t, err, repository.ErrCheckoutUnavailable)
}

func TestClient_CreateCheckout_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	client := NewClient(Config{Endpoint: endpoint, Timeout: time.Second})
	_, err := client.CreateCheckout(context.Background(), lines)
	assert.ErrorIs(t, err, repository.ErrCheckoutUnavailable)
}
