// Package shopify talks to the Shopify Storefront GraphQL API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	accessTokenHeader = "X-Shopify-Storefront-Access-Token"
	maxResponseBytes  = 1 << 20
)

const checkoutCreateMutation = `mutation checkoutCreate($input: CheckoutCreateInput!) {
  checkoutCreate(input: $input) {
    checkout {
      id
      webUrl
    }
    checkoutUserErrors {
      code
      field
      message
    }
  }
}`

// UserError is one entry of checkoutUserErrors.
type UserError struct {
	Code    string   `json:"code"`
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// RemoteError carries the error payload of a rejected checkout.
type RemoteError struct {
	StatusCode    int
	UserErrors    []UserError
	GraphQLErrors []string
}

func (e *RemoteError) Error() string {
	parts := make([]string, 0, len(e.UserErrors)+len(e.GraphQLErrors))
	for _, ue := range e.UserErrors {
		parts = append(parts, fmt.Sprintf("%s %s: %s", ue.Code, strings.Join(ue.Field, "."), ue.Message))
	}
	parts = append(parts, e.GraphQLErrors...)
	if len(parts) == 0 {
		return fmt.Sprintf("shopify checkout failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("shopify checkout failed with status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

func (e *RemoteError) Unwrap() error {
	return repository.ErrCheckoutRejected
}

type Config struct {
	Domain                string
	StorefrontAccessToken string
	APIVersion            string
	Timeout               time.Duration
	// Endpoint overrides the URL derived from Domain and APIVersion.
	Endpoint string
}

type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", cfg.Domain, cfg.APIVersion)
	}
	return &Client{
		endpoint:   endpoint,
		token:      cfg.StorefrontAccessToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracer:     otel.Tracer("github.com/saiko-shop/storefront/internal/adapter/shopify"),
	}
}

var _ repository.CheckoutClient = (*Client)(nil)

type graphQLRequest struct {
	Query     string      `json:"query"`
	Variables interface{} `json:"variables"`
}

type checkoutLineItem struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type checkoutCreateResponse struct {
	Data struct {
		CheckoutCreate *struct {
			Checkout *struct {
				ID     string `json:"id"`
				WebURL string `json:"webUrl"`
			} `json:"checkout"`
			CheckoutUserErrors []UserError `json:"checkoutUserErrors"`
		} `json:"checkoutCreate"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateCheckout runs the checkoutCreate mutation. Any response carrying a web
// URL counts as success; one without it is a *RemoteError. Network failures
// wrap repository.ErrCheckoutUnavailable.
func (c *Client) CreateCheckout(ctx context.Context, lineItems []entity.RemoteLineItem) (*entity.CheckoutSession, error) {
	ctx, span := c.tracer.Start(ctx, "shopify.checkoutCreate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("checkout.line_items", len(lineItems))),
	)
	defer span.End()

	items := make([]checkoutLineItem, 0, len(lineItems))
	for _, li := range lineItems {
		items = append(items, checkoutLineItem{VariantID: li.VariantID, Quantity: li.Quantity})
	}

	body, err := json.Marshal(graphQLRequest{
		Query: checkoutCreateMutation,
		Variables: map[string]interface{}{
			"input": map[string]interface{}{"lineItems": items},
		},
	})
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to encode checkoutCreate request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("failed to build checkoutCreate request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.token)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("%w: %v", repository.ErrCheckoutUnavailable, err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.fail(span, fmt.Errorf("%w: reading response: %v", repository.ErrCheckoutUnavailable, err))
	}

	var decoded checkoutCreateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, c.fail(span, fmt.Errorf("%w: status %d", repository.ErrCheckoutUnavailable, resp.StatusCode))
		}
		return nil, c.fail(span, &RemoteError{StatusCode: resp.StatusCode, GraphQLErrors: []string{"undecodable response body"}})
	}

	remoteErr := &RemoteError{StatusCode: resp.StatusCode}
	for _, e := range decoded.Errors {
		remoteErr.GraphQLErrors = append(remoteErr.GraphQLErrors, e.Message)
	}

	created := decoded.Data.CheckoutCreate
	if created != nil {
		remoteErr.UserErrors = created.CheckoutUserErrors
		if created.Checkout != nil && created.Checkout.WebURL != "" {
			return &entity.CheckoutSession{
				ID:     created.Checkout.ID,
				WebURL: created.Checkout.WebURL,
			}, nil
		}
	}

	return nil, c.fail(span, remoteErr)
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
