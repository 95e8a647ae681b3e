package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/platform/logger"
	"github.com/saiko-shop/storefront/internal/platform/metrics"
	"github.com/saiko-shop/storefront/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	natsSubjectCheckoutStarted   = "checkout.started"
	natsSubjectCheckoutCompleted = "checkout.completed"
)

const (
	LabelCheckout = "Passer au paiement"
	LabelPending  = "Redirection..."

	AlertConfiguration = "Impossible de procéder au paiement. Vérifiez la configuration des produits."
	AlertRemoteFailure = "Erreur lors de la création du panier. Réessayez."
	AlertConnection    = "Erreur de connexion. Réessayez."
)

var (
	ErrNoRemoteLineItems = errors.New("no cart line maps to a remote variant")
	ErrCheckoutInFlight  = errors.New("checkout already in progress")
)

// CheckoutError pairs a failure with the alert shown to the visitor.
type CheckoutError struct {
	Alert string
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed: %v", e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// VariantTable maps product id -> size -> remote variant id.
type VariantTable map[string]map[string]string

func (t VariantTable) VariantID(productID, size string) (string, bool) {
	sizes, ok := t[productID]
	if !ok {
		return "", false
	}
	id, ok := sizes[size]
	return id, ok
}

// Control is the rendered state of a visitor's checkout button.
type Control struct {
	Disabled bool
	Label    string
}

// ControlRegistry tracks which sessions have a checkout request pending and
// which were sent to the backend and have not come back yet.
type ControlRegistry struct {
	mu      sync.Mutex
	pending map[string]struct{}
	started map[string]struct{}
}

func NewControlRegistry() *ControlRegistry {
	return &ControlRegistry{
		pending: make(map[string]struct{}),
		started: make(map[string]struct{}),
	}
}

// Acquire disables the session's control. It reports false when the control
// is already disabled.
func (r *ControlRegistry) Acquire(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.pending[sessionID]; busy {
		return false
	}
	r.pending[sessionID] = struct{}{}
	return true
}

// Release re-enables the control with its default label.
func (r *ControlRegistry) Release(sessionID string) {
	r.mu.Lock()
	delete(r.pending, sessionID)
	r.mu.Unlock()
}

// MarkStarted remembers that the session was redirected to a checkout.
func (r *ControlRegistry) MarkStarted(sessionID string) {
	r.mu.Lock()
	r.started[sessionID] = struct{}{}
	r.mu.Unlock()
}

// TakeStarted reports whether the session had a checkout started and forgets it.
func (r *ControlRegistry) TakeStarted(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.started[sessionID]
	delete(r.started, sessionID)
	return ok
}

func (r *ControlRegistry) State(sessionID string) Control {
	r.mu.Lock()
	_, busy := r.pending[sessionID]
	r.mu.Unlock()
	if busy {
		return Control{Disabled: true, Label: LabelPending}
	}
	return Control{Label: LabelCheckout}
}

type CheckoutResult struct {
	CheckoutID  string
	RedirectURL string
	LineItems   []entity.RemoteLineItem
}

// CheckoutEvent is published on the checkout subjects.
type CheckoutEvent struct {
	SessionKey string                  `json:"sessionKey"`
	CheckoutID string                  `json:"checkoutId,omitempty"`
	WebURL     string                  `json:"webUrl,omitempty"`
	LineItems  []entity.RemoteLineItem `json:"lineItems,omitempty"`
	Total      string                  `json:"total,omitempty"`
	OccurredAt time.Time               `json:"occurredAt"`
}

// CheckoutAdapter hands a cart off to the commerce backend. Recorder and
// publisher are optional.
type CheckoutAdapter struct {
	stores    *CartStores
	client    repository.CheckoutClient
	variants  VariantResolver
	controls  *ControlRegistry
	recorder  repository.CheckoutRecorder
	publisher repository.EventPublisher
	log       logger.Logger
	metrics   *metrics.Manager
	tracer    trace.Tracer
	now       func() time.Time
}

func NewCheckoutAdapter(
	stores *CartStores,
	client repository.CheckoutClient,
	variants VariantResolver,
	recorder repository.CheckoutRecorder,
	publisher repository.EventPublisher,
	log logger.Logger,
	m *metrics.Manager,
) *CheckoutAdapter {
	return &CheckoutAdapter{
		stores:    stores,
		client:    client,
		variants:  variants,
		controls:  NewControlRegistry(),
		recorder:  recorder,
		publisher: publisher,
		log:       log,
		metrics:   m,
		tracer:    otel.Tracer("github.com/saiko-shop/storefront/internal/service"),
		now:       time.Now,
	}
}

func (a *CheckoutAdapter) Control(sessionID string) Control {
	return a.controls.State(sessionID)
}

// Checkout translates the session's cart and asks the backend for a checkout.
// The cart lock is not held during the remote call.
func (a *CheckoutAdapter) Checkout(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	ctx, span := a.tracer.Start(ctx, "checkout.create")
	defer span.End()

	store := a.stores.Open(ctx, sessionID)
	lineItems := store.RemoteLineItems(a.variants)
	span.SetAttributes(attribute.Int("checkout.line_items", len(lineItems)))
	if len(lineItems) == 0 {
		a.metrics.ObserveCheckout("no_line_items")
		a.log.Warnf("Checkout refused for %s: no line items with a variant", store.Key())
		return nil, &CheckoutError{Alert: AlertConfiguration, Err: ErrNoRemoteLineItems}
	}

	if !a.controls.Acquire(sessionID) {
		a.metrics.ObserveCheckout("in_flight")
		return nil, ErrCheckoutInFlight
	}
	defer a.controls.Release(sessionID)

	session, err := a.client.CreateCheckout(ctx, lineItems)
	if err != nil {
		span.RecordError(err)
		alert, outcome := AlertRemoteFailure, "rejected"
		if errors.Is(err, repository.ErrCheckoutUnavailable) {
			alert, outcome = AlertConnection, "unavailable"
		}
		a.metrics.ObserveCheckout(outcome)
		a.log.Errorf("Checkout creation failed for %s: %v", store.Key(), err)
		return nil, &CheckoutError{Alert: alert, Err: err}
	}

	a.metrics.ObserveCheckout("created")
	a.controls.MarkStarted(sessionID)
	a.log.Infof("Checkout created for %s: CheckoutID=%s", store.Key(), session.ID)

	now := a.now()
	total := store.Total().String()
	if a.recorder != nil {
		record := entity.CheckoutRecord{
			SessionKey: store.Key(),
			CheckoutID: session.ID,
			WebURL:     session.WebURL,
			LineItems:  lineItems,
			Total:      total,
			Status:     entity.CheckoutStatusPending,
			CreatedAt:  now,
		}
		if err := a.recorder.Create(ctx, record); err != nil {
			a.log.Errorf("Failed to record checkout %s: %v", session.ID, err)
		}
	}
	a.publish(ctx, natsSubjectCheckoutStarted, CheckoutEvent{
		SessionKey: store.Key(),
		CheckoutID: session.ID,
		WebURL:     session.WebURL,
		LineItems:  lineItems,
		Total:      total,
		OccurredAt: now,
	})

	return &CheckoutResult{
		CheckoutID:  session.ID,
		RedirectURL: session.WebURL,
		LineItems:   lineItems,
	}, nil
}

// Complete handles the return from a finished checkout: the cart is cleared,
// the audit record closed and checkout.completed published. A return with no
// started checkout behind it, neither in this process nor in the audit
// records, leaves the cart alone and reports false.
func (a *CheckoutAdapter) Complete(ctx context.Context, sessionID string) bool {
	key := a.stores.Key(sessionID)
	now := a.now()

	completed := a.controls.TakeStarted(sessionID)
	if a.recorder != nil {
		err := a.recorder.MarkCompleted(ctx, key, now)
		switch {
		case err == nil:
			completed = true
		case errors.Is(err, repository.ErrNotFound):
			a.log.Warnf("No pending checkout recorded for %s", key)
		default:
			a.log.Errorf("Failed to mark checkout completed for %s: %v", key, err)
		}
	}
	if !completed {
		a.metrics.ObserveCheckout("return_ignored")
		a.log.Warnf("Ignoring checkout return for %s: no checkout started", key)
		return false
	}

	unlock := a.stores.Lock(sessionID)
	store := a.stores.Open(ctx, sessionID)
	total := store.Total().String()
	store.Clear(ctx)
	unlock()

	a.metrics.ObserveCheckout("completed")
	a.publish(ctx, natsSubjectCheckoutCompleted, CheckoutEvent{
		SessionKey: key,
		Total:      total,
		OccurredAt: now,
	})
	return true
}

func (a *CheckoutAdapter) publish(ctx context.Context, subject string, ev CheckoutEvent) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, subject, ev); err != nil {
		a.log.Errorf("Failed to publish %s event: %v", subject, err)
	}
}
