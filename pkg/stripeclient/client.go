// Package stripeclient implements the payment gateway contract on top of the
// Stripe PaymentIntents API.
package stripeclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"sendahandyman-backend/internal/payment/domain"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// Client wraps the Stripe API client. Every call is bounded by timeout; a
// call that times out is reported as domain.ErrGatewayTimeoutUnknown because
// Stripe may still have applied it.
type Client struct {
	api     *client.API
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a Stripe-backed gateway
func NewClient(secretKey string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		api:     client.New(secretKey, stripe.NewBackends(httpClient)),
		timeout: timeout,
		logger:  logger.Named("stripe"),
	}
}

func (c *Client) Authorize(ctx context.Context, p domain.AuthorizeParams) (*domain.Hold, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.Amount),
		Currency:      stripe.String(p.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(p.PaymentMethod)
		params.ConfirmationMethod = stripe.String(string(stripe.PaymentIntentConfirmationMethodManual))
		params.Confirm = stripe.Bool(true)
		if p.ReturnURL != "" {
			params.ReturnURL = stripe.String(p.ReturnURL)
		}
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	if p.Customer != nil {
		customerID, err := c.createCustomer(ctx, p.Customer, p.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		params.Customer = stripe.String(customerID)
		params.SetupFutureUsage = stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession))
	}
	addMetadata(&params.Params, p.Metadata)
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, c.mapError("authorize", err)
	}
	c.logger.Info("Payment intent created",
		zap.String("payment_intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
		zap.Int64("amount", pi.Amount),
	)
	return toHold(pi), nil
}

// createCustomer registers the payer so the confirmed payment method is saved
// to a customer that off-session charges can reference.
func (c *Client) createCustomer(ctx context.Context, d *domain.CustomerDetails, idempotencyKey string) (string, error) {
	params := &stripe.CustomerParams{}
	if d.Name != "" {
		params.Name = stripe.String(d.Name)
	}
	if d.Email != "" {
		params.Email = stripe.String(d.Email)
	}
	if d.Phone != "" {
		params.Phone = stripe.String(d.Phone)
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey + "-customer")
	}
	params.Context = ctx

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", c.mapError("create customer", err)
	}
	c.logger.Debug("Customer created", zap.String("customer_id", cus.ID))
	return cus.ID, nil
}

func (c *Client) Capture(ctx context.Context, holdID string, p domain.CaptureParams) (*domain.Hold, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentCaptureParams{}
	if p.AmountToCapture > 0 {
		params.AmountToCapture = stripe.Int64(p.AmountToCapture)
	}
	addMetadata(&params.Params, p.Metadata)
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Capture(holdID, params)
	if err != nil {
		return nil, c.mapError("capture", err)
	}
	c.logger.Info("Payment intent captured",
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount_received", pi.AmountReceived),
	)
	return toHold(pi), nil
}

func (c *Client) ChargeNow(ctx context.Context, p domain.ChargeParams) (*domain.Hold, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.Amount),
		Currency:      stripe.String(p.Currency),
		Customer:      stripe.String(p.CustomerID),
		PaymentMethod: stripe.String(p.PaymentMethod),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	addMetadata(&params.Params, p.Metadata)
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, c.mapError("charge", err)
	}
	c.logger.Info("Immediate charge created",
		zap.String("payment_intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
		zap.Int64("amount", pi.Amount),
	)
	return toHold(pi), nil
}

func (c *Client) Get(ctx context.Context, holdID string) (*domain.Hold, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(holdID, params)
	if err != nil {
		return nil, c.mapError("retrieve", err)
	}
	return toHold(pi), nil
}

// ListRecent pages through payment intents newest first and stops at limit.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]*domain.Hold, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentListParams{}
	params.Limit = stripe.Int64(int64(limit))
	params.Context = ctx

	holds := make([]*domain.Hold, 0, limit)
	iter := c.api.PaymentIntents.List(params)
	for iter.Next() {
		holds = append(holds, toHold(iter.PaymentIntent()))
		if len(holds) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, c.mapError("list", err)
	}
	return holds, nil
}

func addMetadata(params *stripe.Params, metadata map[string]string) {
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
}

func toHold(pi *stripe.PaymentIntent) *domain.Hold {
	hold := &domain.Hold{
		ID:             pi.ID,
		Amount:         pi.Amount,
		AmountReceived: pi.AmountReceived,
		Currency:       string(pi.Currency),
		Status:         domain.HoldStatus(pi.Status),
		ClientSecret:   pi.ClientSecret,
		Metadata:       pi.Metadata,
		Created:        time.Unix(pi.Created, 0),
	}
	if hold.Metadata == nil {
		hold.Metadata = map[string]string{}
	}
	if pi.Customer != nil {
		hold.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		hold.PaymentMethodID = pi.PaymentMethod.ID
	}
	return hold
}

// mapError converts Stripe and transport errors into the gateway error
// vocabulary. Stripe error messages never include the secret key.
func (c *Client) mapError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.Warn("Stripe call timed out", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", domain.ErrGatewayTimeoutUnknown, op, err)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		c.logger.Error("Stripe rejected request",
			zap.String("op", op),
			zap.String("code", string(stripeErr.Code)),
			zap.Int("http_status", stripeErr.HTTPStatusCode),
			zap.String("message", stripeErr.Msg),
		)
		gwErr := &domain.GatewayError{
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
			Err:        err,
		}
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			gwErr.Err = domain.ErrHoldNotFound
		}
		return gwErr
	}

	c.logger.Error("Stripe call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("stripe %s: %w", op, err)
}
