package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sendahandyman-backend/internal/notification"
	"sendahandyman-backend/internal/payment/domain"
	quoteDomain "sendahandyman-backend/internal/quote/domain"
	quoteRepository "sendahandyman-backend/internal/quote/repository"
	taskDomain "sendahandyman-backend/internal/task/domain"
	taskRepository "sendahandyman-backend/internal/task/repository"
	taskUsecase "sendahandyman-backend/internal/task/usecase"
	"sendahandyman-backend/pkg/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeGateway is an in-memory processor. Holds are kept newest first.
type fakeGateway struct {
	mu     sync.Mutex
	holds  map[string]*domain.Hold
	recent []string
	seq    int

	authorizeStatus domain.HoldStatus
	authorizeErr    error
	captureErr      error
	chargeErr       error
	getErr          error
	listErr         error

	authorizeCalls []domain.AuthorizeParams
	captureCalls   []domain.CaptureParams
	chargeCalls    []domain.ChargeParams
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{holds: map[string]*domain.Hold{}}
}

// addHold registers a hold as the most recent one
func (g *fakeGateway) addHold(h *domain.Hold) *domain.Hold {
	g.mu.Lock()
	defer g.mu.Unlock()
	if h.Metadata == nil {
		h.Metadata = map[string]string{}
	}
	if h.Currency == "" {
		h.Currency = "usd"
	}
	g.holds[h.ID] = h
	g.recent = append([]string{h.ID}, g.recent...)
	return h
}

func (g *fakeGateway) hold(id string) *domain.Hold {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *g.holds[id]
	return &cp
}

func (g *fakeGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%d", prefix, g.seq)
}

func (g *fakeGateway) Authorize(ctx context.Context, p domain.AuthorizeParams) (*domain.Hold, error) {
	g.mu.Lock()
	g.authorizeCalls = append(g.authorizeCalls, p)
	if g.authorizeErr != nil {
		g.mu.Unlock()
		return nil, g.authorizeErr
	}
	status := g.authorizeStatus
	if status == "" {
		status = domain.HoldRequiresCapture
	}
	if p.PaymentMethod == "" {
		status = domain.HoldRequiresPaymentMethod
	}
	id := g.nextID("pi_auth")
	g.mu.Unlock()

	// the processor only keeps the payment method on a customer when one is attached
	var customerID string
	if p.Customer != nil {
		customerID = "cus_" + id
	}
	h := g.addHold(&domain.Hold{
		ID:              id,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          status,
		CustomerID:      customerID,
		PaymentMethodID: p.PaymentMethod,
		ClientSecret:    id + "_secret",
		Metadata:        p.Metadata,
		Created:         time.Now(),
	})
	cp := *h
	return &cp, nil
}

func (g *fakeGateway) Capture(ctx context.Context, holdID string, p domain.CaptureParams) (*domain.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureCalls = append(g.captureCalls, p)
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	h, ok := g.holds[holdID]
	if !ok {
		return nil, &domain.GatewayError{Code: "resource_missing", Message: "No such payment_intent", StatusCode: 404, Err: domain.ErrHoldNotFound}
	}
	if h.Status != domain.HoldRequiresCapture {
		return nil, &domain.GatewayError{
			Code:       "payment_intent_unexpected_state",
			Message:    "This PaymentIntent could not be captured because it has a status of " + string(h.Status),
			StatusCode: 400,
		}
	}
	amount := p.AmountToCapture
	if amount == 0 {
		amount = h.Amount
	}
	h.Status = domain.HoldSucceeded
	h.AmountReceived = amount
	cp := *h
	return &cp, nil
}

func (g *fakeGateway) ChargeNow(ctx context.Context, p domain.ChargeParams) (*domain.Hold, error) {
	g.mu.Lock()
	g.chargeCalls = append(g.chargeCalls, p)
	if g.chargeErr != nil {
		g.mu.Unlock()
		return nil, g.chargeErr
	}
	id := g.nextID("pi_charge")
	g.mu.Unlock()

	h := g.addHold(&domain.Hold{
		ID:              id,
		Amount:          p.Amount,
		AmountReceived:  p.Amount,
		Currency:        p.Currency,
		Status:          domain.HoldSucceeded,
		CustomerID:      p.CustomerID,
		PaymentMethodID: p.PaymentMethod,
		Metadata:        p.Metadata,
		Created:         time.Now(),
	})
	cp := *h
	return &cp, nil
}

func (g *fakeGateway) Get(ctx context.Context, holdID string) (*domain.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	h, ok := g.holds[holdID]
	if !ok {
		return nil, &domain.GatewayError{Code: "resource_missing", Message: "No such payment_intent", StatusCode: 404, Err: domain.ErrHoldNotFound}
	}
	cp := *h
	return &cp, nil
}

func (g *fakeGateway) ListRecent(ctx context.Context, limit int) ([]*domain.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	var out []*domain.Hold
	for _, id := range g.recent {
		if len(out) >= limit {
			break
		}
		cp := *g.holds[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (g *fakeGateway) captures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.captureCalls)
}

// fakeNotifier records dispatches and alerts
type fakeNotifier struct {
	mu       sync.Mutex
	sms      []notification.Kind
	email    []notification.Kind
	payloads map[notification.Kind]notification.Payload
	alerts   []notification.Alert

	smsErr   error
	emailErr error
	alertErr error
}

func (n *fakeNotifier) NotifySMS(ctx context.Context, kind notification.Kind, payload notification.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.smsErr != nil {
		return n.smsErr
	}
	n.sms = append(n.sms, kind)
	n.record(kind, payload)
	return nil
}

func (n *fakeNotifier) NotifyEmail(ctx context.Context, kind notification.Kind, payload notification.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.emailErr != nil {
		return n.emailErr
	}
	n.email = append(n.email, kind)
	n.record(kind, payload)
	return nil
}

func (n *fakeNotifier) record(kind notification.Kind, payload notification.Payload) {
	if n.payloads == nil {
		n.payloads = map[notification.Kind]notification.Payload{}
	}
	n.payloads[kind] = payload
}

func (n *fakeNotifier) AlertAdmins(ctx context.Context, alert notification.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.alertErr
}

// flakyTaskRepo fails selected writes of an otherwise real store
type flakyTaskRepo struct {
	taskRepository.TaskRepository

	updateTaskErr    error
	updatePaymentErr error
	createPaymentErr error
	applyChargeErr   error
}

func (r *flakyTaskRepo) UpdateTask(ctx context.Context, id string, patch taskDomain.TaskPatch) error {
	if r.updateTaskErr != nil {
		return r.updateTaskErr
	}
	return r.TaskRepository.UpdateTask(ctx, id, patch)
}

func (r *flakyTaskRepo) UpdatePayment(ctx context.Context, id string, patch taskDomain.PaymentPatch) error {
	if r.updatePaymentErr != nil {
		return r.updatePaymentErr
	}
	return r.TaskRepository.UpdatePayment(ctx, id, patch)
}

func (r *flakyTaskRepo) CreatePayment(ctx context.Context, p *taskDomain.Payment) error {
	if r.createPaymentErr != nil {
		return r.createPaymentErr
	}
	return r.TaskRepository.CreatePayment(ctx, p)
}

func (r *flakyTaskRepo) ApplyAdditionalCharge(ctx context.Context, id string, delta decimal.Decimal, intentID string) error {
	if r.applyChargeErr != nil {
		return r.applyChargeErr
	}
	return r.TaskRepository.ApplyAdditionalCharge(ctx, id, delta, intentID)
}

// failingBooker fails task creation after the quote was authorized
type failingBooker struct {
	TaskBooker
	err error
}

func (b failingBooker) CreateTask(ctx context.Context, input taskUsecase.CreateTaskInput) (*taskDomain.Task, error) {
	return nil, b.err
}

// testEnv is a sqlite-backed store plus fakes for everything outside the process
type testEnv struct {
	tasks    *flakyTaskRepo
	quotes   quoteRepository.QuoteRepository
	booker   taskUsecase.TaskUsecase
	gateway  *fakeGateway
	notifier *fakeNotifier
	config   *config.Config
	logger   *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, taskRepository.Migrate(db))
	require.NoError(t, quoteRepository.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	env := &testEnv{
		tasks:    &flakyTaskRepo{TaskRepository: taskRepository.NewGormTaskRepository(db)},
		quotes:   quoteRepository.NewGormQuoteRepository(db),
		gateway:  newFakeGateway(),
		notifier: &fakeNotifier{},
		config: &config.Config{
			PaymentCurrency:  "usd",
			DefaultTravelFee: decimal.NewFromInt(80),
			PublicBaseURL:    "https://sendahandyman.com",
			HoldSearchLimit:  100,
		},
		logger: zap.NewNop(),
	}
	env.booker = taskUsecase.NewTaskUsecase(env.tasks, env.notifier, env.logger)
	return env
}

func (e *testEnv) resolver(heuristic bool) *Reconciler {
	return NewReconciler(e.gateway, ReconcilerOptions{ListLimit: e.config.HoldSearchLimit, AllowHeuristic: heuristic}, e.logger)
}

func (e *testEnv) captureUsecase() CaptureUsecase {
	return NewCaptureUsecase(e.tasks, e.gateway, e.resolver(true), e.notifier, e.logger)
}

func (e *testEnv) chargeUsecase() AdditionalChargeUsecase {
	return NewAdditionalChargeUsecase(e.tasks, e.gateway, e.notifier, e.config, e.logger)
}

func (e *testEnv) checkoutUsecase() *quoteCheckoutUsecase {
	return NewQuoteCheckoutUsecase(e.quotes, e.booker, e.gateway, e.notifier, e.config, e.logger).(*quoteCheckoutUsecase)
}

// bookTask creates a task with an open booking payment. An empty intentID
// leaves the payment without a gateway reference.
func (e *testEnv) bookTask(t *testing.T, total string, intentID string) *taskDomain.Task {
	t.Helper()
	ctx := context.Background()
	task, err := e.booker.CreateTask(ctx, taskUsecase.CreateTaskInput{
		CustomerName:  "Jane Doe",
		CustomerPhone: "+15555550100",
		CustomerEmail: "jane@example.com",
		Category:      "drywall",
		Description:   "Patch two holes",
		TimeWindow:    "morning",
		TotalAmount:   decimal.RequireFromString(total),
	})
	require.NoError(t, err)
	_, err = e.booker.RecordAuthorization(ctx, task.ID, taskUsecase.Authorization{
		Amount:          task.TotalAmount,
		PaymentIntentID: intentID,
		Type:            taskDomain.PaymentTypeBooking,
	})
	require.NoError(t, err)
	return task
}

// holdFor adds a capturable hold in the name of the booked customer
func (e *testEnv) holdFor(id string, amount int64) *domain.Hold {
	return e.gateway.addHold(&domain.Hold{
		ID:              id,
		Amount:          amount,
		Status:          domain.HoldRequiresCapture,
		CustomerID:      "cus_" + id,
		PaymentMethodID: "pm_" + id,
		Metadata: map[string]string{
			domain.MetaCustomerName:  "Jane Doe",
			domain.MetaCustomerEmail: "jane@example.com",
		},
	})
}

// capturedTask books and captures a task, returning it reloaded
func (e *testEnv) capturedTask(t *testing.T, total string, holdID string) *taskDomain.Task {
	t.Helper()
	task := e.bookTask(t, total, holdID)
	e.holdFor(holdID, decimal.RequireFromString(total).Mul(decimal.NewFromInt(100)).IntPart())
	_, err := e.captureUsecase().Capture(context.Background(), CaptureRequest{TaskID: task.ID})
	require.NoError(t, err)
	got, err := e.tasks.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	return got
}

func (e *testEnv) createQuote(t *testing.T, token, amount string, expiresAt time.Time) *quoteDomain.Quote {
	t.Helper()
	email := "quote@example.com"
	q := &quoteDomain.Quote{
		QuoteID:       "QUOTE-" + token,
		QuoteToken:    token,
		CustomerName:  "Sam Quote",
		CustomerPhone: "+15555550111",
		CustomerEmail: &email,
		ServiceType:   "fence repair",
		CustomAmount:  decimal.RequireFromString(amount),
		ExpiresAt:     expiresAt,
		CreatedBy:     "admin@example.com",
	}
	require.NoError(t, e.quotes.Create(context.Background(), q))
	return q
}
