package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/assessly-billing/internal/db"
	"github.com/example/assessly-billing/internal/models"
	"github.com/example/assessly-billing/internal/payments"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", userID, db.ErrNotFound)
	}
	return u, nil
}

type fakeOrgRepo struct {
	mu     sync.Mutex
	orgs   map[string]*models.Organization
	users  *fakeUserRepo
	nextID string
	seq    int
	writes int
	err    error
}

func newFakeOrgRepo(orgs ...*models.Organization) *fakeOrgRepo {
	r := &fakeOrgRepo{orgs: map[string]*models.Organization{}, nextID: "org_new"}
	for _, o := range orgs {
		r.orgs[o.ID] = o
	}
	return r
}

// NewID returns nextID when set, otherwise a fresh org_<n>.
func (r *fakeOrgRepo) NewID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nextID != "" {
		return r.nextID
	}
	r.seq++
	return fmt.Sprintf("org_%d", r.seq)
}

func (r *fakeOrgRepo) GetByID(_ context.Context, orgID string) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[orgID]
	if !ok {
		return nil, fmt.Errorf("organization '%s': %w", orgID, db.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrgRepo) CreateWithOwner(_ context.Context, org *models.Organization, owner *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.orgs[org.ID]; ok {
		return fmt.Errorf("organization '%s': %w", org.ID, db.ErrAlreadyExists)
	}
	if r.users != nil {
		r.users.mu.Lock()
		defer r.users.mu.Unlock()
		if _, ok := r.users.users[owner.ID]; ok {
			return fmt.Errorf("owner '%s': %w", owner.ID, db.ErrAlreadyExists)
		}
		r.users.users[owner.ID] = owner
	}
	r.orgs[org.ID] = org
	r.writes++
	return nil
}

func (r *fakeOrgRepo) ApplySubscription(_ context.Context, orgID string, sub models.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	o, ok := r.orgs[orgID]
	if !ok {
		return false, fmt.Errorf("organization '%s': %w", orgID, db.ErrNotFound)
	}
	cur := o.Subscription.LastEventAt
	if !cur.IsZero() && !sub.LastEventAt.IsZero() && sub.LastEventAt.Before(cur) {
		return false, nil
	}
	o.Subscription = sub
	r.writes++
	return true, nil
}

func (r *fakeOrgRepo) ListRenewalsDue(_ context.Context, dueBefore time.Time) ([]*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.Organization
	for _, o := range r.orgs {
		s := o.Subscription
		if s.Status == models.SubscriptionStatusActive && !s.CurrentPeriodEnd.IsZero() && !s.CurrentPeriodEnd.After(dueBefore) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeBillingLogs struct {
	mu      sync.Mutex
	logs    map[string]*models.BillingLog
	creates int
	err     error
}

func newFakeBillingLogs() *fakeBillingLogs {
	return &fakeBillingLogs{logs: map[string]*models.BillingLog{}}
}

func (r *fakeBillingLogs) Create(_ context.Context, entry *models.BillingLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *entry
	r.logs[entry.SessionID] = &cp
	r.creates++
	return nil
}

func (r *fakeBillingLogs) MarkCompleted(_ context.Context, sessionID, orgID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	l, ok := r.logs[sessionID]
	if !ok {
		l = &models.BillingLog{SessionID: sessionID, OrgID: orgID, CreatedAt: at}
		r.logs[sessionID] = l
	}
	l.Status = models.BillingLogCompleted
	l.UpdatedAt = at
	return nil
}

type fakeInvoices struct {
	mu       sync.Mutex
	invoices map[string]*models.BillingInvoice
	writes   int
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{invoices: map[string]*models.BillingInvoice{}}
}

func (r *fakeInvoices) Upsert(_ context.Context, invoice *models.BillingInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *invoice
	r.invoices[invoice.InvoiceID] = &cp
	r.writes++
	return nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	items map[string]*models.Notification
	err   error
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{items: map[string]*models.Notification{}}
}

func (r *fakeNotifications) CreateOnce(_ context.Context, n *models.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.items[n.ID]; ok {
		return false, nil
	}
	cp := *n
	r.items[n.ID] = &cp
	return true, nil
}

type fakeProvider struct {
	mu            sync.Mutex
	calls         int
	customers     map[string]*payments.Customer
	subscriptions map[string]*payments.Subscription
	checkouts     []payments.CheckoutRequest
	portalReturn  string
	createdCust   []payments.CustomerRequest
	err           error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers:     map[string]*payments.Customer{},
		subscriptions: map[string]*payments.Subscription{},
	}
}

func (p *fakeProvider) CreateCustomer(_ context.Context, req payments.CustomerRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	p.createdCust = append(p.createdCust, req)
	id := fmt.Sprintf("cus_%d", len(p.createdCust))
	p.customers[id] = &payments.Customer{ID: id, Email: req.Email, Metadata: req.Metadata}
	return id, nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	p.checkouts = append(p.checkouts, req)
	id := fmt.Sprintf("cs_test_%d", len(p.checkouts))
	return &payments.CheckoutSession{
		ID:         id,
		URL:        "https://checkout.stripe.com/c/pay/" + id,
		CustomerID: req.CustomerID,
		Metadata:   req.Metadata,
	}, nil
}

func (p *fakeProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	p.portalReturn = returnURL
	return "https://billing.stripe.com/p/session/" + customerID, nil
}

func (p *fakeProvider) GetCustomer(_ context.Context, customerID string) (*payments.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	c, ok := p.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("no such customer: '%s'", customerID)
	}
	return c, nil
}

func (p *fakeProvider) GetSubscription(_ context.Context, subscriptionID string) (*payments.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	s, ok := p.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription: '%s'", subscriptionID)
	}
	return s, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeLedger struct {
	seen map[string]bool
}

func (l *fakeLedger) Seen(_ context.Context, eventID string) (bool, error) {
	return l.seen[eventID], nil
}

func (l *fakeLedger) MarkProcessed(_ context.Context, eventID string) error {
	l.seen[eventID] = true
	return nil
}

type fakePublisher struct {
	queue    string
	messages [][]byte
	err      error
}

func (p *fakePublisher) Publish(queueName string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.queue = queueName
	p.messages = append(p.messages, body)
	return nil
}

type fakeClaims struct {
	mu     sync.Mutex
	calls  int
	uid    string
	claims map[string]interface{}
	err    error
}

func (c *fakeClaims) SetCustomUserClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.uid = uid
	c.claims = claims
	return nil
}
