package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"impacthub/internal/domain"
	"impacthub/internal/donation"
	"impacthub/internal/impactgate"
	"impacthub/internal/middleware"
	"impacthub/internal/providers/impact"
)

const testSecret = "handler-test-secret"

// memStore backs every repository contract with maps.
type memStore struct {
	mu        sync.Mutex
	clock     time.Time
	users     map[string]*domain.User
	projects  map[string]*domain.Project
	comments  []domain.Comment
	supports  map[[2]string]time.Time
	donations map[string]*domain.Donation
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		users:     map[string]*domain.User{},
		projects:  map[string]*domain.Project{},
		supports:  map[[2]string]time.Time{},
		donations: map[string]*domain.Donation{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memProjects struct{ *memStore }

func (m memProjects) Create(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = m.tick()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m memProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memProjects) summary(p *domain.Project, viewerID string) domain.ProjectSummary {
	s := domain.ProjectSummary{Project: *p}
	for key := range m.supports {
		if key[0] == p.ID {
			s.SupportersCount++
			if key[1] == viewerID {
				s.IsSupported = true
			}
		}
	}
	return s
}

func (m memProjects) filter(viewerID string, limit int, keep func(*domain.Project) bool) []domain.ProjectSummary {
	var out []domain.ProjectSummary
	for _, p := range m.projects {
		if keep(p) {
			out = append(out, m.summary(p, viewerID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m memProjects) List(_ context.Context, viewerID string, limit int) ([]domain.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(viewerID, limit, func(*domain.Project) bool { return true }), nil
}

func (m memProjects) Summary(_ context.Context, id, viewerID string) (*domain.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s := m.summary(p, viewerID)
	return &s, nil
}

func (m memProjects) ListByCreator(_ context.Context, userID string, limit int) ([]domain.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(userID, limit, func(p *domain.Project) bool { return p.UserID == userID }), nil
}

func (m memProjects) ListSupportedBy(_ context.Context, userID string, limit int) ([]domain.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(userID, limit, func(p *domain.Project) bool {
		_, ok := m.supports[[2]string{p.ID, userID}]
		return ok
	}), nil
}

func (m memProjects) StatsForUser(_ context.Context, userID string) (domain.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st domain.UserStats
	for _, p := range m.projects {
		if p.UserID == userID {
			st.ProjectsCreated++
			st.Reach += m.summary(p, "").SupportersCount
		}
	}
	for key := range m.supports {
		if key[1] == userID {
			st.ProjectsSupported++
		}
	}
	return st, nil
}

func (m memProjects) Update(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

type memComments struct{ *memStore }

func (m memComments) Create(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = m.tick()
	m.comments = append(m.comments, *c)
	return nil
}

func (m memComments) ListByProject(_ context.Context, projectID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Comment
	for _, c := range m.comments {
		if c.ProjectID == projectID {
			if u, ok := m.users[c.UserID]; ok {
				c.Author = *u
			}
			out = append(out, c)
		}
	}
	return out, nil
}

type memSupports struct{ *memStore }

func (m memSupports) Add(_ context.Context, projectID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{projectID, userID}
	if _, ok := m.supports[key]; ok {
		return false, nil
	}
	m.supports[key] = m.tick()
	return true, nil
}

type memDonations struct{ *memStore }

func (m memDonations) Create(_ context.Context, d *domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.donations {
		if existing.OrderID != nil && d.OrderID != nil && *existing.OrderID == *d.OrderID {
			return fmt.Errorf("duplicate gateway order %s: %w", *d.OrderID, domain.ErrUpstream)
		}
	}
	d.ID = uuid.NewString()
	d.CreatedAt = m.tick()
	if p, ok := m.projects[d.ProjectID]; ok {
		d.ProjectTitle = p.Title
	}
	cp := *d
	m.donations[d.ID] = &cp
	return nil
}

func (m memDonations) GetByIDAndOrder(_ context.Context, id, orderID string) (*domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok || d.OrderID == nil || *d.OrderID != orderID {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m memDonations) Transition(_ context.Context, id, orderID string, to domain.DonationStatus, paymentID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok || *d.OrderID != orderID || d.Status != domain.DonationCreated {
		return false, nil
	}
	d.Status = to
	if paymentID != nil {
		d.PaymentID = paymentID
	}
	return true, nil
}

func (m memDonations) ListByUser(_ context.Context, userID string, limit int) ([]domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Donation
	for _, d := range m.donations {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memDonations) TotalsForProject(_ context.Context, projectID string) (domain.DonationTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t domain.DonationTotals
	for _, d := range m.donations {
		if d.ProjectID == projectID && d.Status == domain.DonationPaid {
			t.Count++
			t.Sum = t.Sum.Add(d.Amount)
		}
	}
	return t, nil
}

type stubGateway struct {
	orders  int
	err     error
	orderID string
}

func (g *stubGateway) CreateOrder(_ context.Context, req donation.OrderRequest) (donation.Order, error) {
	if g.err != nil {
		return donation.Order{}, g.err
	}
	g.orders++
	id := g.orderID
	if id == "" {
		id = "order_" + uuid.NewString()[:8]
	}
	return donation.Order{ID: id, AmountMinor: req.AmountMinor, Currency: req.Currency}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) error {
	if signature == "sig:"+orderID+"|"+paymentID {
		return nil
	}
	return domain.ErrSignatureMismatch
}

func (g *stubGateway) PublicKey() string { return "rzp_test_public" }

type stubClassifier struct {
	verdict impact.Verdict
	calls   int
}

func (c *stubClassifier) Classify(context.Context, impact.Input) impact.Verdict {
	c.calls++
	return c.verdict
}

type testEnv struct {
	app        *App
	store      *memStore
	classifier *stubClassifier
	gateway    *stubGateway
}

func newTestEnv(t *testing.T, policy impactgate.Policy) *testEnv {
	t.Helper()
	store := newMemStore()
	classifier := &stubClassifier{verdict: impact.Verdict{Result: impact.True, Provider: impact.ProviderKeyword}}
	gateway := &stubGateway{}
	projects := memProjects{store}
	app := &App{
		Logger:     zerolog.Nop(),
		Users:      memUsers{store},
		Projects:   projects,
		Comments:   memComments{store},
		Supports:   memSupports{store},
		Gate:       impactgate.New(classifier, projects, policy, zerolog.Nop()),
		Classifier: classifier,
		Donations:  donation.NewManager(gateway, projects, memDonations{store}, donation.Options{Logger: zerolog.Nop()}),
		Tokens: middleware.TokenIssuer{
			Secret:     testSecret,
			Issuer:     "impacthub-test",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
	}
	return &testEnv{app: app, store: store, classifier: classifier, gateway: gateway}
}

func (e *testEnv) addUser(t *testing.T, username string, admin bool) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.org", IsAdmin: admin}
	if err := (memUsers{e.store}).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) addProject(t *testing.T, owner *domain.User, title string) *domain.Project {
	t.Helper()
	p := &domain.Project{UserID: owner.ID, Title: title, ImpactArea: "Education", Description: "Books for schools"}
	if err := (memProjects{e.store}).Create(context.Background(), p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// request builds a request with an optional JSON body, caller and {id} param.
func request(t *testing.T, method, target string, body any, userID, id string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			if err := json.NewEncoder(&buf).Encode(v); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	ctx := req.Context()
	if userID != "" {
		ctx = middleware.ContextWithUserID(ctx, userID)
	}
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
