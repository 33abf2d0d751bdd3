package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tadweer/internal/config"
	"tadweer/internal/db"
	"tadweer/internal/deliveries"
	"tadweer/internal/domain"
	"tadweer/internal/events"
	"tadweer/internal/identity"
	"tadweer/internal/migrate"
	"tadweer/internal/orders"
	"tadweer/internal/rewards"
	"tadweer/internal/storage"
)

type testServer struct {
	URL    string
	Store  *orders.Store
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	kv := storage.SQLite{DB: conn}
	ev := events.Writer{DB: conn}
	appCfg := config.Default()
	store := orders.New(ctx, kv, ev, zap.NewNop())
	ledger := rewards.New(ctx, kv, ev, appCfg.RewardCatalog(), appCfg.Points.PerLiter, zap.NewNop())
	ledger.Attach(store)
	tracker := deliveries.New(store, appCfg.DriverPool())

	handler, err := New(Config{
		Store:   store,
		Ledger:  ledger,
		Tracker: tracker,
		Events:  ev,
		App:     appCfg,
		Auth:    AuthConfig{Tokens: identity.TokenProvider{Secret: "test-secret", TTL: time.Hour}},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:   "http://" + ln.Addr().String(),
		Store: store,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func signIn(t *testing.T, srv *testServer, name, role string) map[string]string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/session/sign-in", map[string]any{
		"id":   "user-1",
		"name": name,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status %d: %s", res.StatusCode, data)
	}
	var tok TokenResponse
	if err := json.Unmarshal(data, &tok); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + tok.Token}
	if role == "" {
		return headers
	}
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/session/role", map[string]any{"role": role}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("set role status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		t.Fatalf("unmarshal role token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok.Token}
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/session", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("session status %d: %s", res.StatusCode, data)
	}
	var session SessionResponse
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if !session.Loaded || session.SignedIn {
		t.Fatalf("anonymous session = %+v", session)
	}

	headers := signIn(t, srv, "Sara", "customer")
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/session", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("session status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &session); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if !session.SignedIn || session.Role != domain.RoleCustomer || session.Name != "Sara" {
		t.Fatalf("session = %+v", session)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/session/role", map[string]any{"role": "superadmin"}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown role status %d: %s", res.StatusCode, data)
	}
}

func TestOrderEndpoints(t *testing.T) {
	srv := newTestServer(t)

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/orders", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous list status %d", res.StatusCode)
	}

	headers := signIn(t, srv, "Sara", "company")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/orders", map[string]any{
		"volume":         "1000L",
		"collectionDate": "2099-01-15",
		"location":       map[string]any{"query": "muscat"},
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, data)
	}
	var created domain.Order
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}
	if created.ID == "" || created.Status != domain.StatusPending {
		t.Fatalf("created = %+v", created)
	}

	// off-catalog volume is rejected with field errors
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/orders", map[string]any{
		"volume":         "750L",
		"collectionDate": "2099-01-15",
		"location":       map[string]any{"query": "muscat"},
	}, headers)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid volume status %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/orders/"+created.ID+"/status", map[string]any{
		"status": domain.StatusCompleted,
		"note":   "collected on time",
	}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status update %d: %s", res.StatusCode, data)
	}
	var updated domain.Order
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("unmarshal updated: %v", err)
	}
	if updated.Status != domain.StatusCompleted || updated.Notes != "collected on time" {
		t.Fatalf("updated = %+v", updated)
	}

	// completion earned points through the store subscription
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/points", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("points status %d: %s", res.StatusCode, data)
	}
	var points PointsResponse
	if err := json.Unmarshal(data, &points); err != nil {
		t.Fatalf("unmarshal points: %v", err)
	}
	if points.Balance != 10000 {
		t.Fatalf("balance = %d, want 10000", points.Balance)
	}

	res, data = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/v0/orders/ORD-MISSING", nil, headers)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing status %d: %s", res.StatusCode, data)
	}
}

func TestCollectionEndpointFoldsVolume(t *testing.T) {
	srv := newTestServer(t)
	headers := signIn(t, srv, "Sara", "customer")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/collections", map[string]any{
		"containerSize": "10L",
		"quantity":      "3",
		"phone":         "+968 9123 4567",
		"date":          "2099-01-15",
		"timeSlot":      "09:00 - 11:00",
		"location":      map[string]any{"query": "salalah"},
		"notes":         "gate code 4412",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("collection status %d: %s", res.StatusCode, data)
	}
	var o domain.Order
	if err := json.Unmarshal(data, &o); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}
	if o.Volume != "30L" {
		t.Fatalf("volume = %q, want 30L", o.Volume)
	}
	if o.CustomerNotes == "" {
		t.Fatal("customer notes not attached")
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/collections", map[string]any{
		"containerSize": "10L",
		"quantity":      "0",
		"phone":         "bad",
		"date":          "2099-01-15",
		"timeSlot":      "09:00 - 11:00",
		"location":      map[string]any{"query": "salalah"},
	}, headers)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid collection status %d: %s", res.StatusCode, data)
	}
}

func TestScheduleAndDeliveries(t *testing.T) {
	srv := newTestServer(t)
	headers := signIn(t, srv, "Sara", "company")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/orders", map[string]any{
		"volume":         "500L",
		"collectionDate": "2099-01-15",
		"location":       map[string]any{"query": "muscat"},
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, data)
	}
	var o domain.Order
	if err := json.Unmarshal(data, &o); err != nil {
		t.Fatalf("unmarshal order: %v", err)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/orders/"+o.ID+"/schedule", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("schedule status %d: %s", res.StatusCode, data)
	}
	var scheduled domain.Order
	if err := json.Unmarshal(data, &scheduled); err != nil {
		t.Fatalf("unmarshal scheduled: %v", err)
	}
	if scheduled.Status != domain.StatusScheduled || scheduled.AssignedDriver == "" {
		t.Fatalf("scheduled = %+v", scheduled)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/deliveries/"+o.ID, nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delivery status %d: %s", res.StatusCode, data)
	}
}

func TestPageGuardRedirects(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	get := func(path string, headers map[string]string) *http.Response {
		t.Helper()
		res, _ := doJSON(t, client, http.MethodGet, srv.URL+path, nil, headers)
		return res
	}

	// signed out: dashboards bounce to sign-in, sign-in renders
	if res := get("/dashboard", nil); res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/sign-in" {
		t.Fatalf("signed-out /dashboard: %d -> %q", res.StatusCode, res.Header.Get("Location"))
	}
	if res := get("/sign-in", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("signed-out /sign-in status %d", res.StatusCode)
	}

	// signed in without a role: everything bounces to role selection
	noRole := signIn(t, srv, "Sara", "")
	if res := get("/dashboard", noRole); res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/role-selection" {
		t.Fatalf("role-less /dashboard: %d -> %q", res.StatusCode, res.Header.Get("Location"))
	}

	// customer renders its own section and bounces off the company's
	customer := signIn(t, srv, "Sara", "customer")
	if res := get("/dashboard", customer); res.StatusCode != http.StatusOK {
		t.Fatalf("customer /dashboard status %d", res.StatusCode)
	}
	if res := get("/company/dashboard", customer); res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/dashboard" {
		t.Fatalf("customer /company/dashboard: %d -> %q", res.StatusCode, res.Header.Get("Location"))
	}

	company := signIn(t, srv, "Omar", "company")
	if res := get("/company/dashboard", company); res.StatusCode != http.StatusOK {
		t.Fatalf("company /company/dashboard status %d", res.StatusCode)
	}
	if res := get("/sign-in", company); res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/company/dashboard" {
		t.Fatalf("company /sign-in: %d -> %q", res.StatusCode, res.Header.Get("Location"))
	}
}

func TestStaleCookieFallsBackToSignedOut(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	stale := map[string]string{"Cookie": sessionCookie + "=not-a-token"}

	// page navigation with a dead session redirects like a signed-out visit
	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/dashboard", nil, stale)
	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/sign-in" {
		t.Fatalf("stale cookie /dashboard: %d -> %q", res.StatusCode, res.Header.Get("Location"))
	}

	// an explicit bad bearer token is still rejected outright
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/orders", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad bearer status %d", res.StatusCode)
	}
}

func TestContainerQuote(t *testing.T) {
	srv := newTestServer(t)
	headers := signIn(t, srv, "Omar", "company")

	res, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/containers/quote", map[string]any{
		"items": []map[string]any{{"containerId": "standard-5l", "quantity": 2}},
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous quote status %d", res.StatusCode)
	}

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/containers/quote", map[string]any{
		"items": []map[string]any{
			{"containerId": "standard-5l", "quantity": 2},
			{"containerId": "premium-10l", "quantity": 1},
		},
	}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("quote status %d: %s", res.StatusCode, data)
	}
	var quote rewards.ContainerQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		t.Fatalf("unmarshal quote: %v", err)
	}
	if len(quote.Lines) != 2 {
		t.Fatalf("expected 2 quote lines, got %d", len(quote.Lines))
	}
	if want := decimal.RequireFromString("18"); !quote.Total.Equal(want) {
		t.Fatalf("total = %s, want %s", quote.Total, want)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/containers/quote", map[string]any{
		"items": []map[string]any{{"containerId": "barrel-200l", "quantity": 1}},
	}, headers)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown container status %d", res.StatusCode)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/containers/quote", map[string]any{
		"items": []map[string]any{{"containerId": "standard-5l", "quantity": 0}},
	}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero quantity status %d", res.StatusCode)
	}
}
