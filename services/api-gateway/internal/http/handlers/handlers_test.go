package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-order-system/services/api-gateway/internal/http/handlers"
	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/pricing"
)

var testSvc = models.Service{
	ID:            "svc-1",
	Name:          "Express Delivery",
	VehicleType:   "bike",
	BaseFareCents: 500,
	PerKmCents:    100,
	PerKgCents:    50,
	MinFareCents:  600,
	Active:        true,
}

type fakeCatalog struct {
	svc   models.Service
	rules []pricing.Rule
	err   error
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (models.Service, error) {
	if f.err != nil {
		return models.Service{}, f.err
	}
	if id != f.svc.ID {
		return models.Service{}, repo.ErrNotFound
	}
	return f.svc, nil
}

func (f *fakeCatalog) Rules(ctx context.Context, serviceID string) ([]pricing.Rule, error) {
	return f.rules, nil
}

func asCustomer(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), auth.Claims{UserID: userID, Role: models.RoleCustomer}))
}

func asTransporter(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), auth.Claims{UserID: userID, Role: models.RoleTransporter}))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestQuoteHandler(t *testing.T) {
	h := &handlers.QuoteHandler{
		Catalog: &fakeCatalog{svc: testSvc},
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) },
	}

	t.Run("prices by distance and weight", func(t *testing.T) {
		body := `{"service_id":"svc-1","pickup":{"lat":0,"lng":0},"dropoff":{"lat":0,"lng":0},"weight_kg":2}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/quote", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)

		var q pricing.Quote
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
		// 500 base + 0 distance + 100 weight = 600 (meets min fare exactly).
		assert.Equal(t, 600, q.TotalCents)
	})

	t.Run("unknown service", func(t *testing.T) {
		body := `{"service_id":"nope","pickup":{"lat":0,"lng":0},"dropoff":{"lat":1,"lng":1},"weight_kg":0}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/quote", strings.NewReader(body)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects bad coordinates", func(t *testing.T) {
		body := `{"service_id":"svc-1","pickup":{"lat":95,"lng":0},"dropoff":{"lat":0,"lng":0},"weight_kg":0}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/quote", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects negative weight", func(t *testing.T) {
		body := `{"service_id":"svc-1","pickup":{"lat":0,"lng":0},"dropoff":{"lat":0,"lng":0},"weight_kg":-1}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/quote", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inactive service", func(t *testing.T) {
		inactive := testSvc
		inactive.Active = false
		h := &handlers.QuoteHandler{Catalog: &fakeCatalog{svc: inactive}, Log: zerolog.Nop()}
		body := `{"service_id":"svc-1","pickup":{"lat":0,"lng":0},"dropoff":{"lat":0,"lng":0},"weight_kg":0}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders/quote", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

type fakeBooker struct {
	err     error
	order   models.Order
	vehicle string
	quote   pricing.Quote
	calls   int
}

func (f *fakeBooker) Book(ctx context.Context, o models.Order, vehicle string, quote pricing.Quote) error {
	f.order, f.vehicle, f.quote = o, vehicle, quote
	f.calls++
	return f.err
}

func TestCreateOrderHandler(t *testing.T) {
	eveningRule := pricing.Rule{
		Name:      "evening_surcharge",
		Kind:      pricing.KindSurcharge,
		Field:     pricing.FieldHour,
		Op:        pricing.OpGte,
		Min:       20,
		FlatCents: 300,
	}
	body := `{"service_id":"svc-1","pickup":{"address":"A","lat":0,"lng":0},"dropoff":{"address":"B","lat":0,"lng":0},"weight_kg":2}`

	t.Run("books at the evening rate", func(t *testing.T) {
		booker := &fakeBooker{}
		h := &handlers.CreateOrderHandler{
			Orders:  booker,
			Catalog: &fakeCatalog{svc: testSvc, rules: []pricing.Rule{eveningRule}},
			Log:     zerolog.Nop(),
			Now:     func() time.Time { return time.Date(2026, 8, 26, 22, 0, 0, 0, time.UTC) },
		}
		req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), "c-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		require.Equal(t, 1, booker.calls)
		assert.Equal(t, "c-1", booker.order.CustomerID)
		assert.Equal(t, models.StatusPending, booker.order.Status)
		assert.Equal(t, "bike", booker.vehicle)
		// 500 base + 0 distance + 100 weight + 300 evening surcharge.
		assert.Equal(t, 900, booker.order.TotalCents)

		var resp struct {
			ID         string        `json:"id"`
			TotalCents int           `json:"total_cents"`
			Quote      pricing.Quote `json:"quote"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, booker.order.ID, resp.ID)
		assert.Equal(t, 900, resp.TotalCents)
	})

	t.Run("daytime booking skips the surcharge", func(t *testing.T) {
		booker := &fakeBooker{}
		h := &handlers.CreateOrderHandler{
			Orders:  booker,
			Catalog: &fakeCatalog{svc: testSvc, rules: []pricing.Rule{eveningRule}},
			Log:     zerolog.Nop(),
			Now:     func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) },
		}
		req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)), "c-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 600, booker.order.TotalCents)
	})

	t.Run("missing address", func(t *testing.T) {
		booker := &fakeBooker{}
		h := &handlers.CreateOrderHandler{Orders: booker, Catalog: &fakeCatalog{svc: testSvc}, Log: zerolog.Nop()}
		bad := `{"service_id":"svc-1","pickup":{"lat":0,"lng":0},"dropoff":{"address":"B","lat":0,"lng":0},"weight_kg":1}`
		req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(bad)), "c-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, booker.calls)
	})

	t.Run("unknown service", func(t *testing.T) {
		h := &handlers.CreateOrderHandler{Orders: &fakeBooker{}, Catalog: &fakeCatalog{svc: testSvc}, Log: zerolog.Nop()}
		bad := `{"service_id":"nope","pickup":{"address":"A","lat":0,"lng":0},"dropoff":{"address":"B","lat":0,"lng":0},"weight_kg":1}`
		req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(bad)), "c-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

type fakeUsers struct {
	created     []models.User
	createErr   error
	byEmailUser models.User
	byEmailHash string
	byEmailErr  error
}

func (f *fakeUsers) Create(ctx context.Context, u models.User, passwordHash, vehicleType string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (models.User, string, error) {
	return f.byEmailUser, f.byEmailHash, f.byEmailErr
}

func TestSignupHandler(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)

	t.Run("creates customer and returns token", func(t *testing.T) {
		users := &fakeUsers{}
		h := &handlers.SignupHandler{Users: users, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"name":"Ann","email":"Ann@Example.com","password":"longenough","role":"customer"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, users.created, 1)
		assert.Equal(t, "ann@example.com", users.created[0].Email)

		var resp struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		claims, err := tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.ID, claims.UserID)
		assert.Equal(t, models.RoleCustomer, claims.Role)
	})

	t.Run("transporter requires vehicle", func(t *testing.T) {
		h := &handlers.SignupHandler{Users: &fakeUsers{}, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"name":"Bo","email":"bo@x.io","password":"longenough","role":"transporter"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		h := &handlers.SignupHandler{Users: &fakeUsers{}, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"name":"Bo","email":"bo@x.io","password":"short","role":"customer"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		h := &handlers.SignupHandler{Users: &fakeUsers{createErr: repo.ErrEmailTaken}, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"name":"Bo","email":"bo@x.io","password":"longenough","role":"customer"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	user := models.User{ID: "u-1", Email: "ann@example.com", Role: models.RoleCustomer}

	t.Run("valid credentials", func(t *testing.T) {
		h := &handlers.LoginHandler{Users: &fakeUsers{byEmailUser: user, byEmailHash: hash}, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"email":"ann@example.com","password":"correct-horse"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		h := &handlers.LoginHandler{Users: &fakeUsers{byEmailUser: user, byEmailHash: hash}, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"email":"ann@example.com","password":"wrong"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		h := &handlers.LoginHandler{Users: &fakeUsers{byEmailErr: repo.ErrNotFound}, Tokens: tokens, Log: zerolog.Nop()}
		body := `{"email":"ghost@example.com","password":"whatever"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

type fakeProgresser struct {
	err  error
	last struct {
		orderID, transporterID string
		to                     models.OrderStatus
	}
}

func (f *fakeProgresser) Progress(ctx context.Context, orderID, transporterID string, to models.OrderStatus) error {
	f.last.orderID, f.last.transporterID, f.last.to = orderID, transporterID, to
	return f.err
}

func TestUpdateStatusHandler(t *testing.T) {
	cases := []struct {
		name   string
		status string
		err    error
		want   int
	}{
		{"ok", "picked_up", nil, http.StatusOK},
		{"illegal transition", "delivered", repo.ErrIllegalTransition, http.StatusConflict},
		{"not assigned", "in_transit", repo.ErrNotAssigned, http.StatusForbidden},
		{"not found", "in_transit", repo.ErrNotFound, http.StatusNotFound},
		{"invalid status", "cancelled", nil, http.StatusBadRequest},
		{"unknown status", "shipped", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeProgresser{err: tc.err}
			h := &handlers.UpdateStatusHandler{Orders: f, Log: zerolog.Nop()}
			req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"`+tc.status+`"}`))
			req = withURLParam(asTransporter(req, "t-1"), "id", "o-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "o-1", f.last.orderID)
				assert.Equal(t, "t-1", f.last.transporterID)
			}
		})
	}
}

type fakeCanceller struct{ err error }

func (f *fakeCanceller) Cancel(ctx context.Context, orderID, customerID, reason string) error {
	return f.err
}

func TestCancelOrderHandler(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"too late", repo.ErrNotCancellable, http.StatusConflict},
		{"not owner", repo.ErrNotOwner, http.StatusNotFound},
		{"not found", repo.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &handlers.CancelOrderHandler{Orders: &fakeCanceller{err: tc.err}, Log: zerolog.Nop()}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"changed my mind"}`))
			req = withURLParam(asCustomer(req, "c-1"), "id", "o-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

type fakeOrderReader struct {
	order  models.Order
	getErr error
	status string
}

func (f *fakeOrderReader) Get(ctx context.Context, orderID string) (models.Order, error) {
	return f.order, f.getErr
}

func (f *fakeOrderReader) GetStatus(ctx context.Context, orderID string) (string, error) {
	return f.status, nil
}

func TestGetOrderHandler(t *testing.T) {
	order := models.Order{ID: "o-1", CustomerID: "c-1", TransporterID: "t-1", Status: models.StatusPending}

	t.Run("owner sees order with cached status", func(t *testing.T) {
		f := &fakeOrderReader{order: order, status: "driver_assigned"}
		h := &handlers.GetOrderHandler{Orders: f, Status: f, Log: zerolog.Nop()}
		req := withURLParam(asCustomer(httptest.NewRequest(http.MethodGet, "/", nil), "c-1"), "id", "o-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got models.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, models.StatusDriverAssigned, got.Status)
	})

	t.Run("stranger gets 404", func(t *testing.T) {
		f := &fakeOrderReader{order: order}
		h := &handlers.GetOrderHandler{Orders: f, Status: f, Log: zerolog.Nop()}
		req := withURLParam(asCustomer(httptest.NewRequest(http.MethodGet, "/", nil), "someone-else"), "id", "o-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("assigned transporter sees order", func(t *testing.T) {
		f := &fakeOrderReader{order: order, status: "pending"}
		h := &handlers.GetOrderHandler{Orders: f, Status: f, Log: zerolog.Nop()}
		req := withURLParam(asTransporter(httptest.NewRequest(http.MethodGet, "/", nil), "t-1"), "id", "o-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
