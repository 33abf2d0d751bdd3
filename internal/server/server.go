// Package server exposes the tadweer API and the guarded dashboard pages
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tadweer/internal/analytics"
	"tadweer/internal/config"
	"tadweer/internal/deliveries"
	"tadweer/internal/domain"
	"tadweer/internal/events"
	"tadweer/internal/identity"
	"tadweer/internal/orders"
	"tadweer/internal/rewards"
	"tadweer/internal/storage"
	"tadweer/internal/workflow"
)

// Config for the HTTP handler.
type Config struct {
	Store    *orders.Store
	Ledger   *rewards.Ledger
	Tracker  *deliveries.Tracker
	Events   events.Writer
	App      *config.Config
	Picker   workflow.LocationPicker
	Auth     AuthConfig
	BasePath string
	Log      *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"order not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the tadweer API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.App == nil {
		cfg.App = config.Default()
	}
	if cfg.Picker == nil {
		cfg.Picker = workflow.DefaultPicker()
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newSessionMiddleware(cfg.Auth))
	hcfg := huma.DefaultConfig("Tadweer API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerSession(group, cfg)
	registerOrders(group, cfg)
	registerWorkflows(group, cfg)
	registerAnalytics(group, cfg)
	registerDeliveries(group, cfg)
	registerRewards(group, cfg)
	registerEvents(group, cfg)
	registerPages(router, cfg)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, rewards.ErrUnknownReward):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, rewards.ErrUnknownContainer):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, rewards.ErrBadQuantity):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, rewards.ErrInsufficientPoints):
		return newAPIError(http.StatusConflict, "insufficient_points", err.Error(), nil)
	case errors.Is(err, workflow.ErrNotReady):
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "not found") {
		return newAPIError(http.StatusNotFound, "not_found", msg, nil)
	}
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func fieldErrorResponse(errs workflow.FieldErrors) huma.StatusError {
	fields := map[string]any{}
	for k, v := range errs {
		fields[k] = v
	}
	return newAPIError(http.StatusUnprocessableEntity, "validation_failed", "form validation failed", map[string]any{"fields": fields})
}

func resolveLocation(ctx context.Context, picker workflow.LocationPicker, in LocationInput) (*domain.Location, huma.StatusError) {
	if in.Address != "" {
		return &domain.Location{Lat: in.Lat, Lng: in.Lng, Address: in.Address}, nil
	}
	if in.Query != "" {
		loc, ok := picker.PickLocation(ctx, in.Query)
		if !ok {
			return nil, newAPIError(http.StatusUnprocessableEntity, "validation_failed", "no location matches the query", map[string]any{"query": in.Query})
		}
		return &loc, nil
	}
	return nil, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerSession(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "sign-in",
		Method:      http.MethodPost,
		Path:        "/session/sign-in",
		Summary:     "Sign in and receive a session token",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SignInRequest `json:"body"`
	}) (*struct {
		Body TokenResponse `json:"body"`
	}, error) {
		if input.Body.ID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "id is required", nil)
		}
		token, err := cfg.Auth.Tokens.Issue(input.Body.ID, input.Body.Name, nil)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TokenResponse `json:"body"`
		}{Body: TokenResponse{Token: token}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session",
		Method:      http.MethodGet,
		Path:        "/session",
		Summary:     "Current session state",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		u := userFromContext(ctx)
		resp := SessionResponse{Loaded: u.IsLoaded, SignedIn: u.IsSignedIn, Name: u.Name}
		if u.IsSignedIn {
			resp.Role = domain.ParseRole(u.Metadata[identity.MetadataRoleKey])
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-role",
		Method:      http.MethodPost,
		Path:        "/session/role",
		Summary:     "Choose the session role",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body SetRoleRequest `json:"body"`
	}) (*struct {
		Body TokenResponse `json:"body"`
	}, error) {
		u, authErr := requireUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		role := domain.ParseRole(input.Body.Role)
		if role == domain.RoleUnset {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown role %q", input.Body.Role), nil)
		}
		meta := map[string]string{}
		for k, v := range u.Metadata {
			meta[k] = v
		}
		meta[identity.MetadataRoleKey] = role
		token, err := cfg.Auth.Tokens.Issue(u.ID, u.Name, meta)
		if err != nil {
			return nil, handleError(err)
		}
		if err := cfg.Events.Append(ctx, "role.updated", "user", u.ID, u.ID, events.EventPayload{"role": role}); err != nil {
			cfg.Log.Warn("append event failed", zap.Error(err))
		}
		return &struct {
			Body TokenResponse `json:"body"`
		}{Body: TokenResponse{Token: token}}, nil
	})
}

func registerOrders(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        "/orders",
		Summary:     "List orders newest first",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
		Search string `query:"search"`
	}) (*struct {
		Body []domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		list := analytics.Filter(cfg.Store.List(), input.Status, input.Search)
		if list == nil {
			list = []domain.Order{}
		}
		return &struct {
			Body []domain.Order `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-order",
		Method:        http.MethodPost,
		Path:          "/orders",
		Summary:       "Submit a purchase order",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnauthorized, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CreateOrderRequest `json:"body"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		loc, locErr := resolveLocation(ctx, cfg.Picker, input.Body.Location)
		if locErr != nil {
			return nil, locErr
		}
		form := workflow.NewOrderForm(cfg.App.Orders.Volumes, nil)
		form.Volume = input.Body.Volume
		form.CollectionDate = input.Body.CollectionDate
		form.SetLocation(loc)
		for !form.FinalStep() {
			if errs := form.Next(); errs != nil {
				return nil, fieldErrorResponse(errs)
			}
		}
		o, errs, err := form.Submit(ctx, cfg.Store)
		if errs != nil {
			return nil, fieldErrorResponse(errs)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/orders/{id}",
		Summary:     "Get order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		o, ok := cfg.Store.GetByID(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "order not found", nil)
		}
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-order",
		Method:      http.MethodPatch,
		Path:        "/orders/{id}",
		Summary:     "Update order fields",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body UpdateOrderRequest `json:"body"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		if input.Body.Status != nil && !domain.ValidStatus(*input.Body.Status) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", *input.Body.Status), nil)
		}
		res := cfg.Store.Update(ctx, input.ID, orders.OrderPatch{
			Volume:         input.Body.Volume,
			CollectionDate: input.Body.CollectionDate,
			Location:       input.Body.Location,
			Status:         input.Body.Status,
			Notes:          input.Body.Notes,
			CustomerNotes:  input.Body.CustomerNotes,
			EstimatedTime:  input.Body.EstimatedTime,
			AssignedDriver: input.Body.AssignedDriver,
		})
		if res == orders.NotFound {
			return nil, newAPIError(http.StatusNotFound, "not_found", "order not found", nil)
		}
		o, _ := cfg.Store.GetByID(input.ID)
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-order-status",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/status",
		Summary:     "Set order status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body SetStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		if !domain.ValidStatus(input.Body.Status) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", input.Body.Status), nil)
		}
		if cfg.Store.UpdateStatus(ctx, input.ID, input.Body.Status, input.Body.Note) == orders.NotFound {
			return nil, newAPIError(http.StatusNotFound, "not_found", "order not found", nil)
		}
		o, _ := cfg.Store.GetByID(input.ID)
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-order",
		Method:      http.MethodDelete,
		Path:        "/orders/{id}",
		Summary:     "Delete order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		if cfg.Store.Delete(ctx, input.ID) == orders.NotFound {
			return nil, newAPIError(http.StatusNotFound, "not_found", "order not found", nil)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-orders",
		Method:      http.MethodDelete,
		Path:        "/orders",
		Summary:     "Clear all orders",
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		if err := cfg.Store.Clear(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerWorkflows(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "request-collection",
		Method:        http.MethodPost,
		Path:          "/collections",
		Summary:       "Submit a collection request",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnauthorized, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		Body CollectionRequestBody `json:"body"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		loc, locErr := resolveLocation(ctx, cfg.Picker, input.Body.Location)
		if locErr != nil {
			return nil, locErr
		}
		form := workflow.NewCollectionRequest(cfg.App.Collection.ContainerSizes, cfg.App.Collection.TimeSlots, nil)
		form.ContainerSize = input.Body.ContainerSize
		form.Quantity = input.Body.Quantity
		form.Phone = input.Body.Phone
		form.Date = input.Body.Date
		form.TimeSlot = input.Body.TimeSlot
		form.Notes = input.Body.Notes
		form.SetLocation(loc)
		if errs := form.Next(); errs != nil {
			return nil, fieldErrorResponse(errs)
		}
		o, errs, err := form.Submit(ctx, cfg.Store)
		if errs != nil {
			return nil, fieldErrorResponse(errs)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})
}

func registerAnalytics(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "analytics-summary",
		Method:      http.MethodGet,
		Path:        "/analytics/summary",
		Summary:     "Order totals and efficiency",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body analytics.Summary `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body analytics.Summary `json:"body"`
		}{Body: analytics.Summarize(cfg.Store.List())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analytics-monthly",
		Method:      http.MethodGet,
		Path:        "/analytics/monthly",
		Summary:     "Monthly collected volume",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []analytics.MonthBucket `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		buckets := analytics.MonthlyVolume(cfg.Store.List())
		if buckets == nil {
			buckets = []analytics.MonthBucket{}
		}
		return &struct {
			Body []analytics.MonthBucket `json:"body"`
		}{Body: buckets}, nil
	})
}

func registerDeliveries(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "schedule-pickup",
		Method:      http.MethodPost,
		Path:        "/orders/{id}/schedule",
		Summary:     "Assign a driver and schedule the pickup",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Order `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		o, err := cfg.Tracker.Schedule(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Order `json:"body"`
		}{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-deliveries",
		Method:      http.MethodGet,
		Path:        "/deliveries",
		Summary:     "Active and completed deliveries",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Delivery `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		list := cfg.Tracker.List()
		if list == nil {
			list = []domain.Delivery{}
		}
		return &struct {
			Body []domain.Delivery `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-delivery",
		Method:      http.MethodGet,
		Path:        "/deliveries/{id}",
		Summary:     "Delivery status for an order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Delivery `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		d, ok := cfg.Tracker.Get(input.ID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "delivery not found", nil)
		}
		return &struct {
			Body domain.Delivery `json:"body"`
		}{Body: d}, nil
	})
}

func registerRewards(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rewards",
		Method:      http.MethodGet,
		Path:        "/rewards",
		Summary:     "Reward catalog",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Reward `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body []domain.Reward `json:"body"`
		}{Body: cfg.Ledger.Catalog()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "points",
		Method:      http.MethodGet,
		Path:        "/points",
		Summary:     "Points balance and ledger",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body PointsResponse `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		entries := cfg.Ledger.Entries()
		if entries == nil {
			entries = []domain.LedgerEntry{}
		}
		return &struct {
			Body PointsResponse `json:"body"`
		}{Body: PointsResponse{Balance: cfg.Ledger.Balance(), Entries: entries}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "redeem-reward",
		Method:      http.MethodPost,
		Path:        "/rewards/{id}/redeem",
		Summary:     "Redeem a reward",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body RedeemResponse `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		reward, err := cfg.Ledger.Redeem(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RedeemResponse `json:"body"`
		}{Body: RedeemResponse{Reward: reward, Balance: cfg.Ledger.Balance()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "leaderboard",
		Method:      http.MethodGet,
		Path:        "/leaderboard",
		Summary:     "Community recycling leaderboard",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.LeaderboardEntry `json:"body"`
	}, error) {
		u, authErr := requireUser(ctx)
		if authErr != nil {
			return nil, authErr
		}
		name := u.Name
		if name == "" {
			name = "You"
		}
		return &struct {
			Body []domain.LeaderboardEntry `json:"body"`
		}{Body: cfg.Ledger.Leaderboard(cfg.App.LeaderboardSeeds(), name)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-containers",
		Method:      http.MethodGet,
		Path:        "/containers",
		Summary:     "Container catalog",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Container `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body []domain.Container `json:"body"`
		}{Body: cfg.App.ContainerCatalog()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "quote-containers",
		Method:      http.MethodPost,
		Path:        "/containers/quote",
		Summary:     "Price a container purchase",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body QuoteRequest `json:"body"`
	}) (*struct {
		Body rewards.ContainerQuote `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		q, err := rewards.QuoteContainers(cfg.App.ContainerCatalog(), input.Body.Items)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body rewards.ContainerQuote `json:"body"`
		}{Body: q}, nil
	})
}

func registerEvents(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Audit log tail",
	}, func(ctx context.Context, input *struct {
		Limit int    `query:"limit" default:"50"`
		Type  string `query:"type"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		if _, authErr := requireUser(ctx); authErr != nil {
			return nil, authErr
		}
		list, err := cfg.Events.Latest(ctx, input.Limit, input.Type, "", "")
		if err != nil {
			return nil, handleError(err)
		}
		if list == nil {
			list = []domain.Event{}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: list}, nil
	})
}
