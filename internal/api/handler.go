package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/clinic-stock/internal/domain/catalog"
	"github.com/Spok95/clinic-stock/internal/domain/ledger"
	"github.com/Spok95/clinic-stock/internal/domain/stock"
	"github.com/Spok95/clinic-stock/internal/domain/transfer"
	"github.com/Spok95/clinic-stock/internal/service/recorder"
)

// StockService is the recorder surface the movement endpoints need.
type StockService interface {
	StockIn(ctx context.Context, m recorder.StockIn) (*ledger.Movement, error)
	Usage(ctx context.Context, m recorder.Usage) (*ledger.Movement, error)
	Adjust(ctx context.Context, m recorder.Adjustment) (*ledger.Movement, error)
	Transfer(ctx context.Context, m recorder.Transfer) ([]ledger.Movement, error)
	ConfirmTransferRequest(ctx context.Context, requestID int64, actor recorder.Actor) ([]ledger.Movement, error)
}

// StockReader is the read surface behind the stock views.
type StockReader interface {
	ListByDepartment(ctx context.Context, departmentID int64) ([]stock.LocationStock, error)
	ListAll(ctx context.Context) ([]stock.LocationStock, error)
}

// CatalogStore is the catalog surface behind the item and department routes.
type CatalogStore interface {
	CreateItem(ctx context.Context, it catalog.Item) (*catalog.Item, error)
	GetItem(ctx context.Context, id int64) (*catalog.Item, error)
	ListItems(ctx context.Context, onlyActive bool) ([]catalog.Item, error)
	SearchItems(ctx context.Context, q string) ([]catalog.Item, error)
	UpdateItem(ctx context.Context, it catalog.Item) (*catalog.Item, error)
	SetItemActive(ctx context.Context, id int64, active bool) error
	CreateDepartment(ctx context.Context, name string, central bool) (*catalog.Department, error)
	GetDepartment(ctx context.Context, id int64) (*catalog.Department, error)
	UpdateDepartment(ctx context.Context, d catalog.Department) (*catalog.Department, error)
	ListDepartments(ctx context.Context, onlyActive bool) ([]catalog.Department, error)
	SetDepartmentActive(ctx context.Context, id int64, active bool) error
}

// MovementReader serves ledger queries.
type MovementReader interface {
	ListByItem(ctx context.Context, itemID int64, limit int) ([]ledger.Movement, error)
	ListByDepartment(ctx context.Context, departmentID int64, limit int) ([]ledger.Movement, error)
	ListRange(ctx context.Context, from, to time.Time) ([]ledger.Movement, error)
	ListByTransferGroup(ctx context.Context, group string) ([]ledger.Movement, error)
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	catalog   CatalogStore
	stocks    StockReader
	movements MovementReader
	transfers *transfer.Repo
	svc       StockService
	secret    string
	log       *slog.Logger
}

func New(cat CatalogStore, stocks StockReader, movements MovementReader, transfers *transfer.Repo, svc StockService, secret string, log *slog.Logger) *Handler {
	return &Handler{
		catalog:   cat,
		stocks:    stocks,
		movements: movements,
		transfers: transfers,
		svc:       svc,
		secret:    secret,
		log:       log,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.createItem)
			r.Get("/", h.listItems)
			r.Get("/search", h.searchItems)
			r.Get("/{id}", h.getItem)
			r.Put("/{id}", h.updateItem)
			r.Delete("/{id}", h.deactivateItem)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Post("/", h.createDepartment)
			r.Get("/", h.listDepartments)
			r.Get("/{id}", h.getDepartment)
			r.Put("/{id}", h.updateDepartment)
			r.Delete("/{id}", h.deactivateDepartment)
			r.Get("/{id}/stocks", h.departmentStocks)
		})

		r.Get("/stocks/overview", h.stockOverview)
		r.Get("/reports/inventory.xlsx", h.inventoryReport)

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", h.listMovements)
			r.Post("/stock-in", h.stockIn)
			r.Post("/usage", h.usage)
			r.Post("/adjustment", h.adjustment)
			r.Post("/transfer", h.transferMove)
		})

		r.Route("/transfer-requests", func(r chi.Router) {
			r.Post("/", h.createTransferRequest)
			r.Get("/", h.listTransferRequests)
			r.Post("/{id}/confirm", h.confirmTransferRequest)
		})
	})

	return r
}

/* Authentication */

type ctxKey string

const ctxIdentity ctxKey = "identity"

// Identity is what the auth provider asserts about the caller. The service
// never authenticates anyone itself; it only verifies and unpacks tokens.
type Identity struct {
	ActorID      string
	Name         string
	DepartmentID int64
	Overall      bool // may see every department's stock
}

type authClaims struct {
	Name         string `json:"name"`
	DepartmentID int64  `json:"department_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.Subject == "" {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		id := Identity{
			ActorID:      claims.Subject,
			Name:         claims.Name,
			DepartmentID: claims.DepartmentID,
			Overall:      claims.Role == "admin" || claims.Role == "overall",
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxIdentity, id)))
	})
}

func identityFrom(r *http.Request) Identity {
	id, _ := r.Context().Value(ctxIdentity).(Identity)
	return id
}

func (id Identity) actor() recorder.Actor {
	return recorder.Actor{ID: id.ActorID, Name: id.Name}
}

/* JSON helpers */

func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondMovementError maps recorder errors onto HTTP statuses. Every kind
// is recoverable at the client: retry, fix the request, or reconcile.
func (h *Handler) respondMovementError(w http.ResponseWriter, err error) {
	var partial *recorder.PartialTransferError
	switch {
	case errors.Is(err, recorder.ErrUnknownItem),
		errors.Is(err, recorder.ErrUnknownDepartment),
		errors.Is(err, recorder.ErrUnknownRequest):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, recorder.ErrInsufficientStock):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recorder.ErrDuplicateMovement):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recorder.ErrConcurrentModification):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &partial):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":         partial.Error(),
			"request_id":    partial.RequestID,
			"applied_items": partial.Applied,
			"failed_items":  failureDetails(partial.Failed),
		})
	default:
		h.log.Error("movement failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func failureDetails(failures []recorder.LineFailure) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(failures))
	for _, f := range failures {
		out = append(out, map[string]interface{}{"item_id": f.ItemID, "error": f.Err.Error()})
	}
	return out
}
