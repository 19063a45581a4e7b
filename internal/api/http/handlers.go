package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"storepos-backend/internal/domain"
	"storepos-backend/internal/service"
)

// Handler adapts HTTP requests onto the engine's services
type Handler struct {
	coordinator service.Coordinator
	rentals     service.RentalManager
	inventory   service.InventoryLedger
	stats       service.StatsService
}

func NewHandler(
	coordinator service.Coordinator,
	rentals service.RentalManager,
	inventory service.InventoryLedger,
	stats service.StatsService,
) *Handler {
	return &Handler{
		coordinator: coordinator,
		rentals:     rentals,
		inventory:   inventory,
		stats:       stats,
	}
}

type saleRequest struct {
	Items        []service.LineItem `json:"items"`
	CouponCode   string             `json:"coupon_code,omitempty"`
	Jurisdiction string             `json:"jurisdiction,omitempty"`
}

type rentalRequest struct {
	PhoneNumber string             `json:"phone_number"`
	Items       []service.LineItem `json:"items"`
	RentalDate  string             `json:"rental_date,omitempty"` // YYYY-MM-DD
}

type returnRequest struct {
	RentalID int64 `json:"rental_id"`
}

type rentalResponse struct {
	Rental      *domain.Rental      `json:"rental"`
	Rentals     []domain.Rental     `json:"rentals"`
	Transaction *domain.Transaction `json:"transaction"`
	Customer    *domain.Customer    `json:"customer"`
}

type lateFeeResponse struct {
	RentalID int64  `json:"rental_id"`
	LateFee  string `json:"late_fee"`
}

type rentalListResponse struct {
	Rentals []domain.Rental `json:"rentals"`
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.coordinator.CreateSale(r.Context(), service.SaleCommand{
		Items:        req.Items,
		EmployeeID:   EmployeeIDFromContext(r.Context()),
		CouponCode:   req.CouponCode,
		Jurisdiction: req.Jurisdiction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req rentalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var rentalDate time.Time
	if req.RentalDate != "" {
		d, err := time.Parse("2006-01-02", req.RentalDate)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: rental_date must be YYYY-MM-DD", domain.ErrInvalidRequest))
			return
		}
		rentalDate = d
	}

	result, err := h.coordinator.CreateRental(r.Context(), service.RentalCommand{
		PhoneNumber: req.PhoneNumber,
		Items:       req.Items,
		RentalDate:  rentalDate,
		EmployeeID:  EmployeeIDFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rentalResponse{
		Rental:      result.Rental,
		Rentals:     result.Rentals,
		Transaction: result.Transaction,
		Customer:    result.Customer,
	})
}

func (h *Handler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.RentalID <= 0 {
		writeError(w, r, fmt.Errorf("%w: rental_id is required", domain.ErrInvalidRequest))
		return
	}

	result, err := h.coordinator.ProcessReturn(r.Context(), req.RentalID, EmployeeIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.coordinator.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.rentals.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *Handler) GetLateFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fee, err := h.rentals.CalculateLateFee(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lateFeeResponse{RentalID: id, LateFee: fee.StringFixed(2)})
}

func (h *Handler) ListOutstandingRentals(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidRequest))
			return
		}
		limit = n
	}
	rentals, err := h.rentals.ListOutstanding(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalListResponse{Rentals: rentals})
}

func (h *Handler) ListCustomerRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.rentals.ListOutstandingByCustomer(r.Context(), mux.Vars(r)["phone"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalListResponse{Rentals: rentals})
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quantity := 1
	if v := r.URL.Query().Get("quantity"); v != "" {
		if quantity, err = strconv.Atoi(v); err != nil {
			writeError(w, r, fmt.Errorf("%w: quantity must be an integer", domain.ErrInvalidRequest))
			return
		}
	}
	avail, err := h.inventory.CheckAvailability(r.Context(), id, quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidRequest, raw)
	}
	return id, nil
}
