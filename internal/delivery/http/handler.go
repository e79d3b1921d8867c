package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avasilenko/vending-machine/internal/domain"
	"github.com/avasilenko/vending-machine/internal/usecase"
)

type SelectRequest struct {
	ItemID int `json:"item_id"`
}

type InsertCoinRequest struct {
	Denomination string `json:"denomination"`
}

type ItemResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type SelectResponse struct {
	TransactionID string       `json:"transaction_id"`
	Item          ItemResponse `json:"item"`
}

type DepositResponse struct {
	TransactionID string   `json:"transaction_id"`
	State         string   `json:"state"`
	Inserted      string   `json:"inserted"`
	Owed          string   `json:"owed,omitempty"`
	Item          string   `json:"item,omitempty"`
	Change        []string `json:"change,omitempty"`
	Refunded      []string `json:"refunded,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type RefundResponse struct {
	Refunded []string `json:"refunded"`
}

type CoinStatusResponse struct {
	Denomination string `json:"denomination"`
	Count        int    `json:"count"`
	Subtotal     string `json:"subtotal"`
}

type CashierResponse struct {
	Coins []CoinStatusResponse `json:"coins"`
	Total string               `json:"total"`
}

type Handler struct {
	machine *usecase.Machine
}

func NewHandler(machine *usecase.Machine) *Handler {
	return &Handler{machine: machine}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/items", h.ListItems)
		r.Get("/items/{id}", h.DescribeItem)
		r.Get("/cashier", h.CashierStatus)

		r.Post("/vend/select", h.SelectItem)
		r.Post("/vend/coins", h.InsertCoin)
		r.Post("/vend/refund", h.Refund)

		r.Post("/stock/restock", h.Restock)
		r.Post("/stock/add", h.AddStock)
		r.Post("/stock/save", h.SaveStock)
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.machine.ListItems()
	resp := make([]ItemResponse, 0, len(items))
	for i, item := range items {
		resp = append(resp, itemResponse(i, item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) DescribeItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	item, err := h.machine.DescribeItem(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(id, item))
}

func (h *Handler) CashierStatus(w http.ResponseWriter, r *http.Request) {
	status := h.machine.CashierStatus()
	resp := CashierResponse{
		Coins: make([]CoinStatusResponse, 0, len(status.Coins)),
		Total: status.Total.String(),
	}
	for _, c := range status.Coins {
		resp.Coins = append(resp.Coins, CoinStatusResponse{
			Denomination: c.Denomination.String(),
			Count:        c.Count,
			Subtotal:     c.Subtotal.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SelectItem(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sel, err := h.machine.SelectItem(req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SelectResponse{
		TransactionID: sel.TransactionID,
		Item:          itemResponse(req.ItemID, sel.Item),
	})
}

func (h *Handler) InsertCoin(w http.ResponseWriter, r *http.Request) {
	var req InsertCoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.machine.InsertCoin(r.Context(), req.Denomination)
	if err != nil && !errors.Is(err, domain.ErrChangeUnavailable) {
		writeError(w, err)
		return
	}

	resp := DepositResponse{
		TransactionID: result.TransactionID,
		State:         string(result.State),
		Inserted:      result.Inserted.String(),
		Item:          result.Item,
		Change:        coinCodes(result.Change),
		Refunded:      coinCodes(result.Refunded),
	}
	if result.Owed > 0 {
		resp.Owed = result.Owed.String()
	}

	status := http.StatusOK
	if errors.Is(err, domain.ErrChangeUnavailable) {
		resp.Error = "exact change unavailable"
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	refunded, err := h.machine.Refund(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefundResponse{Refunded: coinCodes(refunded)})
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Restock(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.AddStock(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) SaveStock(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.SaveStock(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func itemResponse(id int, item domain.Item) ItemResponse {
	return ItemResponse{
		ID:    id,
		Name:  item.Name,
		Price: item.Price.String(),
		Stock: item.Stock,
	}
}

func coinCodes(coins []domain.Denomination) []string {
	codes := make([]string, 0, len(coins))
	for _, d := range coins {
		codes = append(codes, d.String())
	}
	return codes
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrItemOutOfStock):
		http.Error(w, "item is out of stock", http.StatusConflict)
	case errors.Is(err, domain.ErrUnknownDenomination):
		http.Error(w, "coin denomination is not accepted", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoTransaction):
		http.Error(w, "no transaction in progress", http.StatusConflict)
	case errors.Is(err, domain.ErrTransactionInProgress):
		http.Error(w, "a transaction is already in progress", http.StatusConflict)
	case errors.Is(err, domain.ErrMalformedStockSource):
		http.Error(w, "stock source is malformed", http.StatusInternalServerError)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
