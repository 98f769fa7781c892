package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// memberAdder is implemented by memberships that can grow at runtime.
type memberAdder interface {
	Add(economyID, userID string)
}

type createEconomyBody struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateEconomy(w http.ResponseWriter, r *http.Request) {
	var body createEconomyBody
	if !decodeJSON(w, r, &body) {
		return
	}
	econ, err := s.eng.CreateEconomy(r.Context(), body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if m, ok := s.members.(memberAdder); ok {
		m.Add(econ.ID, userFrom(r))
	}
	writeOK(w, http.StatusCreated, econ)
}

// handleListEconomies lists the economies the caller belongs to.
func (s *Server) handleListEconomies(w http.ResponseWriter, r *http.Request) {
	all, err := s.eng.ListEconomies(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user := userFrom(r)
	visible := make([]model.Economy, 0, len(all))
	for _, econ := range all {
		if s.members.IsMember(econ.ID, user) {
			visible = append(visible, econ)
		}
	}
	writeOK(w, http.StatusOK, visible)
}

func (s *Server) handleGetEconomy(w http.ResponseWriter, r *http.Request) {
	econ, err := s.eng.GetEconomy(r.Context(), mux.Vars(r)["economy"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, econ)
}

// Currencies

type createCurrencyBody struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rules  string `json:"rules"`
	Color  string `json:"color"`
}

type updateCurrencyBody struct {
	Rules *string `json:"rules"`
	Color *string `json:"color"`
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	list, err := s.eng.ListCurrencies(r.Context(), mux.Vars(r)["economy"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var body createCurrencyBody
	if !decodeJSON(w, r, &body) {
		return
	}
	c, err := s.eng.CreateCurrency(r.Context(), engine.CurrencyInput{
		EconomyID: mux.Vars(r)["economy"],
		Name:      body.Name,
		Symbol:    body.Symbol,
		Rules:     body.Rules,
		Color:     body.Color,
		CreatedBy: userFrom(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, c)
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := s.eng.GetCurrency(r.Context(), vars["economy"], vars["currency"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCurrency(w http.ResponseWriter, r *http.Request) {
	var body updateCurrencyBody
	if !decodeJSON(w, r, &body) {
		return
	}
	vars := mux.Vars(r)
	c, err := s.eng.UpdateCurrency(r.Context(), vars["economy"], vars["currency"], engine.CurrencyUpdate{
		Rules: body.Rules,
		Color: body.Color,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, c)
}

// Balances and reporting

type balanceView struct {
	UserID     string          `json:"user_id"`
	CurrencyID string          `json:"currency_id"`
	Balance    decimal.Decimal `json:"balance"`
}

// handleBalances returns every currency balance for ?user=, defaulting to
// the caller.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	user := queryOr(r, "user", userFrom(r))
	balances, err := s.eng.Balances(r.Context(), mux.Vars(r)["economy"], user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user_id": user, "balances": balances})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := model.BalanceKey{
		EconomyID:  vars["economy"],
		UserID:     queryOr(r, "user", userFrom(r)),
		CurrencyID: vars["currency"],
	}
	bal, err := s.eng.GetBalance(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, balanceView{UserID: key.UserID, CurrencyID: key.CurrencyID, Balance: bal})
}

// handleSeries returns the daily feed, optionally narrowed by ?currency=.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	points, err := s.eng.DailySeries(r.Context(), mux.Vars(r)["economy"], r.URL.Query().Get("currency"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(points))
}

// Activities

type recordActivityBody struct {
	CurrencyID  string          `json:"currency_id"`
	Description string          `json:"description"`
	Points      decimal.Decimal `json:"points"`
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}
	list, err := s.eng.ListActivities(r.Context(), store.ActivityFilter{
		EconomyID:  mux.Vars(r)["economy"],
		CurrencyID: q.Get("currency"),
		UserID:     q.Get("user"),
		Limit:      limit,
		Newest:     q.Get("newest") == "true",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var body recordActivityBody
	if !decodeJSON(w, r, &body) {
		return
	}
	a, err := s.eng.RecordActivity(r.Context(), engine.ActivityInput{
		EconomyID:   mux.Vars(r)["economy"],
		CurrencyID:  body.CurrencyID,
		UserID:      userFrom(r),
		Description: body.Description,
		Points:      body.Points,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, a)
}

// Buttons

type buttonBody struct {
	CurrencyID string          `json:"currency_id"`
	Label      string          `json:"label"`
	Points     decimal.Decimal `json:"points"`
	Color      string          `json:"color"`
}

func (s *Server) handleListButtons(w http.ResponseWriter, r *http.Request) {
	list, err := s.eng.ListButtons(r.Context(), mux.Vars(r)["economy"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateButton(w http.ResponseWriter, r *http.Request) {
	var body buttonBody
	if !decodeJSON(w, r, &body) {
		return
	}
	b, err := s.eng.CreateButton(r.Context(), engine.ButtonInput{
		EconomyID:  mux.Vars(r)["economy"],
		CurrencyID: body.CurrencyID,
		Label:      body.Label,
		Points:     body.Points,
		Color:      body.Color,
		CreatedBy:  userFrom(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateButton(w http.ResponseWriter, r *http.Request) {
	var body buttonBody
	if !decodeJSON(w, r, &body) {
		return
	}
	vars := mux.Vars(r)
	b, err := s.eng.UpdateButton(r.Context(), vars["economy"], vars["button"], engine.ButtonUpdate{
		CurrencyID: body.CurrencyID,
		Label:      body.Label,
		Points:     body.Points,
		Color:      body.Color,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, b)
}

func (s *Server) handleDeleteButton(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.eng.DeleteButton(r.Context(), vars["economy"], vars["button"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]string{"deleted": vars["button"]})
}

func (s *Server) handlePressButton(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a, err := s.eng.PressButton(r.Context(), vars["economy"], vars["button"], userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, a)
}

// Transfers

type createTransferBody struct {
	CurrencyID string          `json:"currency_id"`
	ToUser     string          `json:"to_user"`
	Amount     decimal.Decimal `json:"amount"`
	Memo       string          `json:"memo"`
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.eng.ListTransfers(r.Context(), store.TransferFilter{
		EconomyID: mux.Vars(r)["economy"],
		UserID:    q.Get("user"),
		Status:    model.TransferStatus(q.Get("status")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(list))
}

// handleCreateTransfer always sends from the caller.
func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var body createTransferBody
	if !decodeJSON(w, r, &body) {
		return
	}
	t, err := s.eng.CreateTransfer(r.Context(), engine.TransferInput{
		EconomyID:  mux.Vars(r)["economy"],
		CurrencyID: body.CurrencyID,
		FromUser:   userFrom(r),
		ToUser:     body.ToUser,
		Amount:     body.Amount,
		Memo:       body.Memo,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, t)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	t, err := s.eng.GetTransfer(r.Context(), vars["economy"], vars["request"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) handleTransferAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ctx, econ, id, actor := r.Context(), vars["economy"], vars["request"], userFrom(r)

	var (
		t   model.TransferRequest
		err error
	)
	switch vars["action"] {
	case "accept":
		t, err = s.eng.AcceptTransfer(ctx, econ, id, actor)
	case "reject":
		t, err = s.eng.RejectTransfer(ctx, econ, id, actor)
	case "cancel":
		t, err = s.eng.CancelTransfer(ctx, econ, id, actor)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

// Exchanges

type createExchangeBody struct {
	FromCurrencyID string          `json:"from_currency_id"`
	ToCurrencyID   string          `json:"to_currency_id"`
	AmountFrom     decimal.Decimal `json:"amount_from"`
}

type submitRateBody struct {
	Rate decimal.Decimal `json:"rate"`
}

func (s *Server) handleListExchanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.eng.ListExchanges(r.Context(), store.ExchangeFilter{
		EconomyID: mux.Vars(r)["economy"],
		CreatedBy: q.Get("user"),
		Status:    model.ExchangeStatus(q.Get("status")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreateExchange(w http.ResponseWriter, r *http.Request) {
	var body createExchangeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	x, err := s.eng.CreateExchange(r.Context(), engine.ExchangeInput{
		EconomyID:      mux.Vars(r)["economy"],
		FromCurrencyID: body.FromCurrencyID,
		ToCurrencyID:   body.ToCurrencyID,
		AmountFrom:     body.AmountFrom,
		CreatedBy:      userFrom(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, x)
}

func (s *Server) handleGetExchange(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	x, err := s.eng.GetExchange(r.Context(), vars["economy"], vars["request"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, x)
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	subs, err := s.eng.ListRateSubmissions(r.Context(), vars["economy"], vars["request"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nonNil(subs))
}

func (s *Server) handleSubmitRate(w http.ResponseWriter, r *http.Request) {
	var body submitRateBody
	if !decodeJSON(w, r, &body) {
		return
	}
	vars := mux.Vars(r)
	sub, err := s.eng.SubmitRate(r.Context(), vars["economy"], vars["request"], userFrom(r), body.Rate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, sub)
}

func (s *Server) handleFinalizeExchange(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	x, err := s.eng.FinalizeExchange(r.Context(), vars["economy"], vars["request"], userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, x)
}

func (s *Server) handleCancelExchange(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	x, err := s.eng.CancelExchange(r.Context(), vars["economy"], vars["request"], userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, x)
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeFailure(w, http.StatusBadRequest, CodeBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
