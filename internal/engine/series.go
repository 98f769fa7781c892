package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
)

// DayLayout is the format of model.DailyPoint.Day.
const DayLayout = "2006-01-02"

// DailySeries aggregates the ledger into one row per (currency, day) with
// days bucketed in the engine's location. currencyID may be empty for all
// currencies. Rows are ordered by currency id, then day.
//
// Delta is the net of every user's points that day; Total is the running
// sum; ChangeRate is (Total - previous Total) / previous Total and is nil on
// a currency's first day or when the previous total is zero.
func (e *Engine) DailySeries(ctx context.Context, economyID, currencyID string) (_ []model.DailyPoint, err error) {
	defer e.observe(ctx, "daily_series", time.Now(), &err)

	if err := e.requireEconomy(ctx, &e.store.Queries, economyID); err != nil {
		return nil, err
	}
	if currencyID != "" {
		if _, err := e.readCurrency(ctx, economyID, currencyID); err != nil {
			return nil, err
		}
	}

	// Replay yields created_at order, so each currency's days arrive sorted.
	byCurrency := make(map[string][]model.DailyPoint)
	err = e.store.ReplayActivities(ctx, economyID, currencyID, func(a model.Activity) error {
		day := a.CreatedAt.In(e.location).Format(DayLayout)
		points := byCurrency[a.CurrencyID]
		if n := len(points); n > 0 && points[n-1].Day == day {
			points[n-1].Delta = points[n-1].Delta.Add(a.Points)
			return nil
		}
		byCurrency[a.CurrencyID] = append(points, model.DailyPoint{
			CurrencyID: a.CurrencyID,
			Day:        day,
			Delta:      a.Points,
		})
		return nil
	})
	if err != nil {
		return nil, storeError("daily series", err)
	}

	ids := make([]string, 0, len(byCurrency))
	for id := range byCurrency {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := []model.DailyPoint{}
	for _, id := range ids {
		total := decimal.Zero
		for i, p := range byCurrency[id] {
			prev := total
			total = total.Add(p.Delta)
			p.Total = total
			if i > 0 && !prev.IsZero() {
				rate := total.Sub(prev).DivRound(prev, RatePrecision)
				p.ChangeRate = &rate
			}
			out = append(out, p)
		}
	}
	return out, nil
}
