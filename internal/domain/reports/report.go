// Package reports builds the segmented inventory report: a requested
// date range split into CLOSED segments served verbatim from closing
// snapshots and OPEN segments computed live from the ledger, with
// opening balances carried across segment boundaries.
package reports

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/store"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/closing"
	"fueldepot/internal/domain/ledger"
)

// PeriodType discriminates report segments.
type PeriodType string

const (
	PeriodClosed PeriodType = "CLOSED"
	PeriodOpen   PeriodType = "OPEN"
)

// Item is one tank's line inside a report segment. Loss fields are
// only populated for CLOSED segments; open periods carry no loss until
// they are closed.
type Item struct {
	TankID          id.ID            `json:"tankId"`
	TankCode        string           `json:"tankCode"`
	TankName        string           `json:"tankName"`
	ProductID       id.ID            `json:"productId"`
	ProductName     string           `json:"productName"`
	ProductCategory product.Category `json:"productCategory"`
	OpeningBalance  types.Quantity   `json:"openingBalance"`
	ImportQuantity  types.Quantity   `json:"importQuantity"`
	ExportQuantity  types.Quantity   `json:"exportQuantity"`
	LossRate        types.Rate       `json:"lossRate"`
	LossAmount      types.Quantity   `json:"lossAmount"`
	ClosingBalance  types.Quantity   `json:"closingBalance"`
}

// Period is one segment of the report.
type Period struct {
	Type        PeriodType `json:"periodType"`
	PeriodFrom  time.Time  `json:"periodFrom"`
	PeriodTo    time.Time  `json:"periodTo"`
	ClosingDate *time.Time `json:"closingDate,omitempty"`
	Items       []Item     `json:"items"`
}

// TankInfo is the tank directory attached to the report.
type TankInfo struct {
	TankID      id.ID            `json:"tankId"`
	TankCode    string           `json:"tankCode"`
	TankName    string           `json:"tankName"`
	ProductID   id.ID            `json:"productId"`
	ProductName string           `json:"productName"`
	Category    product.Category `json:"productCategory"`
	Capacity    types.Quantity   `json:"capacity"`
}

// Report is the segmented inventory report of one store.
type Report struct {
	StoreID   id.ID      `json:"storeId"`
	StoreName string     `json:"storeName"`
	FromDate  time.Time  `json:"fromDate"`
	ToDate    time.Time  `json:"toDate"`
	Periods   []Period   `json:"periods"`
	Tanks     []TankInfo `json:"tanks"`
}

// Reporter assembles segmented reports.
type Reporter struct {
	closings   closing.Repository
	entries    ledger.Repository
	calculator *ledger.Calculator
	stores     store.Repository
	tanks      tank.Repository
	products   product.Repository
}

// NewReporter constructs a reporter.
func NewReporter(
	closings closing.Repository,
	entries ledger.Repository,
	calculator *ledger.Calculator,
	stores store.Repository,
	tanks tank.Repository,
	products product.Repository,
) *Reporter {
	return &Reporter{
		closings:   closings,
		entries:    entries,
		calculator: calculator,
		stores:     stores,
		tanks:      tanks,
		products:   products,
	}
}

// closedGroup is the snapshots of one distinct closed period.
type closedGroup struct {
	periodFrom  time.Time
	periodTo    time.Time
	closingDate time.Time
	snapshots   []closing.Snapshot
}

// Build returns the report for [fromDate, toDate]. Closed periods
// intersecting the range appear verbatim; every day of the range not
// covered by a closed period falls into an OPEN segment computed from
// the ledger. Together the segments cover the range with no gap and no
// overlap.
func (r *Reporter) Build(ctx context.Context, storeID id.ID, fromDate, toDate time.Time) (*Report, error) {
	from := closing.Day(fromDate)
	to := closing.Day(toDate)
	if to.Before(from) {
		return nil, apperror.NewValidation("report end cannot precede report start").
			WithDetail("fromDate", from.Format(time.DateOnly)).
			WithDetail("toDate", to.Format(time.DateOnly))
	}
	st, err := r.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	tanks, err := r.tanks.ListByStore(ctx, storeID, true)
	if err != nil {
		return nil, err
	}
	tankInfos := make([]TankInfo, 0, len(tanks))
	prodNames := make(map[id.ID]*product.Product, len(tanks))
	for _, t := range tanks {
		prod, ok := prodNames[t.ProductID]
		if !ok {
			prod, err = r.products.GetByID(ctx, t.ProductID)
			if err != nil {
				return nil, err
			}
			prodNames[t.ProductID] = prod
		}
		tankInfos = append(tankInfos, TankInfo{
			TankID:      t.ID,
			TankCode:    t.TankCode,
			TankName:    t.Name,
			ProductID:   t.ProductID,
			ProductName: prod.Name,
			Category:    prod.Category,
			Capacity:    t.Capacity,
		})
	}

	groups, err := r.closedGroups(ctx, storeID, from, to)
	if err != nil {
		return nil, err
	}

	report := &Report{
		StoreID:   storeID,
		StoreName: st.Name,
		FromDate:  from,
		ToDate:    to,
		Periods:   []Period{},
		Tanks:     tankInfos,
	}

	// Walk the range, alternating OPEN gaps and CLOSED periods.
	cursor := from
	for i := range groups {
		g := &groups[i]
		if cursor.Before(g.periodFrom) {
			open, err := r.openPeriod(ctx, tanks, prodNames, cursor, g.periodFrom.AddDate(0, 0, -1))
			if err != nil {
				return nil, err
			}
			report.Periods = append(report.Periods, *open)
		}
		report.Periods = append(report.Periods, r.closedPeriod(g, tanks, prodNames))
		cursor = g.periodTo.AddDate(0, 0, 1)
	}
	if !cursor.After(to) {
		open, err := r.openPeriod(ctx, tanks, prodNames, cursor, to)
		if err != nil {
			return nil, err
		}
		report.Periods = append(report.Periods, *open)
	}
	return report, nil
}

// closedGroups loads and groups the store's snapshots whose periods
// intersect [from, to], ordered by period start.
func (r *Reporter) closedGroups(ctx context.Context, storeID id.ID, from, to time.Time) ([]closedGroup, error) {
	snapshots, err := r.closings.ListByStore(ctx, storeID, &from, &to)
	if err != nil {
		return nil, err
	}
	var groups []closedGroup
	for _, s := range snapshots {
		n := len(groups)
		if n == 0 || !groups[n-1].periodFrom.Equal(s.PeriodFrom) || !groups[n-1].periodTo.Equal(s.PeriodTo) {
			groups = append(groups, closedGroup{
				periodFrom:  s.PeriodFrom,
				periodTo:    s.PeriodTo,
				closingDate: s.ClosingDate,
			})
			n++
		}
		g := &groups[n-1]
		if s.ClosingDate.After(g.closingDate) {
			g.closingDate = s.ClosingDate
		}
		g.snapshots = append(g.snapshots, s)
	}
	return groups, nil
}

// closedPeriod renders one closed period verbatim from its snapshots.
func (r *Reporter) closedPeriod(g *closedGroup, tanks []tank.Tank, prods map[id.ID]*product.Product) Period {
	byTank := make(map[id.ID]*closing.Snapshot, len(g.snapshots))
	for i := range g.snapshots {
		byTank[g.snapshots[i].TankID] = &g.snapshots[i]
	}
	items := make([]Item, 0, len(tanks))
	for _, t := range tanks {
		s, ok := byTank[t.ID]
		if !ok {
			// Tank activated after this period was closed.
			continue
		}
		var prodName string
		if prod, ok := prods[t.ProductID]; ok {
			prodName = prod.Name
		}
		items = append(items, Item{
			TankID:          t.ID,
			TankCode:        t.TankCode,
			TankName:        t.Name,
			ProductID:       t.ProductID,
			ProductName:     prodName,
			ProductCategory: s.ProductCategory,
			OpeningBalance:  s.OpeningBalance,
			ImportQuantity:  s.ImportQuantity,
			ExportQuantity:  s.ExportQuantity,
			LossRate:        s.LossRate,
			LossAmount:      s.LossAmount,
			ClosingBalance:  s.ClosingBalance,
		})
	}
	closingDate := g.closingDate
	return Period{
		Type:        PeriodClosed,
		PeriodFrom:  g.periodFrom,
		PeriodTo:    g.periodTo,
		ClosingDate: &closingDate,
		Items:       items,
	}
}

// openPeriod computes a live segment over [gapFrom, gapTo]. For a tank
// whose previous period was closed before the closing day ended, the
// ledger window opens at the closing instant rather than at midnight,
// so entries booked on the closing day after the books were frozen are
// neither lost nor counted twice.
func (r *Reporter) openPeriod(ctx context.Context, tanks []tank.Tank, prods map[id.ID]*product.Product, gapFrom, gapTo time.Time) (*Period, error) {
	windowEnd := gapTo.AddDate(0, 0, 1)

	items := make([]Item, 0, len(tanks))
	for _, t := range tanks {
		var opening types.Quantity
		windowStart := gapFrom
		last, err := r.closings.FindLatestBefore(ctx, t.ID, gapFrom)
		switch {
		case err == nil:
			opening = last.ClosingBalance
			if last.ClosingDate.Before(gapFrom) {
				if last.PeriodTo.AddDate(0, 0, 1).Before(gapFrom) {
					// Older closing that does not abut the segment:
					// movement between the freeze and the segment start
					// belongs to the opening, not to this segment.
					pre, err := r.entries.SumForTankInPeriod(ctx, t.ID, last.ClosingDate, gapFrom)
					if err != nil {
						return nil, err
					}
					opening = opening.Add(pre.In).Sub(pre.Out)
				} else {
					windowStart = last.ClosingDate
				}
			}
		case apperror.IsNotFound(err):
			// Never closed: the opening cut and the ledger window
			// share the same instant, so no entry lands in both.
			opening, err = r.calculator.TankBalance(ctx, t.ID, &windowStart)
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		sums, err := r.entries.SumForTankInPeriod(ctx, t.ID, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		var prodName string
		var category product.Category
		if prod, ok := prods[t.ProductID]; ok {
			prodName = prod.Name
			category = prod.Category
		}
		items = append(items, Item{
			TankID:          t.ID,
			TankCode:        t.TankCode,
			TankName:        t.Name,
			ProductID:       t.ProductID,
			ProductName:     prodName,
			ProductCategory: category,
			OpeningBalance:  opening,
			ImportQuantity:  sums.In,
			ExportQuantity:  sums.Out,
			LossRate:        types.ZeroQuantity(),
			LossAmount:      types.ZeroQuantity(),
			ClosingBalance:  opening.Add(sums.In).Sub(sums.Out),
		})
	}
	return &Period{
		Type:       PeriodOpen,
		PeriodFrom: gapFrom,
		PeriodTo:   gapTo,
		Items:      items,
	}, nil
}
