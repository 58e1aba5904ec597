// Package settlement turns one month's raw ledger records into a per-member
// balance sheet. It performs no I/O and holds no state: callers fetch the
// roster and ledgers, Compute does the arithmetic. Recomputing with the same
// inputs yields an identical summary.
package settlement

import (
	"sort"

	"mess-backend/models"

	"github.com/google/uuid"
)

// Inputs is one month's ledger state for a single mess. Cost and bazar
// slices may contain pending/rejected rows; Compute ignores everything that
// is not approved.
type Inputs struct {
	Roster   []models.Member
	Costs    []models.ServiceCost
	Bazar    []models.BazarEntry
	Meals    []models.MealLog
	Payments []models.Payment
}

// Compute builds the monthly summary. It never fails: an empty mess yields a
// zero-total summary with no member rows, and zero logged meals yield a zero
// meal rate. Every active member appears in the result even with no meals
// and no payments.
//
// House costs are split in integer minor units: base = total/n with the
// first total%n members in roster order receiving one extra unit, so shares
// always sum exactly to the total. Meal costs are proportional to each
// member's meal count, rounded half-up per member; the aggregate drift is
// bounded by half a minor unit per member and is accepted rather than
// redistributed.
func Compute(messID uuid.UUID, month string, in Inputs) models.MonthlySummary {
	roster := orderedRoster(in.Roster)

	summary := models.MonthlySummary{
		MessID:  messID,
		Month:   month,
		Members: make([]models.MemberSummary, 0, len(roster)),
	}

	for _, c := range in.Costs {
		if c.Status == models.StatusApproved {
			summary.TotalServiceCost += c.Amount
		}
	}
	for _, b := range in.Bazar {
		if b.Status == models.StatusApproved {
			summary.TotalBazarCost += b.Amount
		}
	}

	memberMeals := make(map[uuid.UUID]int)
	for _, m := range in.Meals {
		memberMeals[m.UserID] += m.MealCount
		summary.TotalMeals += m.MealCount
	}

	housePaid := make(map[uuid.UUID]int64)
	mealPaid := make(map[uuid.UUID]int64)
	for _, p := range in.Payments {
		switch p.Account {
		case models.AccountHouse:
			housePaid[p.UserID] += p.Amount
		case models.AccountMeal:
			mealPaid[p.UserID] += p.Amount
		}
	}

	if summary.TotalMeals > 0 {
		summary.MealRate = float64(summary.TotalBazarCost) / float64(summary.TotalMeals)
	}

	shares := SplitEqual(summary.TotalServiceCost, len(roster))

	for i, member := range roster {
		ms := models.MemberSummary{
			UserID:       member.UserID,
			Name:         member.Name,
			ServiceShare: shares[i],
			HousePaid:    housePaid[member.UserID],
			TotalMeals:   memberMeals[member.UserID],
			MealPaid:     mealPaid[member.UserID],
		}
		if summary.TotalMeals > 0 {
			ms.MealCost = ShareHalfUp(ms.TotalMeals, summary.TotalBazarCost, summary.TotalMeals)
		}
		ms.HouseBalance = ms.HousePaid - ms.ServiceShare
		ms.MealBalance = ms.MealPaid - ms.MealCost

		summary.Members = append(summary.Members, ms)
	}

	return summary
}

// orderedRoster sorts a copy of the roster by join time, then user ID, so
// remainder distribution is reproducible regardless of input order.
func orderedRoster(roster []models.Member) []models.Member {
	out := make([]models.Member, len(roster))
	copy(out, roster)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}
