package models

import "github.com/google/uuid"

// MonthlySummary is derived, never stored. All monetary fields are minor
// units. MealRate is minor units per meal and is for display only: member
// meal costs are computed with exact integer rounding, never from the rate.
type MonthlySummary struct {
	MessID           uuid.UUID       `json:"mess_id"`
	Month            string          `json:"month"`
	TotalServiceCost int64           `json:"total_service_cost"`
	TotalBazarCost   int64           `json:"total_bazar_cost"`
	TotalMeals       int             `json:"total_meals"`
	MealRate         float64         `json:"meal_rate"`
	Members          []MemberSummary `json:"members"` // roster order
}

type MemberSummary struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	ServiceShare int64     `json:"service_share"`
	HousePaid    int64     `json:"house_paid"`
	HouseBalance int64     `json:"house_balance"` // house_paid - service_share
	TotalMeals   int       `json:"total_meals"`
	MealCost     int64     `json:"meal_cost"`
	MealPaid     int64     `json:"meal_paid"`
	MealBalance  int64     `json:"meal_balance"` // meal_paid - meal_cost
}
