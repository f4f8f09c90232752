// README: Wire shape of the user mobility summary returned by the pass service.
package usersummary

// Summary mirrors GET /api/users/summary/{keycloakId}. Amounts arrive as floats and
// are converted to fixed point by the pricing module before use.
type Summary struct {
	KeycloakID         string  `json:"keycloakId"`
	FirstName          string  `json:"firstName"`
	LastName           string  `json:"lastName"`
	Email              string  `json:"email"`
	HasActivePass      bool    `json:"hasActivePass"`
	PassType           string  `json:"passType"`
	PassStatus         string  `json:"passStatus"`
	DailyCap           float64 `json:"dailyCap"`
	CurrentSpent       float64 `json:"currentSpent"`
	ActiveDiscountRate float64 `json:"activeDiscountRate"`
}
