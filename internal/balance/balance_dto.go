package balance

type ResetBalanceRequest struct {
	AnnualRemaining  *int `json:"annual_remaining" binding:"required,min=0"`
	AbsenceRemaining *int `json:"absence_remaining" binding:"required,min=0"`
}

type LedgerResponse struct {
	EmployeeID       string `json:"employee_id"`
	Year             int    `json:"year"`
	AnnualRemaining  int    `json:"annual_remaining"`
	AbsenceRemaining int    `json:"absence_remaining"`
	AnnualCeiling    int    `json:"annual_ceiling"`
	AbsenceCeiling   int    `json:"absence_ceiling"`
}

func mapToResponse(l Ledger) LedgerResponse {
	return LedgerResponse{
		EmployeeID:       l.EmployeeID.String(),
		Year:             l.Year,
		AnnualRemaining:  l.AnnualRemaining,
		AbsenceRemaining: l.AbsenceRemaining,
		AnnualCeiling:    l.AnnualCeiling,
		AbsenceCeiling:   l.AbsenceCeiling,
	}
}

func mapToListResponse(ledgers []Ledger) []LedgerResponse {
	resp := make([]LedgerResponse, len(ledgers))
	for i, l := range ledgers {
		resp[i] = mapToResponse(l)
	}
	return resp
}

// NewLedgerResponse exposes the ledger view for callers outside the package.
func NewLedgerResponse(l Ledger) LedgerResponse {
	return mapToResponse(l)
}
