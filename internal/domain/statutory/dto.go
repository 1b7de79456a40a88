package statutory

import "github.com/shopspring/decimal"

type BracketResponse struct {
	UpTo *decimal.Decimal `json:"up_to"`
	Rate decimal.Decimal  `json:"rate"`
}

type TableResponse struct {
	Brackets    []BracketResponse `json:"brackets"`
	FixedAmount decimal.Decimal   `json:"fixed_amount"`
}

type BracketSetResponse struct {
	Version              string          `json:"version"`
	EffectiveFrom        string          `json:"effective_from"`
	EffectiveTo          *string         `json:"effective_to,omitempty"`
	Currency             string          `json:"currency"`
	MinimumWage          decimal.Decimal `json:"minimum_wage"`
	StandardMonthlyHours decimal.Decimal `json:"standard_monthly_hours"`
	ContributionA        TableResponse   `json:"contribution_a"`
	ContributionB        TableResponse   `json:"contribution_b"`
	IncomeTax            TableResponse   `json:"income_tax"`
}

func NewBracketSetResponse(s BracketSet) BracketSetResponse {
	resp := BracketSetResponse{
		Version:              s.Version,
		EffectiveFrom:        s.EffectiveFrom.Format("2006-01-02"),
		Currency:             s.Currency,
		MinimumWage:          s.MinimumWage,
		StandardMonthlyHours: s.StandardMonthlyHours,
		ContributionA:        newTableResponse(s.ContributionA),
		ContributionB:        newTableResponse(s.ContributionB),
		IncomeTax:            newTableResponse(s.IncomeTax),
	}
	if s.EffectiveTo != nil {
		to := s.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &to
	}
	return resp
}

func newTableResponse(t Table) TableResponse {
	brackets := make([]BracketResponse, 0, len(t.Brackets))
	for _, b := range t.Brackets {
		brackets = append(brackets, BracketResponse{UpTo: b.UpTo, Rate: b.Rate})
	}
	return TableResponse{Brackets: brackets, FixedAmount: t.FixedAmount}
}
