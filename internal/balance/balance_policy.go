package balance

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Bonus struct {
	Annual  int
	Absence int
}

// PolicyTable derives the yearly allotments of an employee from role and
// grade: (base + role bonus) × grade multiplier, rounded up, then capped.
type PolicyTable struct {
	BaseAnnual      int
	BaseAbsence     int
	RoleBonus       map[string]Bonus
	GradeMultiplier map[string]decimal.Decimal
	CapAnnual       int
	CapAbsence      int
}

type Allotment struct {
	Annual  int
	Absence int
}

func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		BaseAnnual:  30,
		BaseAbsence: 15,
		RoleBonus: map[string]Bonus{
			"admin": {Annual: 5, Absence: 3},
			"rh":    {Annual: 3, Absence: 2},
		},
		GradeMultiplier: map[string]decimal.Decimal{
			"A1": decimal.RequireFromString("1.20"),
			"A2": decimal.RequireFromString("1.15"),
			"B1": decimal.RequireFromString("1.10"),
			"B2": decimal.RequireFromString("1.05"),
		},
		CapAnnual:  45,
		CapAbsence: 25,
	}
}

func (p PolicyTable) Allotment(role, grade string) Allotment {
	multiplier := decimal.NewFromInt(1)
	if m, ok := p.GradeMultiplier[strings.ToUpper(strings.TrimSpace(grade))]; ok {
		multiplier = m
	}
	bonus := p.RoleBonus[strings.ToLower(strings.TrimSpace(role))]

	return Allotment{
		Annual:  scale(p.BaseAnnual+bonus.Annual, multiplier, p.CapAnnual),
		Absence: scale(p.BaseAbsence+bonus.Absence, multiplier, p.CapAbsence),
	}
}

func scale(base int, multiplier decimal.Decimal, limit int) int {
	v := int(decimal.NewFromInt(int64(base)).Mul(multiplier).Ceil().IntPart())
	if limit > 0 && v > limit {
		return limit
	}
	return v
}
