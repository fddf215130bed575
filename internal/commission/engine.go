// Package commission computes commission amounts from a user's role and tenure,
// a customer's prices and lead source, and the user's team.
package commission

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/domain"
)

// Input is everything the rule set needs to price one (user, customer) pair.
type Input struct {
	Role              domain.Role
	TenureMonths      int
	LeadSource        domain.LeadSource
	InitialScopePrice decimal.Decimal
	TotalJobPrice     decimal.Decimal
	TeamSalesmen      int
	TeamSupplementers int
}

// Margin is the amount the job grew beyond its initial scope.
func (in Input) Margin() decimal.Decimal {
	return in.TotalJobPrice.Sub(in.InitialScopePrice)
}

var (
	pct1  = decimal.RequireFromString("0.01")
	pct2  = decimal.RequireFromString("0.02")
	pct3  = decimal.RequireFromString("0.03")
	pct4  = decimal.RequireFromString("0.04")
	pct5  = decimal.RequireFromString("0.05")
	pct6  = decimal.RequireFromString("0.06")
	pct7  = decimal.RequireFromString("0.07")
	pct8  = decimal.RequireFromString("0.08")
	pct10 = decimal.RequireFromString("0.10")
	pct12 = decimal.RequireFromString("0.12")
	pct15 = decimal.RequireFromString("0.15")

	supplementManagerFloor     = decimal.NewFromInt(500)
	supplementOverrideFloor    = decimal.NewFromInt(200)
	supplementerFloor          = decimal.NewFromInt(300)
	canvassingCompanyDeduction = decimal.NewFromInt(300)
	affiliateCap               = decimal.NewFromInt(750)
)

// Calculate applies the rule set to in. Unknown roles earn zero.
// The result is rounded to cents.
func Calculate(in Input) decimal.Decimal {
	var amount decimal.Decimal

	switch in.Role {
	case domain.RoleSalesman:
		amount = salesman(in)
	case domain.RoleSalesManager:
		amount = salesManager(in)
	case domain.RoleSupplementManager:
		amount = supplementManager(in)
	case domain.RoleSupplementer:
		amount = decimal.Max(pct7.Mul(in.Margin()), supplementerFloor)
	case domain.RoleAffiliateMarketer:
		amount = decimal.Min(pct5.Mul(in.TotalJobPrice), affiliateCap)
	default:
		return decimal.Zero
	}

	return amount.Round(2)
}

func salesman(in Input) decimal.Decimal {
	scope := in.InitialScopePrice
	marginShare := pct4.Mul(in.Margin())

	switch {
	case in.TenureMonths <= 6:
		switch in.LeadSource {
		case domain.LeadSourceCanvassingSalesman, domain.LeadSourceReferral:
			return pct10.Mul(scope).Add(marginShare)
		case domain.LeadSourceAffiliate:
			return pct6.Mul(scope).Add(marginShare)
		case domain.LeadSourceCanvassingCompany:
			return pct8.Mul(scope).Add(marginShare).Sub(canvassingCompanyDeduction)
		default:
			return pct8.Mul(scope).Add(marginShare)
		}
	case in.TenureMonths <= 12:
		amount := pct2.Mul(scope).Add(marginShare)
		if in.LeadSource == domain.LeadSourceCanvassingSalesman || in.LeadSource == domain.LeadSourceReferral {
			amount = amount.Add(pct1.Mul(scope))
		}
		return amount
	default:
		return pct4.Mul(scope).Add(marginShare)
	}
}

func salesManager(in Input) decimal.Decimal {
	total := in.TotalJobPrice

	var base decimal.Decimal
	switch in.LeadSource {
	case domain.LeadSourceCanvassingSalesman, domain.LeadSourceReferral:
		base = pct15.Mul(total)
	case domain.LeadSourceAffiliate:
		base = pct10.Mul(total)
	case domain.LeadSourceCanvassingCompany:
		base = pct12.Mul(total).Sub(canvassingCompanyDeduction)
	default:
		base = pct12.Mul(total)
	}

	// The override tier is picked from the manager's own tenure for every
	// salesman on the team, not from each salesman's tenure. Payroll has been
	// paid this way historically; it is likely a defect but is kept as is.
	var rate decimal.Decimal
	switch {
	case in.TenureMonths <= 6:
		rate = pct4
	case in.TenureMonths <= 12:
		rate = pct2
	default:
		return base
	}
	override := rate.Mul(total).Mul(decimal.NewFromInt(int64(in.TeamSalesmen)))

	return base.Add(override)
}

func supplementManager(in Input) decimal.Decimal {
	margin := in.Margin()

	base := decimal.Max(pct10.Mul(margin), supplementManagerFloor)
	perSupplementer := decimal.Max(pct3.Mul(margin), supplementOverrideFloor)

	return base.Add(perSupplementer.Mul(decimal.NewFromInt(int64(in.TeamSupplementers))))
}

// Engine prices users against customers using a clock for tenure.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an engine reading the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an engine with a fixed time source.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Compute prices user against customer. team may be nil.
func (e *Engine) Compute(user *domain.User, customer *domain.Customer, team *domain.Team) decimal.Decimal {
	return Calculate(e.Input(user, customer, team))
}

// Input builds the rule input for a user, customer and optional team.
func (e *Engine) Input(user *domain.User, customer *domain.Customer, team *domain.Team) Input {
	in := Input{
		Role:              domain.ParseRole(string(user.Role)),
		TenureMonths:      TenureMonths(user.HireDate, e.now()),
		LeadSource:        customer.LeadSource,
		InitialScopePrice: orZero(customer.InitialScopePrice),
		TotalJobPrice:     orZero(customer.TotalJobPrice),
	}
	if team != nil {
		in.TeamSalesmen = len(team.SalesmanIDs())
		in.TeamSupplementers = len(team.SupplementerIDs())
	}
	return in
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
