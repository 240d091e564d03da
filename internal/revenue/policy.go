package revenue

import "time"

// Scheme is the compensation formula of a policy. The concrete cases are
// Fixed, Percentage and Tiered; each carries only the fields it uses.
type Scheme interface {
	Type() CompensationType
	compute(grossRevenue float64, sessions Sessions) float64
}

// Fixed pays a flat amount per completed session.
type Fixed struct {
	AmountPerSession float64
}

// Percentage pays a share of gross revenue.
type Percentage struct {
	Rate float64
}

// Tiered pays the percentage of the highest tier reached by gross revenue.
// An empty tier list means DefaultTiers.
type Tiered struct {
	Tiers []Tier
}

// unknownScheme keeps the type string of a record this package does not
// recognise. It always computes zero.
type unknownScheme struct {
	typ CompensationType
}

func (Fixed) Type() CompensationType           { return CompensationFixed }
func (Percentage) Type() CompensationType      { return CompensationPercentage }
func (Tiered) Type() CompensationType          { return CompensationTiered }
func (s unknownScheme) Type() CompensationType { return s.typ }

func (s Fixed) compute(_ float64, sessions Sessions) float64 {
	return float64(sessions.Completed) * s.AmountPerSession
}

func (s Percentage) compute(grossRevenue float64, _ Sessions) float64 {
	return percentage(grossRevenue, s.Rate)
}

func (s Tiered) compute(grossRevenue float64, _ Sessions) float64 {
	tier, ok := ApplicableTier(grossRevenue, s.EffectiveTiers())
	if !ok {
		return 0
	}
	return percentage(grossRevenue, tier.Percentage)
}

func (unknownScheme) compute(float64, Sessions) float64 { return 0 }

// EffectiveTiers returns the tiers the plan is evaluated against.
func (s Tiered) EffectiveTiers() []Tier {
	if len(s.Tiers) == 0 {
		return DefaultTiers
	}
	return s.Tiers
}

// Policy is a trainer's compensation agreement for a date range.
type Policy struct {
	TrainerID        string
	TrainerName      string
	Scheme           Scheme
	MinimumGuarantee *float64
	EffectiveFrom    time.Time
	EffectiveTo      *time.Time
}

// Type reports the scheme type, or "" when the policy has no scheme.
func (p Policy) Type() CompensationType {
	if p.Scheme == nil {
		return ""
	}
	return p.Scheme.Type()
}

// ActiveAt reports whether t falls inside [EffectiveFrom, EffectiveTo].
// A nil EffectiveTo leaves the range open.
func (p Policy) ActiveAt(t time.Time) bool {
	if t.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || !t.After(*p.EffectiveTo)
}

// PolicyRecord is the flat wire form of a Policy: one record with the
// optional fields of every type. Fields unrelated to Type are ignored.
type PolicyRecord struct {
	TrainerID        string           `json:"trainerId" validate:"required"`
	TrainerName      string           `json:"trainerName"`
	Type             CompensationType `json:"type" validate:"required"`
	FixedAmount      *float64         `json:"fixedAmount,omitempty" validate:"omitempty,gte=0"`
	Percentage       *float64         `json:"percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Tiers            []Tier           `json:"tiers,omitempty" validate:"omitempty,dive"`
	MinimumGuarantee *float64         `json:"minimumGuarantee,omitempty" validate:"omitempty,gte=0"`
	EffectiveFrom    time.Time        `json:"effectiveFrom"`
	EffectiveTo      *time.Time       `json:"effectiveTo,omitempty"`
}

// ToPolicy converts the record into a Policy with a typed scheme. Unset
// amounts count as zero.
func (r PolicyRecord) ToPolicy() Policy {
	return Policy{
		TrainerID:        r.TrainerID,
		TrainerName:      r.TrainerName,
		Scheme:           SchemeFor(r.Type, r.FixedAmount, r.Percentage, r.Tiers),
		MinimumGuarantee: r.MinimumGuarantee,
		EffectiveFrom:    r.EffectiveFrom,
		EffectiveTo:      r.EffectiveTo,
	}
}

// SchemeFor builds the scheme for a type name, picking only the fields that
// type uses.
func SchemeFor(typ CompensationType, fixedAmount, rate *float64, tiers []Tier) Scheme {
	switch typ {
	case CompensationFixed:
		return Fixed{AmountPerSession: deref(fixedAmount)}
	case CompensationPercentage:
		return Percentage{Rate: deref(rate)}
	case CompensationTiered:
		return Tiered{Tiers: append([]Tier(nil), tiers...)}
	default:
		return unknownScheme{typ: typ}
	}
}

// recordFromPolicy flattens p back into its wire form.
func recordFromPolicy(p Policy) PolicyRecord {
	rec := PolicyRecord{
		TrainerID:        p.TrainerID,
		TrainerName:      p.TrainerName,
		Type:             p.Type(),
		MinimumGuarantee: p.MinimumGuarantee,
		EffectiveFrom:    p.EffectiveFrom,
		EffectiveTo:      p.EffectiveTo,
	}
	switch s := p.Scheme.(type) {
	case Fixed:
		amount := s.AmountPerSession
		rec.FixedAmount = &amount
	case Percentage:
		rate := s.Rate
		rec.Percentage = &rate
	case Tiered:
		rec.Tiers = append([]Tier(nil), s.Tiers...)
	}
	return rec
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
