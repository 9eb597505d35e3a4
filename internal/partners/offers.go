// Package partners covers the lending-partner surface: the static offer
// cards shown on the final review step and the CRM push for approved deals.
package partners

import "loanbridge/internal/models"

// Offers returns the partner-offer cards rendered on the final review
// step. The cards are static display content; no live pricing happens.
func Offers() []models.PartnerOffer {
	return []models.PartnerOffer{
		{
			Partner:      "QuickFin Capital",
			InterestRate: 10.5,
			MaxAmount:    500_000,
			TenureMonths: 60,
			Tagline:      "Instant approval for salaried professionals",
		},
		{
			Partner:      "TrustBridge Lending",
			InterestRate: 11.25,
			MaxAmount:    350_000,
			TenureMonths: 48,
			Tagline:      "Flexible repayment, zero foreclosure charges",
		},
		{
			Partner:      "Meridian Finance",
			InterestRate: 12.0,
			MaxAmount:    500_000,
			TenureMonths: 36,
			Tagline:      "Best rates for self-employed borrowers",
		},
	}
}
