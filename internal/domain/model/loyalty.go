package model

import (
	"math"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/shopspring/decimal"
)

type LoyaltyTier struct {
	Name      string   `json:"name"`
	MinPoints int      `json:"minPoints"`
	MaxPoints int      `json:"maxPoints"`
	Benefits  []string `json:"benefits"`
}

var LoyaltyTiers = []LoyaltyTier{
	{Name: "Bronze", MinPoints: 0, MaxPoints: 499, Benefits: []string{"2% cashback", "Free delivery on ₹300+"}},
	{Name: "Silver", MinPoints: 500, MaxPoints: 1499, Benefits: []string{"3% cashback", "Free delivery on ₹200+", "Priority support"}},
	{Name: "Gold", MinPoints: 1500, MaxPoints: 4999, Benefits: []string{"5% cashback", "Free delivery always", "Early access to sales"}},
	{Name: "Platinum", MinPoints: 5000, MaxPoints: math.MaxInt32, Benefits: []string{"8% cashback", "Free delivery always", "Exclusive products", "Personal shopper"}},
}

type Reward struct {
	Points      int    `json:"points"`
	Name        string `json:"reward"`
	Description string `json:"description"`
}

var LoyaltyRewards = []Reward{
	{Points: 100, Name: "₹10 Off", Description: "Next purchase"},
	{Points: 250, Name: "₹25 Off", Description: "Next purchase"},
	{Points: 500, Name: "₹50 Off", Description: "Next purchase"},
	{Points: 1000, Name: "Free Delivery", Description: "For 1 month"},
}

func RewardByPoints(points int) (Reward, bool) {
	for _, r := range LoyaltyRewards {
		if r.Points == points {
			return r, true
		}
	}
	return Reward{}, false
}

type LoyaltySummary struct {
	Points       int          `json:"points"`
	Tier         LoyaltyTier  `json:"tier"`
	NextTier     *LoyaltyTier `json:"nextTier,omitempty"`
	PointsToNext int          `json:"pointsToNext"`
	Progress     int          `json:"progress"`
	Rewards      []Reward     `json:"rewards"`
}

// TierFor 負數點數視為 0
func TierFor(points int) LoyaltyTier {
	for _, t := range LoyaltyTiers {
		if points >= t.MinPoints && points <= t.MaxPoints {
			return t
		}
	}
	return LoyaltyTiers[0]
}

func NewLoyaltySummary(points int) LoyaltySummary {
	tier := TierFor(points)
	summary := LoyaltySummary{
		Points:   points,
		Tier:     tier,
		Progress: 100,
		Rewards:  LoyaltyRewards,
	}
	for i := range LoyaltyTiers {
		if LoyaltyTiers[i].MinPoints > points {
			next := LoyaltyTiers[i]
			summary.NextTier = &next
			summary.PointsToNext = next.MinPoints - points
			progress := float64(points-tier.MinPoints) / float64(next.MinPoints-tier.MinPoints) * 100
			summary.Progress = min(100, int(math.Round(progress)))
			break
		}
	}
	return summary
}

// PointsForTotal 每 100 元 1 點, 無條件捨去, 負數為 0
func PointsForTotal(finalTotal decimal.Decimal) int {
	if finalTotal.IsNegative() {
		return 0
	}
	return int(finalTotal.Div(decimal.NewFromInt(constants.LoyaltyRupeesPerPoint)).Floor().IntPart())
}
