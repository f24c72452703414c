package model

// CostPerWearResult is the valuation of one item. It is computed on every
// request and never persisted.
type CostPerWearResult struct {
	ItemID               string  `json:"item_id"`
	PurchasePrice        float64 `json:"purchase_price"`
	CostPerWear          float64 `json:"cost_per_wear"`
	ProjectedCostPerWear float64 `json:"projected_cost_per_wear"`
	TotalWears           int     `json:"total_wears"`
	DaysSincePurchase    int     `json:"days_since_purchase"`
}

// ShopYourClosetRecommendation lists owned items that could stand in for a
// desired purchase, best match first.
type ShopYourClosetRecommendation struct {
	TargetDescription string         `json:"target_description"`
	Category          string         `json:"category"`
	Reasoning         []string       `json:"reasoning"`
	SimilarOwnedItems []WardrobeItem `json:"similar_owned_items"`
	Matches           ItemMatches    `json:"matches"`
	ConfidenceScore   float64        `json:"confidence_score"`
}

// ItemConfidence is the average outfit rating attributed to one item in a period.
type ItemConfidence struct {
	ItemID        string  `json:"item_id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// MonthlyConfidenceMetrics rolls up one calendar month of ratings and usage.
// Positive ShoppingReductionPercentage and CostPerWearImprovement always mean
// improvement.
type MonthlyConfidenceMetrics struct {
	MostConfidentItems          []ItemConfidence `json:"most_confident_items"`
	LeastConfidentItems         []ItemConfidence `json:"least_confident_items"`
	Month                       int              `json:"month"`
	Year                        int              `json:"year"`
	AverageConfidenceRating     float64          `json:"average_confidence_rating"`
	ConfidenceImprovement       float64          `json:"confidence_improvement"`
	TotalOutfitsRated           int              `json:"total_outfits_rated"`
	WardrobeUtilization         float64          `json:"wardrobe_utilization"`
	ShoppingReductionPercentage float64          `json:"shopping_reduction_percentage"`
	CostPerWearImprovement      float64          `json:"cost_per_wear_improvement"`
}
