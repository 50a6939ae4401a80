package hostaway

// sampleReviews is the fixed fallback set served whenever the live fetch
// fails or comes back empty.
var sampleReviews = []apiReview{
	{
		ID:           7453,
		Type:         "host-to-guest",
		Status:       "published",
		Rating:       nil,
		PublicReview: "Shane and family are wonderful! Would definitely host again :)",
		ReviewCategory: []apiCategory{
			{Category: "cleanliness", Rating: 10},
			{Category: "communication", Rating: 10},
			{Category: "respect_house_rules", Rating: 10},
		},
		SubmittedAt: "2020-08-21 22:45:14",
		GuestName:   "Shane Finkelstein",
		ListingName: "2B N1 A - 29 Shoreditch Heights",
	},
}
