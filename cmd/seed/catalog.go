package main

import "time"

type seedRestaurant struct {
	Slug     string
	Name     string
	City     string
	IsActive bool
}

type seedItem struct {
	RestaurantSlug       string
	Name                 string
	OriginalPriceCents   int64
	DiscountedPriceCents int64
	Quantity             int
	// ExpiresIn is relative to the seed run; negative means already expired
	ExpiresIn time.Duration
}

var restaurants = []seedRestaurant{
	{Slug: "central-bistro", Name: "Central Bistro", City: "Riga", IsActive: true},
	{Slug: "sunset-sushi", Name: "Sunset Sushi", City: "Riga", IsActive: true},
	{Slug: "pasta-palace", Name: "Pasta Palace", City: "Riga", IsActive: true},
	{Slug: "taco-loco", Name: "Taco Loco", City: "Riga", IsActive: true},
	{Slug: "green-bowl", Name: "Green Bowl", City: "Riga", IsActive: true},
	{Slug: "empty-kitchen", Name: "Empty Kitchen", City: "Riga", IsActive: true},
	{Slug: "closed-diner", Name: "Closed Diner", City: "Riga", IsActive: false},
	{Slug: "nordic-bakery", Name: "Nordic Bakery", City: "Riga", IsActive: true},
	{Slug: "bbq-pit", Name: "BBQ Pit", City: "Jurmala", IsActive: true},
}

var items = []seedItem{
	{"central-bistro", "Beef Burger", 1299, 899, 10, 8 * time.Hour},
	{"central-bistro", "Veggie Wrap", 999, 699, 6, 6 * time.Hour},
	{"central-bistro", "Fries", 399, 249, 3, 5 * time.Minute},

	{"sunset-sushi", "Salmon Roll", 1099, 749, 12, 10 * time.Hour},
	{"sunset-sushi", "Spicy Tuna Roll", 1199, 799, 5, 7 * time.Minute},
	{"sunset-sushi", "Miso Soup", 299, 199, 10, 2 * time.Hour},

	{"pasta-palace", "Spaghetti Carbonara", 1399, 949, 8, 4 * time.Hour},
	{"pasta-palace", "Penne Arrabbiata", 1199, 799, 7, 3 * time.Hour},
	{"pasta-palace", "Garlic Bread", 499, 299, 4, 9 * time.Minute},

	{"taco-loco", "Chicken Taco", 499, 349, 15, 5 * time.Hour},
	{"taco-loco", "Veggie Taco", 449, 299, 10, 5 * time.Hour},
	{"taco-loco", "Churros", 399, 249, 9, time.Hour},

	{"green-bowl", "Caesar Salad", 999, 699, 10, 3 * time.Hour},
	{"green-bowl", "Quinoa Bowl", 1199, 849, 8, 6 * time.Hour},

	{"nordic-bakery", "Sourdough Loaf", 699, 449, 0, 12 * time.Hour},
	{"nordic-bakery", "Blueberry Muffin", 399, 249, 6, -5 * time.Minute},

	{"bbq-pit", "Pulled Pork Sandwich", 1399, 999, 1, 2 * time.Hour},
}
