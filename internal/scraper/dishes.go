package scraper

import "strings"

var dishesByFood = []struct {
	foods  []string
	dishes []string
}{
	{[]string{"biryani", "chicken", "mutton"}, []string{"Chicken Biryani", "Mutton Biryani", "Chicken 65"}},
	{[]string{"pizza", "pasta", "italian"}, []string{"Margherita Pizza", "Pepperoni Pizza", "Pasta Alfredo"}},
	{[]string{"burger", "sandwich"}, []string{"Chicken Burger", "Veg Burger", "French Fries"}},
	{[]string{"dosa", "idli", "south indian"}, []string{"Masala Dosa", "Idli Sambar", "Vada"}},
}

// PopularDishes suggests dishes for a searched food
func PopularDishes(food string) []string {
	key := strings.ToLower(strings.TrimSpace(food))
	for _, entry := range dishesByFood {
		for _, f := range entry.foods {
			if f == key {
				return append([]string(nil), entry.dishes...)
			}
		}
	}
	title := titleCase(key)
	return []string{title, "Special " + title, "Chef's Special"}
}
