package catalog

// Seed is the default menu installed by `kiosk migrate` and served when no
// database rows exist.
func Seed() []MenuItem {
	return []MenuItem{
		{ID: "shrimp", Name: "새우버거", Price: 5000, Keywords: []string{"새우", "shrimp"}, Category: CategoryBurger},
		{ID: "bulgogi", Name: "불고기버거", Price: 5000, Keywords: []string{"불고기", "bulgogi"}, Category: CategoryBurger},
		{ID: "cheese", Name: "치즈버거", Price: 5000, Keywords: []string{"치즈", "cheese"}, Category: CategoryBurger},
		{ID: "chili", Name: "칠리새우버거", Price: 6000, Keywords: []string{"칠리", "새우", "매운", "chili", "shrimp"}, Category: CategoryBurger},
		{ID: "truffle", Name: "트러플새우버거", Price: 6000, Keywords: []string{"트러플", "새우", "truffle", "shrimp"}, Category: CategoryBurger},

		{ID: "cola", Name: "콜라", Price: 2000, Keywords: []string{"콜라", "coke", "cola"}, Category: CategoryDrink},
		{ID: "zero-cola", Name: "제로콜라", Price: 2000, Keywords: []string{"제로", "zero"}, Category: CategoryDrink},
		{ID: "cider", Name: "사이다", Price: 2000, Keywords: []string{"사이다", "cider"}, Category: CategoryDrink},
		{ID: "coffee", Name: "커피", Price: 2000, Keywords: []string{"커피", "coffee"}, Category: CategoryDrink},

		{ID: "fries", Name: "감자튀김", Price: 3000, Keywords: []string{"감자", "프라이", "fries"}, Category: CategorySide},
		{ID: "tenders", Name: "치킨텐더", Price: 3000, Keywords: []string{"치킨", "텐더", "tender"}, Category: CategorySide},
		{ID: "salad", Name: "샐러드", Price: 3000, Keywords: []string{"샐러드", "salad"}, Category: CategorySide},
	}
}
