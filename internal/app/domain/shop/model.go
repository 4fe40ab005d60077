package shop

// Item is a purchasable catalog entry priced in XP.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Price int    `json:"price"`
}

// DefaultCatalog returns the built-in items served when no catalog document
// has been persisted. Order is fixed; the shop page relies on it.
func DefaultCatalog() []Item {
	return []Item{
		{ID: "boost1", Title: "Photo Boost", Desc: "Boost your photo acceptance chance by 30%", Price: 50},
		{ID: "hint", Title: "Hint Token", Desc: "Reveal an AI hint in any lesson", Price: 25},
		{ID: "avatar", Title: "Avatar Frame", Desc: "Premium frame for your profile picture", Price: 120},
		{ID: "xp_boost", Title: "XP Doubler", Desc: "Double XP earned for 24 hours", Price: 75},
	}
}

// Find returns the catalog item with the given id.
func Find(items []Item, id string) (Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
