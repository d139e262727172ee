package domain

type SnackCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SnackItem is a purchasable catalog item. Stock is informational on the desk
// side: the store decrements it on submission and only a refresh of the
// catalog is authoritative.
type SnackItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Stock       int     `json:"stock"`
	Description string  `json:"description,omitempty"`
}
