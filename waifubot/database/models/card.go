package models

// Card is one owned card instance. GlobalID identifies the instance,
// not the character template it was drawn from.
type Card struct {
	GlobalID string `json:"global_id"`
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Series   string `json:"series"`

	Affection int      `json:"affection"`
	Favorite  bool     `json:"favorite"`
	Wishlist  bool     `json:"wishlist"`
	Tags      []string `json:"tags,omitempty"`
}

func (c Card) Clone() Card {
	if c.Tags != nil {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c
}
