package domain

import (
	"bytes"
	"encoding/json"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Price  `json:"price"`
	Image       string `json:"image,omitempty"`
}

// UnmarshalJSON accepts both "id" and the backend's Mongo-style "_id", as a
// string or a number.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var raw struct {
		plain
		ID      json.RawMessage `json:"id"`
		MongoID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Product(raw.plain)
	p.ID = rawID(raw.ID)
	if p.ID == "" {
		p.ID = rawID(raw.MongoID)
	}
	return nil
}

func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
