package domain

import "time"

type AttributeType string

const (
	AttributeText    AttributeType = "text"
	AttributeNumber  AttributeType = "number"
	AttributeBoolean AttributeType = "boolean"
	AttributeColor   AttributeType = "color"
	AttributeSize    AttributeType = "size"
)

type ProductAttribute struct {
	Name  string        `json:"name"`
	Value string        `json:"value"`
	Type  AttributeType `json:"type"`
}

type Product struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Price       float64            `json:"price"`
	Tags        []string           `json:"tags,omitempty"`
	Attributes  []ProductAttribute `json:"attributes,omitempty"`
	Featured    bool               `json:"featured"`
	CreatedAt   time.Time          `json:"created_at"`
}
