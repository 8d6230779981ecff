package models

// SchemaInfo describes one served resource.
type SchemaInfo struct {
	Template string      `json:"template"`
	Resource string      `json:"resource"`
	Category string      `json:"category"`
	Fields   []FieldInfo `json:"fields"`
}

type FieldInfo struct {
	Key      string   `json:"key"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Values   []string `json:"values,omitempty"`
	Default  *string  `json:"default,omitempty"`
}
