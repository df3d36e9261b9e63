package domain

// SObjectType describes a standard or custom sobject.
type SObjectType struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	LabelPlural string `json:"labelPlural"`
	KeyPrefix   string `json:"keyPrefix"`
	Custom      bool   `json:"custom"`
	Createable  bool   `json:"createable"`
	Updateable  bool   `json:"updateable"`
	Deletable   bool   `json:"deletable"`
	Queryable   bool   `json:"queryable"`
}

// Field describes a single field on an sobject type.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Nillable    bool     `json:"nillable"`
	ExternalID  bool     `json:"externalId"`
	ReferenceTo []string `json:"referenceTo"`
}

// Describe is the full metadata response for one sobject type.
type Describe struct {
	SObjectType
	Fields []Field `json:"fields"`
}
