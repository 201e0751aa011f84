package notion

import "encoding/json"

// Page is a database row as returned by the query endpoint. Properties
// are kept raw so their order survives flattening.
type Page struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Archived       bool            `json:"archived"`
	InTrash        bool            `json:"in_trash"`
	CreatedTime    string          `json:"created_time"`
	LastEditedTime string          `json:"last_edited_time"`
	Properties     json.RawMessage `json:"properties"`
}

type richText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fileObject struct {
	Name     string `json:"name"`
	External *struct {
		URL string `json:"url"`
	} `json:"external"`
	File *struct {
		URL string `json:"url"`
	} `json:"file"`
}

// dateValue keeps the field order of a flattened date.
type dateValue struct {
	Start    *string `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

type rollupValue struct {
	Type   string            `json:"type"`
	Number json.RawMessage   `json:"number"`
	Date   json.RawMessage   `json:"date"`
	Array  []json.RawMessage `json:"array"`
}
