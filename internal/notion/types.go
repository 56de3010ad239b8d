package notion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ajramos/giznotion/internal/accounts"
)

// Page is a page or database as shown in search results
type Page struct {
	Object           string      `json:"object"`
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	URL              string      `json:"url"`
	Icon             string      `json:"icon,omitempty"`
	ParentDatabaseID string      `json:"parent_database_id,omitempty"`
	ParentPageID     string      `json:"parent_page_id,omitempty"`
	CreatedTime      time.Time   `json:"created_time"`
	LastEditedTime   time.Time   `json:"last_edited_time"`
	AccountID        accounts.ID `json:"accountId,omitempty"`
}

// Database describes a database and the properties of its schema
type Database struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	URL            string             `json:"url"`
	Icon           string             `json:"icon,omitempty"`
	LastEditedTime time.Time          `json:"last_edited_time"`
	Properties     []DatabaseProperty `json:"properties"`
}

// TitleProperty returns the name of the database's title property
func (d *Database) TitleProperty() string {
	for _, p := range d.Properties {
		if p.Type == "title" {
			return p.Name
		}
	}
	return "Name"
}

type DatabaseProperty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// User is a person member of the workspace
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Block is a child block of a page. Raw keeps the full API object.
type Block struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	HasChildren bool            `json:"has_children"`
	Text        string          `json:"text,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// SearchFilter restricts search results to one object type
type SearchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type SearchRequest struct {
	Query       string
	StartCursor string
	PageSize    int
	Filter      *SearchFilter
}

// SearchResult is one page of search hits
type SearchResult struct {
	Pages      []Page
	HasMore    bool
	NextCursor string
}

type richText struct {
	PlainText string `json:"plain_text"`
}

func joinRichText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

type rawIcon struct {
	Type     string `json:"type"`
	Emoji    string `json:"emoji"`
	External struct {
		URL string `json:"url"`
	} `json:"external"`
	File struct {
		URL string `json:"url"`
	} `json:"file"`
}

func (i *rawIcon) String() string {
	if i == nil {
		return ""
	}
	switch i.Type {
	case "emoji":
		return i.Emoji
	case "external":
		return i.External.URL
	case "file":
		return i.File.URL
	}
	return ""
}

type rawProperty struct {
	ID    string     `json:"id"`
	Type  string     `json:"type"`
	Title []richText `json:"title"`
}

// rawObject covers both page and database objects returned by the API
type rawObject struct {
	Object         string    `json:"object"`
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	CreatedTime    time.Time `json:"created_time"`
	LastEditedTime time.Time `json:"last_edited_time"`
	Icon           *rawIcon  `json:"icon"`
	Parent         struct {
		Type       string `json:"type"`
		DatabaseID string `json:"database_id"`
		PageID     string `json:"page_id"`
	} `json:"parent"`
	Title      []richText             `json:"title"`
	Properties map[string]rawProperty `json:"properties"`
}

func (o *rawObject) title() string {
	if o.Object == "database" {
		return joinRichText(o.Title)
	}
	for _, p := range o.Properties {
		if p.Type == "title" {
			return joinRichText(p.Title)
		}
	}
	return ""
}

func (o *rawObject) toPage() Page {
	title := o.title()
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	return Page{
		Object:           o.Object,
		ID:               o.ID,
		Title:            title,
		URL:              o.URL,
		Icon:             o.Icon.String(),
		ParentDatabaseID: o.Parent.DatabaseID,
		ParentPageID:     o.Parent.PageID,
		CreatedTime:      o.CreatedTime,
		LastEditedTime:   o.LastEditedTime,
	}
}

func (o *rawObject) toDatabase() Database {
	db := Database{
		ID:             o.ID,
		Title:          joinRichText(o.Title),
		URL:            o.URL,
		Icon:           o.Icon.String(),
		LastEditedTime: o.LastEditedTime,
	}
	if db.Title == "" {
		db.Title = "Untitled"
	}
	for name, p := range o.Properties {
		db.Properties = append(db.Properties, DatabaseProperty{ID: p.ID, Name: name, Type: p.Type})
	}
	sortProperties(db.Properties)
	return db
}

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

func (l *listResponse) nextCursor() string {
	if l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}

type rawBlock struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var rb rawBlock
	if err := json.Unmarshal(raw, &rb); err != nil {
		return Block{}, err
	}
	block := Block{ID: rb.ID, Type: rb.Type, HasChildren: rb.HasChildren, Raw: raw}

	// Most text-bearing block types keep their rich_text under a key named after the type
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err == nil {
		if payload, ok := body[rb.Type]; ok {
			var content struct {
				RichText []richText `json:"rich_text"`
			}
			if json.Unmarshal(payload, &content) == nil {
				block.Text = joinRichText(content.RichText)
			}
		}
	}
	return block, nil
}

// ParseBlocks decodes a JSON array of block objects
func ParseBlocks(data []byte) ([]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	blocks := make([]Block, 0, len(raws))
	for _, raw := range raws {
		b, err := decodeBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
