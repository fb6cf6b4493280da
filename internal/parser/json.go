package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dastanaron/bookmark-transfer/internal/models"
)

type jsonNode struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	URL               string      `json:"url"`
	DateAdded         jsonSeconds `json:"dateAdded"`
	DateGroupModified jsonSeconds `json:"dateGroupModified"`
	IconData          string      `json:"iconData"`
	Children          []jsonNode  `json:"children"`
}

// jsonSeconds is a seconds timestamp. Anything that is not a number, such as the
// formatted date strings of older exports, reads as absent.
type jsonSeconds struct {
	value int64
	set   bool
}

func (s *jsonSeconds) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	if v, err := n.Int64(); err == nil {
		s.value, s.set = v, true
	} else if f, err := n.Float64(); err == nil {
		s.value, s.set = int64(f), true
	}
	return nil
}

// ParseJSON parses a JSON array of node objects and tags its reserved roots.
// Dates are read as seconds and stored as milliseconds.
func (p *Parser) ParseJSON(data []byte) ([]models.ParsedNode, error) {
	var raw []jsonNode
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	nodes := make([]models.ParsedNode, 0, len(raw))
	for i := range raw {
		nodes = append(nodes, p.convert(&raw[i]))
	}
	return Preprocess(nodes), nil
}

func (p *Parser) convert(n *jsonNode) models.ParsedNode {
	if n.URL != "" {
		return &models.ParsedBookmark{
			ID:        n.ID,
			Title:     n.Title,
			URL:       n.URL,
			DateAdded: p.millis(n.DateAdded),
			Icon:      n.IconData,
		}
	}

	folder := &models.ParsedFolder{
		ID:                n.ID,
		Title:             n.Title,
		DateAdded:         p.millis(n.DateAdded),
		DateGroupModified: p.millis(n.DateGroupModified),
		Children:          make([]models.ParsedNode, 0, len(n.Children)),
	}
	for i := range n.Children {
		folder.Children = append(folder.Children, p.convert(&n.Children[i]))
	}
	return folder
}

func (p *Parser) millis(s jsonSeconds) int64 {
	if !s.set {
		return p.nowMillis()
	}
	return s.value * 1000
}
