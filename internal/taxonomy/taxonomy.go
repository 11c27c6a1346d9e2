// Package taxonomy holds the topic category list and resolves free text to a category.
package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/logger"
)

// Sources reported by Taxonomy.Source.
const (
	SourceStatic = "static"
	SourceRemote = "remote"
)

var staticCategories = []domain.Category{
	{Name: "Arts & Entertainment", InternalID: 3, ExternalID: "24"},
	{Name: "Autos & Vehicles", InternalID: 47, ExternalID: "2"},
	{Name: "Beauty & Fitness", InternalID: 44, ExternalID: "26"},
	{Name: "Books & Literature", InternalID: 22, ExternalID: "27"},
	{Name: "Business & Industrial", InternalID: 12, ExternalID: "28"},
	{Name: "Computers & Electronics", InternalID: 5, ExternalID: "28"},
	{Name: "Finance", InternalID: 7, ExternalID: "28"},
	{Name: "Food & Drink", InternalID: 71, ExternalID: "26"},
	{Name: "Games", InternalID: 8, ExternalID: "20"},
	{Name: "Health", InternalID: 45, ExternalID: "26"},
	{Name: "Hobbies & Leisure", InternalID: 65, ExternalID: "24"},
	{Name: "Home & Garden", InternalID: 11, ExternalID: "26"},
	{Name: "Internet & Telecom", InternalID: 13, ExternalID: "28"},
	{Name: "Jobs & Education", InternalID: 958, ExternalID: "27"},
	{Name: "Law & Government", InternalID: 19, ExternalID: "25"},
	{Name: "News", InternalID: 16, ExternalID: "25"},
	{Name: "People & Society", InternalID: 14, ExternalID: "22"},
	{Name: "Pets & Animals", InternalID: 66, ExternalID: "15"},
	{Name: "Real Estate", InternalID: 29, ExternalID: "28"},
	{Name: "Reference", InternalID: 533, ExternalID: "27"},
	{Name: "Science", InternalID: 174, ExternalID: "28"},
	{Name: "Shopping", InternalID: 18, ExternalID: "22"},
	{Name: "Sports", InternalID: 20, ExternalID: "17"},
	{Name: "Travel", InternalID: 67, ExternalID: "19"},
}

// StaticCategories returns a copy of the built-in category table.
func StaticCategories() []domain.Category {
	out := make([]domain.Category, len(staticCategories))
	copy(out, staticCategories)
	return out
}

// Taxonomy is an ordered, read-only category list. Build it once at startup
// and share it.
type Taxonomy struct {
	categories []domain.Category
	byName     map[string]domain.Category
	source     string
}

// New builds a Taxonomy from categories, keeping the first entry for each name.
func New(categories []domain.Category, source string) *Taxonomy {
	t := &Taxonomy{
		byName: make(map[string]domain.Category, len(categories)),
		source: source,
	}
	for _, c := range categories {
		if c.Name == "" {
			continue
		}
		if _, dup := t.byName[c.Name]; dup {
			continue
		}
		t.byName[c.Name] = c
		t.categories = append(t.categories, c)
	}
	return t
}

// Static returns the taxonomy backed by the built-in table.
func Static() *Taxonomy {
	return New(staticCategories, SourceStatic)
}

// Categories returns the categories in match order.
func (t *Taxonomy) Categories() []domain.Category {
	out := make([]domain.Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Lookup finds a category by exact name.
func (t *Taxonomy) Lookup(name string) (domain.Category, bool) {
	c, ok := t.byName[name]
	return c, ok
}

func (t *Taxonomy) Len() int       { return len(t.categories) }
func (t *Taxonomy) Source() string { return t.source }

// LoaderConfig configures the remote category picker.
type LoaderConfig struct {
	Enabled  bool
	URL      string
	Language string
	Timeout  time.Duration
}

// pickerNode is one node of the search-interest category picker tree.
type pickerNode struct {
	Name     string       `json:"name"`
	ID       int          `json:"id"`
	Children []pickerNode `json:"children"`
}

// xssiPrefix guards the picker JSON against script inclusion.
const xssiPrefix = ")]}'"

// Load returns the authoritative taxonomy when the remote picker is enabled
// and answers, otherwise the static table. It never fails.
func Load(ctx context.Context, cfg LoaderConfig) *Taxonomy {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "taxonomy")
	if !cfg.Enabled || cfg.URL == "" {
		return Static()
	}

	cats, err := fetchRemote(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Could not load remote categories, using static table")
		return Static()
	}
	log.WithField(logger.FieldCount, len(cats)).Info("Loaded remote categories")
	return New(cats, SourceRemote)
}

func fetchRemote(ctx context.Context, cfg LoaderConfig) ([]domain.Category, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().SetTimeout(timeout)

	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"hl": cfg.Language, "tz": "360"}).
		Get(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	return parsePicker(resp.Body())
}

func parsePicker(body []byte) ([]domain.Category, error) {
	raw := strings.TrimSpace(string(body))
	raw = strings.TrimPrefix(raw, xssiPrefix)

	var root pickerNode
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil, fmt.Errorf("failed to decode category tree: %w", err)
	}

	var out []domain.Category
	var walk func(n pickerNode)
	walk = func(n pickerNode) {
		if n.ID > 0 && n.Name != "" {
			out = append(out, domain.Category{Name: n.Name, InternalID: n.ID})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	if len(out) == 0 {
		return nil, fmt.Errorf("category tree is empty")
	}

	// Names shared with the built-in table keep its external ids.
	for i := range out {
		for _, s := range staticCategories {
			if s.Name == out[i].Name {
				out[i].ExternalID = s.ExternalID
				break
			}
		}
	}
	return out, nil
}
