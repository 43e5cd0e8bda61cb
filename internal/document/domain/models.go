// Package domain contains the document generator's contracts: the
// shared entity view it renders, visual template customization, and
// stored styling presets.
package domain

import (
	"regexp"
	"time"

	"github.com/bwmarrin/snowflake"
)

// TemplateName selects one of the built-in visual layouts.
type TemplateName string

const (
	TemplateModern    TemplateName = "modern"
	TemplateClassic   TemplateName = "classic"
	TemplateMinimal   TemplateName = "minimal"
	TemplateCorporate TemplateName = "corporate"
)

// ValidTemplateName reports whether value is a built-in layout.
func ValidTemplateName(value TemplateName) bool {
	switch value {
	case TemplateModern, TemplateClassic, TemplateMinimal, TemplateCorporate:
		return true
	default:
		return false
	}
}

// Font families the renderer supports. These map straight to the PDF
// core fonts.
const (
	FontHelvetica = "helvetica"
	FontTimes     = "times"
	FontCourier   = "courier"
)

const (
	MinFontSize = 8
	MaxFontSize = 16
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Customization carries the per-render styling knobs. All four colors
// are #RRGGBB strings.
type Customization struct {
	PrimaryColor   string  `json:"primary_color"`
	SecondaryColor string  `json:"secondary_color"`
	AccentColor    string  `json:"accent_color"`
	TextColor      string  `json:"text_color"`
	Font           string  `json:"font"`
	FontSize       float64 `json:"font_size"`
}

// Validate checks colors and font, and clamps the font size into the
// renderable range.
func (c *Customization) Validate() error {
	for _, color := range []string{c.PrimaryColor, c.SecondaryColor, c.AccentColor, c.TextColor} {
		if !hexColorRe.MatchString(color) {
			return ErrInvalidColor
		}
	}
	switch c.Font {
	case FontHelvetica, FontTimes, FontCourier:
	default:
		return ErrInvalidFont
	}
	if c.FontSize < MinFontSize {
		c.FontSize = MinFontSize
	}
	if c.FontSize > MaxFontSize {
		c.FontSize = MaxFontSize
	}
	return nil
}

// DefaultCustomization returns the per-template styling defaults.
func DefaultCustomization(template TemplateName) Customization {
	switch template {
	case TemplateClassic:
		return Customization{
			PrimaryColor:   "#8B4513",
			SecondaryColor: "#D3D3D3",
			AccentColor:    "#DAA520",
			TextColor:      "#000000",
			Font:           FontTimes,
			FontSize:       11,
		}
	case TemplateMinimal:
		return Customization{
			PrimaryColor:   "#000000",
			SecondaryColor: "#6B7280",
			AccentColor:    "#374151",
			TextColor:      "#000000",
			Font:           FontHelvetica,
			FontSize:       10,
		}
	case TemplateCorporate:
		return Customization{
			PrimaryColor:   "#1E3A8A",
			SecondaryColor: "#F8FAFC",
			AccentColor:    "#FFD700",
			TextColor:      "#1F2937",
			Font:           FontHelvetica,
			FontSize:       10,
		}
	default:
		return Customization{
			PrimaryColor:   "#3B82F6",
			SecondaryColor: "#475569",
			AccentColor:    "#EF4444",
			TextColor:      "#1F2937",
			Font:           FontHelvetica,
			FontSize:       10,
		}
	}
}

// SourceKind tags which entity a Source was built from.
type SourceKind string

const (
	KindInvoice  SourceKind = "invoice"
	KindProposal SourceKind = "proposal"
)

// SourceItem is one billable row in the rendered table.
type SourceItem struct {
	Description string
	Quantity    float64
	Rate        int64
	Amount      int64
}

// SourceParty is the client block of the document.
type SourceParty struct {
	Name    string
	Email   string
	Company string
	Address string
}

// Source is the shared, fully resolved view the renderer consumes.
// Building it up front keeps the four layouts free of entity-specific
// branching beyond the kind tag.
type Source struct {
	Kind      SourceKind
	Number    string
	Title     string
	Status    string
	IssueDate string
	DueDate   string
	Client    SourceParty
	Items     []SourceItem
	Subtotal  int64
	TaxRate   float64
	TaxAmount int64
	Total     int64
	Notes     string
	Terms     string
}

// Artifact is a finished document ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

// SavedTemplate is a stored styling preset. Key is the slugged name,
// unique per owner.
type SavedTemplate struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID        snowflake.ID `gorm:"not null;index;uniqueIndex:ux_saved_templates_owner_key" json:"owner_id"`
	Key            string       `gorm:"type:text;not null;uniqueIndex:ux_saved_templates_owner_key" json:"key"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	BaseTemplate   TemplateName `gorm:"type:text;not null" json:"base_template"`
	PrimaryColor   string       `gorm:"type:text;not null" json:"primary_color"`
	SecondaryColor string       `gorm:"type:text;not null" json:"secondary_color"`
	AccentColor    string       `gorm:"type:text;not null" json:"accent_color"`
	TextColor      string       `gorm:"type:text;not null" json:"text_color"`
	Font           string       `gorm:"type:text;not null" json:"font"`
	FontSize       float64      `gorm:"not null" json:"font_size"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SavedTemplate) TableName() string { return "saved_document_templates" }

// Customization reconstructs the styling knobs from a stored preset.
func (s SavedTemplate) Customization() Customization {
	return Customization{
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		AccentColor:    s.AccentColor,
		TextColor:      s.TextColor,
		Font:           s.Font,
		FontSize:       s.FontSize,
	}
}
