// Package pdf renders invoices and proposals into paginated PDF
// documents using the built-in visual templates.
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/solobill/solobill/internal/document/domain"
	"github.com/solobill/solobill/internal/money"
	"go.uber.org/zap"
)

// usableHeight is the vertical budget of one A4 page after margins.
// The totals block never starts below totalsThreshold so it cannot be
// split across a page break.
const (
	usableHeight    = 257.0
	totalsThreshold = 230.0
)

type Generator struct {
	log *zap.Logger
}

func NewGenerator(log *zap.Logger) *Generator {
	return &Generator{log: log.Named("document.pdf")}
}

// Generate renders src with the named template. customized controls
// the "-custom" filename suffix.
func (g *Generator) Generate(src domain.Source, template domain.TemplateName, custom domain.Customization, customized bool) (domain.Artifact, error) {
	if !domain.ValidTemplateName(template) {
		return domain.Artifact{}, domain.ErrInvalidTemplate
	}
	if err := custom.Validate(); err != nil {
		return domain.Artifact{}, err
	}

	cfg := config.NewBuilder().
		WithDefaultFont(&props.Font{Family: custom.Font, Size: custom.FontSize}).
		Build()

	b := &builder{m: maroto.New(cfg), custom: custom}

	switch template {
	case domain.TemplateClassic:
		b.classicHeader(src)
	case domain.TemplateMinimal:
		b.minimalHeader(src)
	case domain.TemplateCorporate:
		b.corporateHeader(src)
	default:
		b.modernHeader(src)
	}

	b.metaBlock(src)
	b.clientBlock(src)
	b.itemsTable(src, template)
	b.totalsBlock(src, template)
	b.notesBlock(src)

	doc, err := b.m.Generate()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("render %s document: %w", src.Kind, err)
	}

	g.log.Debug("document generated",
		zap.String("kind", string(src.Kind)),
		zap.String("template", string(template)),
		zap.Int("items", len(src.Items)),
	)

	return domain.Artifact{
		Filename:    Filename(src.Kind, src.Number, template, customized),
		ContentType: "application/pdf",
		Bytes:       doc.GetBytes(),
	}, nil
}

// Filename builds the download name: {kind}-{number}-{template}.pdf,
// with a -custom suffix when styling was overridden.
func Filename(kind domain.SourceKind, number string, template domain.TemplateName, customized bool) string {
	sanitized := strings.NewReplacer("/", "-", "\\", "-", " ", "-").Replace(number)
	name := fmt.Sprintf("%s-%s-%s", kind, sanitized, template)
	if customized {
		name += "-custom"
	}
	return name + ".pdf"
}

// builder accumulates rows and tracks the vertical position on the
// current page so the totals block can start a fresh page instead of
// splitting.
type builder struct {
	m      core.Maroto
	custom domain.Customization
	y      float64
}

func (b *builder) addRow(height float64, cols ...core.Col) {
	if b.y+height > usableHeight {
		b.y = 0
	}
	b.y += height
	b.m.AddRow(height, cols...)
}

// breakBeforeTotals pads the page out when the totals block would land
// too low to fit as one piece.
func (b *builder) breakBeforeTotals() {
	if b.y <= totalsThreshold {
		return
	}
	b.m.AddRow(usableHeight - b.y)
	b.y = 0
}

func (b *builder) primary() *props.Color   { return hexToColor(b.custom.PrimaryColor) }
func (b *builder) secondary() *props.Color { return hexToColor(b.custom.SecondaryColor) }
func (b *builder) accent() *props.Color    { return hexToColor(b.custom.AccentColor) }
func (b *builder) textColor() *props.Color { return hexToColor(b.custom.TextColor) }

var white = &props.Color{Red: 255, Green: 255, Blue: 255}

func heading(kind domain.SourceKind) string {
	if kind == domain.KindProposal {
		return "Proposal"
	}
	return "Invoice"
}

func (b *builder) modernHeader(src domain.Source) {
	b.addRow(18,
		text.NewCol(8, heading(src.Kind), props.Text{
			Size:  b.custom.FontSize + 10,
			Style: fontstyle.Bold,
			Color: white,
			Left:  3,
			Top:   4,
		}).WithStyle(&props.Cell{BackgroundColor: b.primary()}),
		text.NewCol(4, src.Number, props.Text{
			Size:  b.custom.FontSize + 2,
			Color: white,
			Align: align.Right,
			Right: 3,
			Top:   7,
		}).WithStyle(&props.Cell{BackgroundColor: b.primary()}),
	)
	b.addRow(6)
}

func (b *builder) classicHeader(src domain.Source) {
	b.addRow(2, line.NewCol(12, props.Line{Color: b.primary(), Thickness: 0.8}))
	b.addRow(14,
		text.NewCol(12, strings.ToUpper(heading(src.Kind)), props.Text{
			Size:  b.custom.FontSize + 8,
			Style: fontstyle.Bold,
			Color: b.primary(),
			Align: align.Center,
			Top:   3,
		}),
	)
	b.addRow(2, line.NewCol(12, props.Line{Color: b.primary(), Thickness: 0.8}))
	b.addRow(6)
}

func (b *builder) minimalHeader(src domain.Source) {
	b.addRow(12,
		text.NewCol(12, heading(src.Kind), props.Text{
			Size:  b.custom.FontSize + 6,
			Color: b.textColor(),
			Top:   2,
		}),
	)
	b.addRow(1, line.NewCol(12, props.Line{Color: b.secondary(), Thickness: 0.3}))
	b.addRow(6)
}

func (b *builder) corporateHeader(src domain.Source) {
	b.addRow(20,
		text.NewCol(12, heading(src.Kind), props.Text{
			Size:  b.custom.FontSize + 10,
			Style: fontstyle.Bold,
			Color: white,
			Align: align.Center,
			Top:   6,
		}).WithStyle(&props.Cell{BackgroundColor: b.primary()}),
	)
	b.addRow(4,
		col.New(12).WithStyle(&props.Cell{BackgroundColor: b.accent()}),
	)
	b.addRow(6)
}

func (b *builder) metaBlock(src domain.Source) {
	left := col.New(6).Add(
		text.New(heading(src.Kind)+" number: "+src.Number, props.Text{Color: b.textColor()}),
		text.New("Status: "+strings.ToUpper(src.Status), props.Text{Top: 5, Color: b.secondary()}),
	)

	var dates []core.Component
	if src.IssueDate != "" {
		dates = append(dates, text.New("Issue date: "+src.IssueDate, props.Text{Align: align.Right, Color: b.textColor()}))
	}
	if src.DueDate != "" {
		label := "Due date: "
		if src.Kind == domain.KindProposal {
			label = "Valid until: "
		}
		dates = append(dates, text.New(label+src.DueDate, props.Text{Top: 5, Align: align.Right, Color: b.textColor()}))
	}

	b.addRow(14, left, col.New(6).Add(dates...))

	if src.Title != "" {
		b.addRow(10,
			text.NewCol(12, src.Title, props.Text{
				Size:  b.custom.FontSize + 2,
				Style: fontstyle.Bold,
				Color: b.textColor(),
				Top:   2,
			}),
		)
	}
}

func (b *builder) clientBlock(src domain.Source) {
	components := []core.Component{
		text.New("Billed to", props.Text{Style: fontstyle.Bold, Color: b.primary()}),
		text.New(src.Client.Name, props.Text{Top: 5, Color: b.textColor()}),
	}
	top := 10.0
	for _, field := range []string{src.Client.Company, src.Client.Address, src.Client.Email} {
		if field == "" {
			continue
		}
		components = append(components, text.New(field, props.Text{Top: top, Color: b.secondary()}))
		top += 5
	}
	b.addRow(top+8, col.New(12).Add(components...))
}

func (b *builder) itemsTable(src domain.Source, template domain.TemplateName) {
	headerColor := b.primary()
	headerText := white
	if template == domain.TemplateMinimal {
		headerColor = nil
		headerText = b.textColor()
	}

	var headerCell *props.Cell
	if headerColor != nil {
		headerCell = &props.Cell{BackgroundColor: headerColor}
	}
	b.addRow(8,
		styled(text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Color: headerText, Left: 1, Top: 1.5}), headerCell),
		styled(text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Color: headerText, Align: align.Right, Top: 1.5}), headerCell),
		styled(text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Color: headerText, Align: align.Right, Top: 1.5}), headerCell),
		styled(text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Color: headerText, Align: align.Right, Right: 1, Top: 1.5}), headerCell),
	)
	if template == domain.TemplateMinimal {
		b.addRow(1, line.NewCol(12, props.Line{Color: b.secondary(), Thickness: 0.3}))
	}

	for i, item := range src.Items {
		var cell *props.Cell
		if i%2 == 1 && template != domain.TemplateMinimal {
			cell = &props.Cell{BackgroundColor: lighten(b.secondary())}
		}
		b.addRow(7,
			styled(text.NewCol(6, item.Description, props.Text{Color: b.textColor(), Left: 1, Top: 1}), cell),
			styled(text.NewCol(2, formatQuantity(item.Quantity), props.Text{Color: b.textColor(), Align: align.Right, Top: 1}), cell),
			styled(text.NewCol(2, "$"+money.FormatAmount(item.Rate), props.Text{Color: b.textColor(), Align: align.Right, Top: 1}), cell),
			styled(text.NewCol(2, "$"+money.FormatAmount(item.Amount), props.Text{Color: b.textColor(), Align: align.Right, Right: 1, Top: 1}), cell),
		)
	}
}

func styled(c core.Col, cell *props.Cell) core.Col {
	if cell == nil {
		return c
	}
	return c.WithStyle(cell)
}

func (b *builder) totalsBlock(src domain.Source, template domain.TemplateName) {
	b.breakBeforeTotals()

	b.addRow(4)
	b.addRow(7,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Color: b.secondary(), Align: align.Right}),
		text.NewCol(2, "$"+money.FormatAmount(src.Subtotal), props.Text{Color: b.textColor(), Align: align.Right, Right: 1}),
	)
	if src.Kind == domain.KindInvoice {
		b.addRow(7,
			col.New(8),
			text.NewCol(2, fmt.Sprintf("Tax (%s%%)", formatQuantity(src.TaxRate)), props.Text{Color: b.secondary(), Align: align.Right}),
			text.NewCol(2, "$"+money.FormatAmount(src.TaxAmount), props.Text{Color: b.textColor(), Align: align.Right, Right: 1}),
		)
	}

	totalColor := b.primary()
	if template == domain.TemplateCorporate {
		totalColor = b.accent()
	}
	b.addRow(9,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Color: totalColor, Align: align.Right, Top: 1}),
		text.NewCol(2, "$"+money.FormatAmount(src.Total), props.Text{
			Size:  b.custom.FontSize + 2,
			Style: fontstyle.Bold,
			Color: totalColor,
			Align: align.Right,
			Right: 1,
			Top:   1,
		}),
	)
}

func (b *builder) notesBlock(src domain.Source) {
	for _, section := range []struct{ label, body string }{
		{"Notes", src.Notes},
		{"Payment terms", src.Terms},
	} {
		if section.body == "" {
			continue
		}
		b.addRow(6,
			text.NewCol(12, section.label, props.Text{Style: fontstyle.Bold, Color: b.primary(), Top: 2}),
		)
		b.addRow(12,
			text.NewCol(12, section.body, props.Text{Size: b.custom.FontSize - 1, Color: b.secondary()}),
		)
	}
}

func hexToColor(hex string) *props.Color {
	trimmed := strings.TrimPrefix(hex, "#")
	if len(trimmed) != 6 {
		return &props.Color{}
	}
	r, _ := strconv.ParseInt(trimmed[0:2], 16, 32)
	g, _ := strconv.ParseInt(trimmed[2:4], 16, 32)
	bl, _ := strconv.ParseInt(trimmed[4:6], 16, 32)
	return &props.Color{Red: int(r), Green: int(g), Blue: int(bl)}
}

// lighten washes a color toward white for alternating row shading.
func lighten(c *props.Color) *props.Color {
	mix := func(v int) int { return v + (255-v)*9/10 }
	return &props.Color{Red: mix(c.Red), Green: mix(c.Green), Blue: mix(c.Blue)}
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
