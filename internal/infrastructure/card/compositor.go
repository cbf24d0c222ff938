// Package card draws membership card images onto the gym's PNG template.
package card

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Text positions on the template, in template pixels. Y is the baseline.
var (
	namePos        = image.Pt(508, 285)
	inscriptionPos = image.Pt(505, 490)
	dueDayPos      = image.Pt(505, 590)
)

// MonthAnchors maps month 1-12 to its cell on the template grid
var MonthAnchors = [12]image.Point{
	{82, 140}, {240, 140}, {400, 140},
	{82, 270}, {240, 270}, {400, 270},
	{82, 405}, {240, 405}, {400, 405},
	{82, 540}, {240, 540}, {400, 540},
}

// DefaultFontSize is the card text size in template pixels
const DefaultFontSize = 25

var (
	textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	// CheckColor is the stroke color of the paid-month mark
	CheckColor = color.RGBA{R: 255, G: 215, B: 0, A: 255}
)

const (
	checkWidth = 9.0
	// textStroke is the width of the white stroke around card text
	textStroke = 1.5
)

// strokeOffsets trace a circle of radius textStroke/2 around the glyph
// origin; stamping the text there widens it as a centered stroke would.
var strokeOffsets = [...]gg.Point{
	{X: 0.75, Y: 0}, {X: -0.75, Y: 0}, {X: 0, Y: 0.75}, {X: 0, Y: -0.75},
	{X: 0.53, Y: 0.53}, {X: -0.53, Y: 0.53}, {X: 0.53, Y: -0.53}, {X: -0.53, Y: -0.53},
}

// Compositor renders card faces. It is stateless apart from the parsed
// font and safe for concurrent use.
type Compositor struct {
	templatePath string
	logger       *zap.Logger

	// font.Face caches glyphs and is not safe for concurrent use
	faceMu sync.Mutex
	face   font.Face
}

// NewCompositor parses the configured font, falling back to the embedded
// Go Bold face. The template is read on every render.
func NewCompositor(cfg config.CardConfig, logger *zap.Logger) (*Compositor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data := gobold.TTF
	if cfg.FontPath != "" {
		custom, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read card font: %w", err)
		}
		data = custom
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse card font: %w", err)
	}

	size := cfg.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return &Compositor{
		templatePath: cfg.TemplatePath,
		face:         face,
		logger:       logger.Named("card"),
	}, nil
}

// Render draws face onto the template and encodes it as PNG. The output
// depends only on face and the template, so equal inputs give equal bytes.
func (c *Compositor) Render(face membership.CardFace) ([]byte, error) {
	start := time.Now()

	if face.DueDay < 1 || face.DueDay > 31 {
		return nil, newRenderError(membership.ErrRenderFailure, fmt.Sprintf("due day %d is outside 1-31", face.DueDay), nil)
	}
	for _, month := range face.Months {
		if month < 1 || month > 12 {
			return nil, newRenderError(membership.ErrRenderFailure, fmt.Sprintf("month %d is outside 1-12", month), nil)
		}
	}

	tmpl, err := c.loadTemplate()
	if err != nil {
		return nil, err
	}
	dc := gg.NewContextForImage(tmpl)

	c.drawText(dc,
		label{DisplayName(face.Name, face.Surname), namePos},
		label{FormatDate(face.InscriptionDate), inscriptionPos},
		label{DueDayLabel(face.DueDay), dueDayPos},
	)
	for _, month := range face.Months {
		drawCheck(dc, MonthAnchors[month-1])
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dc.Image()); err != nil {
		return nil, newRenderError(membership.ErrRenderFailure, "failed to encode card", err)
	}

	c.logger.Debug("Card rendered",
		zap.Ints("months", face.Months),
		zap.Int("year", face.Year),
		zap.Int("bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return buf.Bytes(), nil
}

func (c *Compositor) loadTemplate() (image.Image, error) {
	f, err := os.Open(c.templatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newRenderError(membership.ErrTemplateNotFound, "card template not found at "+c.templatePath, err)
		}
		return nil, newRenderError(membership.ErrRenderFailure, "failed to open card template", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, newRenderError(membership.ErrRenderFailure, "failed to decode card template", err)
	}
	return img, nil
}

type label struct {
	text string
	at   image.Point
}

// drawText strokes then fills each label in white
func (c *Compositor) drawText(dc *gg.Context, labels ...label) {
	c.faceMu.Lock()
	defer c.faceMu.Unlock()

	dc.SetFontFace(c.face)
	dc.SetColor(textColor)
	for _, l := range labels {
		x, y := float64(l.at.X), float64(l.at.Y)
		for _, o := range strokeOffsets {
			dc.DrawString(l.text, x+o.X, y+o.Y)
		}
		dc.DrawString(l.text, x, y)
	}
}

// textWidth is the advance of text in the card face, stroke included
func (c *Compositor) textWidth(text string) float64 {
	c.faceMu.Lock()
	defer c.faceMu.Unlock()

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(c.face)
	w, _ := dc.MeasureString(text)
	return w + textStroke
}

// CheckOffsetY shifts the mark inside the taller top rows and the shorter
// bottom row of the template grid.
func CheckOffsetY(anchorY int) int {
	switch {
	case anchorY < 350:
		return 20
	case anchorY > 450:
		return -30
	default:
		return 0
	}
}

// CheckVertex is the bottom point of the checkmark drawn at anchor
func CheckVertex(anchor image.Point) image.Point {
	return image.Pt(anchor.X-2, anchor.Y+72+CheckOffsetY(anchor.Y))
}

// drawCheck strokes the two legs of the mark as separate round-capped paths
func drawCheck(dc *gg.Context, anchor image.Point) {
	oy := float64(CheckOffsetY(anchor.Y))
	x, y := float64(anchor.X), float64(anchor.Y)
	vertex := CheckVertex(anchor)
	vx, vy := float64(vertex.X), float64(vertex.Y)

	dc.SetColor(CheckColor)
	dc.SetLineWidth(checkWidth)
	dc.SetLineCap(gg.LineCapRound)

	dc.DrawLine(x-23, y+55+oy, vx, vy)
	dc.Stroke()
	dc.DrawLine(vx, vy, x+48, y+18+oy)
	dc.Stroke()
}

// DisplayName is the lowercased "name surname" printed on the card
func DisplayName(name, surname string) string {
	// a Caser keeps state between calls and cannot be shared
	return cases.Lower(language.Spanish).String(strings.TrimSpace(strings.TrimSpace(name) + " " + strings.TrimSpace(surname)))
}

// FormatDate prints t as DD-MM-YYYY
func FormatDate(t time.Time) string {
	return t.Format("02-01-2006")
}

// DueDayLabel is the "DD de cada mes" line
func DueDayLabel(day int) string {
	return fmt.Sprintf("%02d de cada mes", day)
}

// RenderError reports a failed render. It matches the membership sentinel
// it was built with under errors.Is and errors.As.
type RenderError struct {
	Kind    error
	Message string
	Cause   error
}

func newRenderError(kind error, message string, cause error) *RenderError {
	return &RenderError{Kind: kind, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause
func (e *RenderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
