package card

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeTemplate writes a flat dark template the size of the real one
func writeTemplate(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1000, 650))
	bg := color.RGBA{R: 18, G: 18, B: 24, A: 255}
	for y := 0; y < 650; y++ {
		for x := 0; x < 1000; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	path := filepath.Join(t.TempDir(), "template.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newTestCompositor(t *testing.T, templatePath string) *Compositor {
	t.Helper()
	c, err := NewCompositor(config.CardConfig{TemplatePath: templatePath}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func testFace(months ...int) membership.CardFace {
	return membership.CardFace{
		Name:            "Ana",
		Surname:         "Pérez",
		InscriptionDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDay:          10,
		Year:            2024,
		Months:          months,
	}
}

// markedMonths reads the checkmark vertex of every anchor back from img
func markedMonths(img image.Image) []int {
	var months []int
	for i, anchor := range MonthAnchors {
		r, g, b, _ := img.At(CheckVertex(anchor).X, CheckVertex(anchor).Y).RGBA()
		if uint8(r>>8) == CheckColor.R && uint8(g>>8) == CheckColor.G && uint8(b>>8) == CheckColor.B {
			months = append(months, i+1)
		}
	}
	return months
}

func TestCompositor_RenderMarksExactlyPaidMonths(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))

	out, err := c.Render(testFace(3, 7))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1000, 650), img.Bounds())
	assert.Equal(t, []int{3, 7}, markedMonths(img))
}

func TestCompositor_RenderEveryMonth(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))
	all := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	out, err := c.Render(testFace(all...))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, all, markedMonths(img))

	out, err = c.Render(testFace())
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, markedMonths(img))
}

func TestCompositor_RenderIsDeterministic(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))

	first, err := c.Render(testFace(1, 2))
	require.NoError(t, err)
	second, err := c.Render(testFace(1, 2))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))

	other, err := c.Render(testFace(1, 2, 3))
	require.NoError(t, err)
	assert.False(t, bytes.Equal(first, other))
}

func TestCompositor_DrawsTextInWhite(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))
	out, err := c.Render(testFace(1))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	white := 0
	for y := namePos.Y - 40; y < namePos.Y+10; y++ {
		for x := namePos.X; x < 1000; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0xffff && g == 0xffff && b == 0xffff {
				white++
			}
		}
	}
	assert.Greater(t, white, 100)
}

func TestCompositor_MissingTemplate(t *testing.T) {
	c := newTestCompositor(t, filepath.Join(t.TempDir(), "missing.png"))

	_, err := c.Render(testFace(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, membership.ErrTemplateNotFound)
	assert.Equal(t, membership.CodeTemplateNotFound, shared.CodeOf(err))
}

func TestCompositor_CorruptTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))
	c := newTestCompositor(t, path)

	_, err := c.Render(testFace(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, membership.ErrRenderFailure)
}

func TestCompositor_RejectsMonthOutOfRange(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))
	_, err := c.Render(testFace(13))
	assert.ErrorIs(t, err, membership.ErrRenderFailure)
}

func TestCompositor_RejectsDueDayOutOfRange(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))
	for _, day := range []int{0, -3, 32} {
		face := testFace(1)
		face.DueDay = day
		_, err := c.Render(face)
		assert.ErrorIs(t, err, membership.ErrRenderFailure, "day %d", day)
	}
}

func TestCompositor_LongNameStaysOnCard(t *testing.T) {
	c := newTestCompositor(t, writeTemplate(t))
	face := testFace(1)
	face.Name = "María Fernanda"
	face.Surname = "González Rodríguez"

	name := DisplayName(face.Name, face.Surname)
	assert.LessOrEqual(t, float64(namePos.X)+c.textWidth(name), 1000.0)

	out, err := c.Render(face)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// the name band must be untouched in the card's rightmost columns
	bg := color.RGBA{R: 18, G: 18, B: 24, A: 255}
	painted := 0
	for y := namePos.Y - 30; y < namePos.Y+10; y++ {
		for x := 980; x < 1000; x++ {
			if color.RGBAModel.Convert(img.At(x, y)) != bg {
				painted++
			}
		}
	}
	assert.Zero(t, painted)
}

func TestCompositor_BundledTemplate(t *testing.T) {
	path := filepath.Join("..", "..", "..", "assets", "carnet_template.png")
	if _, err := os.Stat(path); err != nil {
		t.Skip("bundled template not present")
	}
	c := newTestCompositor(t, path)
	out, err := c.Render(testFace(3, 7))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, markedMonths(img))
}

func TestNewCompositor_BadFontPath(t *testing.T) {
	_, err := NewCompositor(config.CardConfig{FontPath: filepath.Join(t.TempDir(), "nope.ttf")}, nil)
	assert.Error(t, err)
}

func TestCheckOffsetY(t *testing.T) {
	assert.Equal(t, 20, CheckOffsetY(140))
	assert.Equal(t, 20, CheckOffsetY(270))
	assert.Equal(t, 0, CheckOffsetY(405))
	assert.Equal(t, -30, CheckOffsetY(540))
	assert.Equal(t, image.Pt(80, 232), CheckVertex(MonthAnchors[0]))
	assert.Equal(t, image.Pt(398, 582), CheckVertex(MonthAnchors[11]))
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "ana pérez", DisplayName(" ANA ", "PÉREZ"))
	assert.Equal(t, "05-03-2024", FormatDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "07 de cada mes", DueDayLabel(7))
	assert.Equal(t, "31 de cada mes", DueDayLabel(31))
}
