package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaq/novaq-dashboard/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.RenderStatus(rec, http.StatusBadRequest, "pages/login.html", TemplateData{
		Title:     "Нэвтрэх",
		CSRFToken: "csrf-123",
		Flash:     &shared.FlashMessage{Kind: shared.FlashError, Message: "Нэвтрэх нэр эсвэл нууц үг буруу байна."},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `value="csrf-123"`)
	assert.Contains(t, body, "Нэвтрэх нэр эсвэл нууц үг буруу байна.")
}

func TestRenderUnknownTemplateWritesNothing(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	assert.Error(t, engine.Render(rec, "pages/missing.html", TemplateData{}))
	assert.Empty(t, rec.Body.String())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-", FormatAmount(nil))
	v := 1234.5
	out := FormatAmount(&v)
	assert.True(t, strings.HasSuffix(out, "50"), out)
	assert.True(t, strings.HasPrefix(out, "1"), out)
}

func TestFormatNumberKeepsRawValue(t *testing.T) {
	assert.Equal(t, "", FormatNumber(nil))
	v := 1234.5
	assert.Equal(t, "1234.5", FormatNumber(&v))
	v = 0
	assert.Equal(t, "0", FormatNumber(&v))
}
