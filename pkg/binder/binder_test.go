package binder_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshiya/membership/pkg/binder"
)

type testForm struct {
	Name    string  `form:"name"`
	Age     int     `form:"age"`
	Rate    float64 `form:"rate"`
	Active  bool    `form:"active"`
	Pointer *string `form:"pointer"`
	Skipped string  `form:"-"`
	private string  `form:"private"`
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestForm(t *testing.T) {
	t.Parallel()

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		var form testForm
		err := binder.Form()(formRequest(url.Values{
			"name":    {"Taro"},
			"age":     {"30"},
			"rate":    {"1.5"},
			"active":  {"on"},
			"pointer": {"set"},
		}), &form)
		require.NoError(t, err)

		assert.Equal(t, "Taro", form.Name)
		assert.Equal(t, 30, form.Age)
		assert.Equal(t, 1.5, form.Rate)
		assert.True(t, form.Active)
		require.NotNil(t, form.Pointer)
		assert.Equal(t, "set", *form.Pointer)
	})

	t.Run("missing values leave fields untouched", func(t *testing.T) {
		t.Parallel()
		form := testForm{Name: "existing", Age: 7}
		err := binder.Form()(formRequest(url.Values{"rate": {"2.0"}}), &form)
		require.NoError(t, err)

		assert.Equal(t, "existing", form.Name)
		assert.Equal(t, 7, form.Age)
		assert.Equal(t, 2.0, form.Rate)
	})

	t.Run("skips GET requests", func(t *testing.T) {
		t.Parallel()
		var form testForm
		req := httptest.NewRequest(http.MethodGet, "/?name=query", nil)
		require.NoError(t, binder.Form()(req, &form))
		assert.Empty(t, form.Name)
	})

	t.Run("rejects wrong content type", func(t *testing.T) {
		t.Parallel()
		var form testForm
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		err := binder.Form()(req, &form)
		assert.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	t.Run("rejects unparsable numbers", func(t *testing.T) {
		t.Parallel()
		var form testForm
		err := binder.Form()(formRequest(url.Values{"age": {"not-a-number"}}), &form)
		assert.ErrorIs(t, err, binder.ErrInvalidForm)
	})

	t.Run("rejects non-struct targets", func(t *testing.T) {
		t.Parallel()
		var n int
		err := binder.Form()(formRequest(url.Values{}), &n)
		assert.ErrorIs(t, err, binder.ErrNotStructPointer)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type q struct {
		Token string `query:"token"`
		Page  int    `query:"page"`
	}

	var target q
	req := httptest.NewRequest(http.MethodGet, "/?token=abc&page=3", nil)
	require.NoError(t, binder.Query()(req, &target))
	assert.Equal(t, "abc", target.Token)
	assert.Equal(t, 3, target.Page)
}
