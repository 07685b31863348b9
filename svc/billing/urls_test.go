package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutReturnURLs(t *testing.T) {
	t.Parallel()

	t.Run("standard upgrade path", func(t *testing.T) {
		t.Parallel()
		success, cancel := checkoutReturnURLs("https://host/user/upgrade")
		assert.Equal(t, "https://host/login?success=true", success)
		assert.Equal(t, "https://host", cancel)
	})

	t.Run("keeps port and scheme", func(t *testing.T) {
		t.Parallel()
		success, cancel := checkoutReturnURLs("http://localhost:8080/user/upgrade")
		assert.Equal(t, "http://localhost:8080/login?success=true", success)
		assert.Equal(t, "http://localhost:8080", cancel)
	})

	t.Run("base without user segment", func(t *testing.T) {
		t.Parallel()
		success, cancel := checkoutReturnURLs("https://host")
		assert.Equal(t, "https://host/login?success=true", success)
		assert.Equal(t, "https://host", cancel)
	})

	t.Run("cancel cuts at first user segment", func(t *testing.T) {
		t.Parallel()
		_, cancel := checkoutReturnURLs("https://host/user/upgrade/user")
		assert.Equal(t, "https://host", cancel)
	})
}

func TestCardUpdateReturnURLs(t *testing.T) {
	t.Parallel()

	success, cancel := cardUpdateReturnURLs("https://host/user/update-card")
	assert.Equal(t, "https://host/user?success=true", success)
	assert.Equal(t, "https://host/user", cancel)
}
