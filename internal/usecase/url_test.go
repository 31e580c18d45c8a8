package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://acme.com", NormalizeURL("acme.com"))
	assert.Equal(t, "https://acme.com", NormalizeURL("  acme.com  "))
	assert.Equal(t, "http://acme.com", NormalizeURL("http://acme.com"))
	assert.Equal(t, "https://acme.com/about", NormalizeURL("https://acme.com/about"))
}

func TestIsValidURL(t *testing.T) {
	valid := []string{"acme.com", "https://acme.com", "www.acme.co.uk/path", "http://sub.acme.io:8080"}
	for _, v := range valid {
		assert.True(t, IsValidURL(v), v)
	}

	invalid := []string{"", "   ", "acme", "https://", "not a url", "https://localhost"}
	for _, v := range invalid {
		assert.False(t, IsValidURL(v), v)
	}
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "acme.com", ExtractDomain("https://ACME.com/about"))
	assert.Equal(t, "acme.com", ExtractDomain("acme.com"))
	assert.Equal(t, "bad url", ExtractDomain("bad url"))
}
