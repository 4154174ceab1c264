package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryValid(t *testing.T) {
	price := int64(50000)
	url := "https://store.example.com/item/1"
	q, err := NewQuery("galaxy buds pro", &price, &url, nil)
	require.NoError(t, err)
	assert.Equal(t, "galaxy buds pro", q.ProductName)
	assert.Equal(t, &price, q.CurrentPrice)
}

func TestNewQueryRejectsEmptyName(t *testing.T) {
	_, err := NewQuery("", nil, nil, nil)
	assert.Error(t, err)
}

func TestNewQueryRejectsOversizedName(t *testing.T) {
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NewQuery(string(long), nil, nil, nil)
	assert.Error(t, err)
}

func TestNewQueryRejectsScriptInjection(t *testing.T) {
	_, err := NewQuery("<script>alert(1)</script>", nil, nil, nil)
	assert.Error(t, err)
}

func TestNewQueryRejectsNegativePrice(t *testing.T) {
	price := int64(-1)
	_, err := NewQuery("galaxy buds pro", &price, nil, nil)
	assert.Error(t, err)
}

func TestNewQueryRejectsNonHTTPURL(t *testing.T) {
	url := "ftp://store.example.com/item/1"
	_, err := NewQuery("galaxy buds pro", nil, &url, nil)
	assert.Error(t, err)
}
