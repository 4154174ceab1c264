package fastpath

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/priceradar/pricesearch-engine/src/errtax"
)

func TestClassifyTransportOwnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	time.Sleep(time.Millisecond)

	err := classifyTransport(ctx, errors.New("request canceled"))
	ee, ok := errtax.As(err)
	assert.True(t, ok)
	assert.Equal(t, errtax.Timeout, ee.Kind)
}

func TestClassifyTransportNetworkFailure(t *testing.T) {
	ctx := context.Background()
	err := classifyTransport(ctx, errors.New("connection reset by peer"))
	ee, ok := errtax.As(err)
	assert.True(t, ok)
	assert.Equal(t, errtax.Timeout, ee.Kind)
}

func TestClassifyTransportTimeoutMessage(t *testing.T) {
	ctx := context.Background()
	err := classifyTransport(ctx, errors.New("Client.Timeout exceeded while awaiting headers"))
	ee, ok := errtax.As(err)
	assert.True(t, ok)
	assert.Equal(t, errtax.Timeout, ee.Kind)
}
