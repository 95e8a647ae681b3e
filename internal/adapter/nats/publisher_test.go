package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConn struct {
	mock.Mock
}

func (m *MockConn) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func TestPublisher_Publish_PrefixesSubject(t *testing.T) {
	conn := new(MockConn)
	conn.On("Publish", "storefront.checkout.started", []byte(`{"session":"abc"}`)).Return(nil).Once()

	pub, err := NewPublisher(conn, "storefront")
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "checkout.started", map[string]string{"session": "abc"})
	assert.NoError(t, err)
	conn.AssertExpectations(t)
}

func TestPublisher_Publish_WrapsConnError(t *testing.T) {
	conn := new(MockConn)
	conn.On("Publish", "checkout.completed", mock.Anything).Return(errors.New("nats: connection closed")).Once()

	pub, err := NewPublisher(conn, "")
	require.NoError(t, err)

	err = pub.Publish(context.Background(), "checkout.completed", struct{}{})
	assert.ErrorContains(t, err, "checkout.completed")
	conn.AssertExpectations(t)
}

func TestPublisher_Publish_CanceledContext(t *testing.T) {
	conn := new(MockConn)
	pub, err := NewPublisher(conn, "storefront")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pub.Publish(ctx, "checkout.started", struct{}{}), context.Canceled)
	conn.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNewPublisher_NilConn(t *testing.T) {
	_, err := NewPublisher(nil, "storefront")
	assert.Error(t, err)
}
