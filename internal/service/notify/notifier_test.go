package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	whatsappclient "github.com/mamadbah2/herdbook/pkg/clients/whatsapp"
)

type clientMock struct {
	mock.Mock
}

func (m *clientMock) SendTextMessage(ctx context.Context, req whatsappclient.SendTextMessageRequest) (*whatsappclient.SendTextMessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*whatsappclient.SendTextMessageResponse)
	return resp, args.Error(1)
}

func TestWhatsAppNotify(t *testing.T) {
	client := new(clientMock)
	client.On("SendTextMessage", mock.Anything, whatsappclient.SendTextMessageRequest{To: "5561999", Body: "feed low"}).
		Return(&whatsappclient.SendTextMessageResponse{}, nil).Once()

	n := NewWhatsApp(client, "5561999", nil)
	require.NoError(t, n.Notify(context.Background(), "feed low"))
	require.NoError(t, n.Notify(context.Background(), ""))

	client.AssertExpectations(t)
}

func TestWhatsAppNotifyError(t *testing.T) {
	client := new(clientMock)
	client.On("SendTextMessage", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	err := NewWhatsApp(client, "5561999", nil).Notify(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestLogNotify(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLog(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), "hello"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].ContextMap()["message"])
}
