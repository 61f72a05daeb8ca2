package ledger_listener_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ferreirogomes/tijolo/ledger_listener"
	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/notifications"
	"github.com/ferreirogomes/tijolo/services"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/gagliardetto/solana-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMirror é uma implementação mock de ledger_listener.Mirror
type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) SaveProperty(ctx context.Context, p models.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockMirror) SaveInvestment(ctx context.Context, inv models.Investment) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockMirror) SaveCursor(ctx context.Context, name string, seq uint64) error {
	args := m.Called(ctx, name, seq)
	return args.Error(0)
}
func (m *MockMirror) LoadCursor(ctx context.Context, name string) (uint64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(uint64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}
func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

type ledger struct {
	svc     *services.TokenizationService
	log     *notifications.Log
	custody *vault.Custody
}

func newLedger() ledger {
	custody := vault.NewCustody(true)
	log := notifications.NewLog()
	return ledger{svc: services.NewTokenizationService(custody, log), log: log, custody: custody}
}

// seed cria um imóvel e uma compra: notificações 1 e 2.
func (l ledger) seed(t *testing.T) (models.Property, models.Investment) {
	t.Helper()
	ctx := context.Background()
	owner, investor := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	p, _, err := l.svc.CreateProperty(ctx, owner, services.CreatePropertyInput{Name: "Casa Verde", TotalShares: 10, PricePerShare: 100})
	require.NoError(t, err)
	require.NoError(t, l.custody.Fund(investor, 300))
	payment, err := l.custody.Withdraw(investor, 300)
	require.NoError(t, err)
	inv, err := l.svc.Invest(ctx, investor, p.ID, payment, 3)
	require.NoError(t, err)
	return p, inv
}

func TestProcessNotificationMirrorsEntities(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	p, inv := l.seed(t)
	mirror := new(MockMirror)
	publisher := new(MockPublisher)
	listener := ledger_listener.NewLedgerListener(l.log, l.svc, mirror, publisher)

	events := l.log.Since(0, 0)
	require.Len(t, events, 2)

	mirror.On("SaveProperty", ctx, mock.MatchedBy(func(got models.Property) bool {
		return got.ID == p.ID && got.AvailableShares == 7 && got.Treasury == 300
	})).Return(nil).Twice()
	mirror.On("SaveInvestment", ctx, inv).Return(nil).Once()
	publisher.On("Publish", ctx, mock.AnythingOfType("models.Notification")).Return(nil).Twice()

	for _, n := range events {
		require.NoError(t, listener.ProcessNotification(ctx, n))
	}

	mirror.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProcessNotificationFailsWhenMirrorFails(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	l.seed(t)
	mirror := new(MockMirror)
	publisher := new(MockPublisher)
	listener := ledger_listener.NewLedgerListener(l.log, l.svc, mirror, publisher)

	mirror.On("SaveProperty", ctx, mock.Anything).Return(errors.New("conexão recusada")).Once()

	err := listener.ProcessNotification(ctx, l.log.Since(0, 1)[0])

	assert.Error(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProcessNotificationRejectsMissingInvestment(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	mirror := new(MockMirror)
	listener := ledger_listener.NewLedgerListener(l.log, l.svc, mirror)

	data, _ := json.Marshal(models.InvestmentTransferredPayload{InvestmentID: "inexistente"})
	err := listener.ProcessNotification(ctx, models.Notification{Seq: 9, Type: models.NotificationInvestmentTransferred, Data: data})

	assert.ErrorIs(t, err, services.ErrNotFound)
	mirror.AssertNotCalled(t, "SaveInvestment", mock.Anything, mock.Anything)
}

func TestStartListeningResumesFromCursor(t *testing.T) {
	l := newLedger()
	_, inv := l.seed(t)
	mirror := new(MockMirror)
	listener := ledger_listener.NewLedgerListener(l.log, l.svc, mirror)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a notificação 1 já foi processada numa execução anterior
	mirror.On("LoadCursor", mock.Anything, "mirror").Return(uint64(1), nil).Once()
	mirror.On("SaveProperty", mock.Anything, mock.Anything).Return(nil)
	mirror.On("SaveInvestment", mock.Anything, inv).Return(nil).Once()
	saved := make(chan struct{})
	mirror.On("SaveCursor", mock.Anything, "mirror", uint64(2)).Return(nil).Once().
		Run(func(mock.Arguments) { close(saved) })

	done := make(chan error, 1)
	go func() { done <- listener.StartListening(ctx) }()

	select {
	case <-saved:
	case <-time.After(2 * time.Second):
		t.Fatal("cursor não foi gravado")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener não terminou após o cancelamento")
	}
	mirror.AssertNumberOfCalls(t, "SaveProperty", 1)
	mirror.AssertExpectations(t)
}

func TestKafkaForwarderPublishesByProperty(t *testing.T) {
	ctx := context.Background()
	w := new(MockWriter)
	f := ledger_listener.NewKafkaForwarderWithWriter(w, "tijolo.notifications")
	n := models.Notification{Seq: 4, ID: "n-4", Type: models.NotificationDividendsClaimed, PropertyID: "imovel-1", Data: json.RawMessage(`{"amount":10}`)}

	w.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		var got models.Notification
		if err := json.Unmarshal(msgs[0].Value, &got); err != nil {
			return false
		}
		return msgs[0].Topic == "tijolo.notifications" &&
			string(msgs[0].Key) == "imovel-1" &&
			got.Seq == 4 && got.Type == models.NotificationDividendsClaimed
	})).Return(nil).Once()

	require.NoError(t, f.Publish(ctx, n))
	w.AssertExpectations(t)
}

func TestNewKafkaForwarderRequiresBrokers(t *testing.T) {
	_, err := ledger_listener.NewKafkaForwarder(nil, "t")
	assert.Error(t, err)
}

func TestCursorOnlyMirrorConcurrentCursors(t *testing.T) {
	m := &ledger_listener.CursorOnlyMirror{}
	ctx := context.Background()

	seq, err := m.LoadCursor(ctx, "kafka")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	done := make(chan struct{})
	for i := 1; i <= 20; i++ {
		go func(n uint64) {
			defer func() { done <- struct{}{} }()
			assert.NoError(t, m.SaveCursor(ctx, "kafka", n))
			_, err := m.LoadCursor(ctx, "kafka")
			assert.NoError(t, err)
		}(uint64(i))
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	require.NoError(t, m.SaveCursor(ctx, "kafka", 21))
	seq, err = m.LoadCursor(ctx, "kafka")
	require.NoError(t, err)
	assert.Equal(t, uint64(21), seq)
	assert.NoError(t, m.SaveProperty(ctx, models.Property{}))
}
