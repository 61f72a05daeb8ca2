package ledger_listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/models"

	"github.com/sasha-s/go-deadlock"
)

// Source entrega as notificações com Seq > cursor e as que chegarem depois.
type Source interface {
	Subscribe(ctx context.Context, cursor uint64) <-chan models.Notification
}

// ReadModel são as visões somente-leitura do núcleo contábil.
type ReadModel interface {
	GetProperty(ctx context.Context, propertyID string) (models.Property, error)
	GetInvestment(ctx context.Context, investmentID string) (models.Investment, error)
}

// Mirror é o espelho consultável mantido pelo listener.
type Mirror interface {
	SaveProperty(ctx context.Context, p models.Property) error
	SaveInvestment(ctx context.Context, inv models.Investment) error
	SaveCursor(ctx context.Context, name string, seq uint64) error
	LoadCursor(ctx context.Context, name string) (uint64, error)
}

// Publisher reenvia notificações para fora do processo (Kafka).
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// LedgerListener acompanha o log de notificações para manter o espelho sincronizado.
type LedgerListener struct {
	Name       string
	Source     Source
	Core       ReadModel
	Mirror     Mirror
	Publishers []Publisher

	// CursorEvery é de quantas em quantas notificações o cursor é gravado.
	// Reprocessar uma notificação é inofensivo: o espelho é sobrescrito com a visão atual.
	CursorEvery int
	RetryDelay  time.Duration
}

// NewLedgerListener cria uma nova instância do listener.
func NewLedgerListener(source Source, core ReadModel, mirror Mirror, publishers ...Publisher) *LedgerListener {
	return &LedgerListener{
		Name:        "mirror",
		Source:      source,
		Core:        core,
		Mirror:      mirror,
		Publishers:  publishers,
		CursorEvery: 1,
		RetryDelay:  5 * time.Second,
	}
}

// StartListening retoma do cursor gravado e processa até ctx ser cancelado.
// Uma notificação que falha é tentada de novo; o cursor nunca passa dela.
func (l *LedgerListener) StartListening(ctx context.Context) error {
	cursor, err := l.Mirror.LoadCursor(ctx, l.Name)
	if err != nil {
		return fmt.Errorf("falha ao carregar cursor %s: %w", l.Name, err)
	}
	logging.Info("listener %s iniciando a partir da notificação %d", l.Name, cursor)

	pending := 0
	for n := range l.Source.Subscribe(ctx, cursor) {
		for {
			err := l.ProcessNotification(ctx, n)
			if err == nil {
				break
			}
			logging.Error("falha ao processar notificação %d (%s): %v", n.Seq, n.Type, err)
			select {
			case <-ctx.Done():
				return l.flush(cursor, pending)
			case <-time.After(l.RetryDelay):
			}
		}
		cursor = n.Seq
		pending++
		if l.CursorEvery <= 1 || pending >= l.CursorEvery {
			if err := l.Mirror.SaveCursor(ctx, l.Name, cursor); err != nil {
				logging.Warn("falha ao gravar cursor %d: %v", cursor, err)
				continue
			}
			pending = 0
		}
	}
	return l.flush(cursor, pending)
}

func (l *LedgerListener) flush(cursor uint64, pending int) error {
	if pending == 0 {
		return nil
	}
	// ctx já foi cancelado; a gravação final usa um contexto próprio
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Mirror.SaveCursor(ctx, l.Name, cursor); err != nil {
		return fmt.Errorf("falha ao gravar cursor final %d: %w", cursor, err)
	}
	return nil
}

// ProcessNotification atualiza o espelho com a visão atual das entidades tocadas
// pela notificação e a reenvia aos publishers.
func (l *LedgerListener) ProcessNotification(ctx context.Context, n models.Notification) error {
	logging.Trace("notificação %d: %s imóvel=%s", n.Seq, n.Type, n.PropertyID)

	switch n.Type {
	case models.NotificationPropertyCreated,
		models.NotificationPropertyStatusChanged,
		models.NotificationInvestmentPurchased,
		models.NotificationDividendsDistributed,
		models.NotificationDividendsClaimed:
		if err := l.syncProperty(ctx, n.PropertyID); err != nil {
			return err
		}
	case models.NotificationInvestmentTransferred,
		models.NotificationListingSold,
		models.NotificationInvestmentListed,
		models.NotificationCapabilityTransferred:
		// não alteram o imóvel
	default:
		logging.Warn("tipo de notificação não tratado: %s", n.Type)
	}
	if n.IsInvestmentEvent() {
		if err := l.syncInvestment(ctx, n); err != nil {
			return err
		}
	}

	for _, p := range l.Publishers {
		if err := p.Publish(ctx, n); err != nil {
			return fmt.Errorf("falha ao publicar notificação %d: %w", n.Seq, err)
		}
	}
	return nil
}

func (l *LedgerListener) syncProperty(ctx context.Context, propertyID string) error {
	p, err := l.Core.GetProperty(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("falha ao ler imóvel %s: %w", propertyID, err)
	}
	if err := l.Mirror.SaveProperty(ctx, p); err != nil {
		return fmt.Errorf("falha ao espelhar imóvel %s: %w", propertyID, err)
	}
	return nil
}

func (l *LedgerListener) syncInvestment(ctx context.Context, n models.Notification) error {
	var ref struct {
		InvestmentID string `json:"investment_id"`
	}
	if err := json.Unmarshal(n.Data, &ref); err != nil {
		return fmt.Errorf("falha ao decodificar notificação %d: %w", n.Seq, err)
	}
	if ref.InvestmentID == "" {
		return fmt.Errorf("notificação %d (%s) sem investment_id", n.Seq, n.Type)
	}
	inv, err := l.Core.GetInvestment(ctx, ref.InvestmentID)
	if err != nil {
		return fmt.Errorf("falha ao ler investimento %s: %w", ref.InvestmentID, err)
	}
	if err := l.Mirror.SaveInvestment(ctx, inv); err != nil {
		return fmt.Errorf("falha ao espelhar investimento %s: %w", ref.InvestmentID, err)
	}
	return nil
}

// CursorOnlyMirror descarta as visões e guarda o cursor só em memória.
// Serve ao modo em que o listener apenas reenvia notificações ao Kafka.
type CursorOnlyMirror struct {
	mu      deadlock.Mutex
	cursors map[string]uint64
}

func (m *CursorOnlyMirror) SaveProperty(context.Context, models.Property) error     { return nil }
func (m *CursorOnlyMirror) SaveInvestment(context.Context, models.Investment) error { return nil }

func (m *CursorOnlyMirror) SaveCursor(_ context.Context, name string, seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursors == nil {
		m.cursors = make(map[string]uint64)
	}
	m.cursors[name] = seq
	return nil
}

func (m *CursorOnlyMirror) LoadCursor(_ context.Context, name string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursors[name], nil
}
