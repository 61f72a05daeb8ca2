// Package notifications implementa o log de notificações: somente acréscimo,
// ordenado, lido por indexadores a partir de um cursor.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

// Log guarda as notificações em ordem. Seq começa em 1 e não tem lacunas.
type Log struct {
	mu      deadlock.RWMutex
	entries []models.Notification
	changed chan struct{}
	nowFn   func() time.Time
}

func NewLog() *Log {
	return &Log{
		changed: make(chan struct{}),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Encode prepara uma notificação ainda sem número de sequência.
// Falhas de serialização acontecem aqui, antes de qualquer mutação do chamador.
func Encode(notificationType, propertyID string, payload any) (models.Notification, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return models.Notification{}, fmt.Errorf("falha ao serializar notificação %s: %w", notificationType, err)
	}
	return models.Notification{
		ID:         uuid.NewString(),
		Type:       notificationType,
		PropertyID: propertyID,
		Data:       b,
	}, nil
}

// Append acrescenta n ao final do log e acorda os assinantes.
func (l *Log) Append(n models.Notification) models.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	n.Seq = uint64(len(l.entries)) + 1
	if n.OccurredAt.IsZero() {
		n.OccurredAt = l.nowFn()
	}
	l.entries = append(l.entries, n)
	close(l.changed)
	l.changed = make(chan struct{})
	return n
}

// Since retorna até limit notificações com Seq > cursor. limit <= 0 retorna todas.
func (l *Log) Since(cursor uint64, limit int) []models.Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.since(cursor, limit)
}

func (l *Log) since(cursor uint64, limit int) []models.Notification {
	if cursor >= uint64(len(l.entries)) {
		return nil
	}
	rest := l.entries[cursor:]
	if limit > 0 && len(rest) > limit {
		rest = rest[:limit]
	}
	out := make([]models.Notification, len(rest))
	copy(out, rest)
	return out
}

// Head é o Seq da última notificação (0 se vazio).
func (l *Log) Head() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.entries))
}

// Subscribe entrega, em ordem, todas as notificações com Seq > cursor e as
// que chegarem depois, até ctx ser cancelado.
func (l *Log) Subscribe(ctx context.Context, cursor uint64) <-chan models.Notification {
	out := make(chan models.Notification)
	go func() {
		defer close(out)
		for {
			l.mu.RLock()
			batch := l.since(cursor, 0)
			wait := l.changed
			l.mu.RUnlock()

			for _, n := range batch {
				select {
				case out <- n:
					cursor = n.Seq
				case <-ctx.Done():
					return
				}
			}
			if len(batch) > 0 {
				continue
			}
			select {
			case <-wait:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
