package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/notifications"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

// Custody recebe o valor que sai de um tesouro ou o troco de um pagamento.
type Custody interface {
	Deposit(addr models.Address, b *vault.Balance) error
}

// Notifier é o destino das notificações emitidas a cada mutação confirmada.
type Notifier interface {
	Append(n models.Notification) models.Notification
}

// propertyEntry é a entidade viva de um imóvel. Toda mutação do imóvel, do
// seu tesouro, dos seus investimentos e da sua capacidade acontece com mu travado.
type propertyEntry struct {
	mu       deadlock.Mutex
	property models.Property
	treasury *vault.Balance
}

// TokenizationService é o núcleo contábil: emissão e venda de cotas, tesouro,
// dividendos e o modelo de autorização por capacidade.
type TokenizationService struct {
	mu           deadlock.RWMutex // protege apenas os mapas
	properties   map[string]*propertyEntry
	investments  map[string]*models.Investment
	capabilities map[string]*models.Capability

	custody Custody
	log     Notifier
	nowFn   func() time.Time
}

// NewTokenizationService cria o núcleo contábil.
func NewTokenizationService(custody Custody, log Notifier) *TokenizationService {
	return &TokenizationService{
		properties:   make(map[string]*propertyEntry),
		investments:  make(map[string]*models.Investment),
		capabilities: make(map[string]*models.Capability),
		custody:      custody,
		log:          log,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// CreatePropertyInput são os dados de criação de um imóvel tokenizado.
type CreatePropertyInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	PropertyType  string `json:"property_type"`
	ImageURL      string `json:"image_url"`
	RentalYield   string `json:"rental_yield"`
	TotalValue    uint64 `json:"total_value"`
	TotalShares   uint64 `json:"total_shares"`
	PricePerShare uint64 `json:"price_per_share"`
}

// CreateProperty cria o imóvel com todas as cotas disponíveis, tesouro zerado
// e ativo, e entrega ao chamador a única capacidade de dono.
// Os termos numéricos não são validados.
func (s *TokenizationService) CreateProperty(ctx context.Context, caller models.Address, in CreatePropertyInput) (models.Property, models.Capability, error) {
	if err := ctx.Err(); err != nil {
		return models.Property{}, models.Capability{}, err
	}
	now := s.nowFn()
	e := &propertyEntry{
		property: models.Property{
			ID:              uuid.NewString(),
			Name:            in.Name,
			Description:     in.Description,
			Location:        in.Location,
			PropertyType:    in.PropertyType,
			ImageURL:        in.ImageURL,
			RentalYield:     in.RentalYield,
			TotalValue:      in.TotalValue,
			TotalShares:     in.TotalShares,
			AvailableShares: in.TotalShares,
			PricePerShare:   in.PricePerShare,
			IsActive:        true,
			Owner:           caller,
			CreatedAt:       now,
		},
		treasury: vault.Zero(),
	}
	capability := models.Capability{ID: uuid.NewString(), PropertyID: e.property.ID, Holder: caller}

	n, err := notifications.Encode(models.NotificationPropertyCreated, e.property.ID, models.PropertyCreatedPayload{
		PropertyID:    e.property.ID,
		Name:          in.Name,
		TotalValue:    in.TotalValue,
		TotalShares:   in.TotalShares,
		PricePerShare: in.PricePerShare,
		Owner:         caller,
		CapabilityID:  capability.ID,
	})
	if err != nil {
		return models.Property{}, models.Capability{}, err
	}

	// a entidade só fica visível depois da notificação de criação
	e.mu.Lock()
	defer e.mu.Unlock()
	s.mu.Lock()
	s.properties[e.property.ID] = e
	capCopy := capability
	s.capabilities[capability.ID] = &capCopy
	s.mu.Unlock()
	s.emit(n, now)

	logging.Debug("imóvel %s criado por %s (%d cotas a %d)", e.property.ID, caller, in.TotalShares, in.PricePerShare)
	return e.snapshot(), capability, nil
}

// SetActive liga ou desliga as compras do imóvel. Exige a capacidade do imóvel.
func (s *TokenizationService) SetActive(ctx context.Context, caller models.Address, propertyID, capabilityID string, active bool) (models.Property, error) {
	if err := ctx.Err(); err != nil {
		return models.Property{}, err
	}
	e, err := s.entry(propertyID)
	if err != nil {
		return models.Property{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.authorize(caller, propertyID, capabilityID); err != nil {
		return models.Property{}, err
	}
	n, err := notifications.Encode(models.NotificationPropertyStatusChanged, propertyID, models.PropertyStatusChangedPayload{
		PropertyID: propertyID,
		IsActive:   active,
	})
	if err != nil {
		return models.Property{}, err
	}
	e.property.IsActive = active
	s.emit(n, s.nowFn())
	logging.Debug("imóvel %s ativo=%t", propertyID, active)
	return e.snapshot(), nil
}

// TransferCapability entrega a capacidade de dono a outro endereço. Não existe
// reemissão nem revogação: quem perde a capacidade perde o controle do imóvel.
func (s *TokenizationService) TransferCapability(ctx context.Context, caller models.Address, capabilityID string, to models.Address) (models.Capability, error) {
	if err := ctx.Err(); err != nil {
		return models.Capability{}, err
	}
	s.mu.RLock()
	capability, ok := s.capabilities[capabilityID]
	s.mu.RUnlock()
	if !ok {
		return models.Capability{}, fmt.Errorf("%w: capacidade %s", ErrUnauthorized, capabilityID)
	}
	e, err := s.entry(capability.PropertyID)
	if err != nil {
		return models.Capability{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if capability.Holder != caller {
		return models.Capability{}, fmt.Errorf("%w: capacidade %s não está com %s", ErrUnauthorized, capabilityID, caller)
	}
	n, err := notifications.Encode(models.NotificationCapabilityTransferred, capability.PropertyID, models.CapabilityTransferredPayload{
		CapabilityID: capabilityID,
		From:         caller,
		To:           to,
	})
	if err != nil {
		return models.Capability{}, err
	}
	capability.Holder = to
	s.emit(n, s.nowFn())
	return *capability, nil
}

// authorize exige que o chamador apresente a capacidade ligada a propertyID e
// que a detenha. Deve ser chamado com o lock do imóvel.
func (s *TokenizationService) authorize(caller models.Address, propertyID, capabilityID string) error {
	if capabilityID == "" {
		return fmt.Errorf("%w: nenhuma capacidade apresentada", ErrUnauthorized)
	}
	s.mu.RLock()
	capability, ok := s.capabilities[capabilityID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: capacidade %s", ErrUnauthorized, capabilityID)
	}
	// PropertyID é imutável; Holder só pode ser lido sob o lock do próprio imóvel
	if capability.PropertyID != propertyID {
		return fmt.Errorf("%w: capacidade %s é do imóvel %s", ErrUnauthorized, capabilityID, capability.PropertyID)
	}
	if capability.Holder != caller {
		return fmt.Errorf("%w: capacidade %s não está com %s", ErrUnauthorized, capabilityID, caller)
	}
	return nil
}

func (s *TokenizationService) entry(propertyID string) (*propertyEntry, error) {
	s.mu.RLock()
	e, ok := s.properties[propertyID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: imóvel %s", ErrNotFound, propertyID)
	}
	return e, nil
}

func (s *TokenizationService) investment(investmentID string) (*models.Investment, error) {
	s.mu.RLock()
	inv, ok := s.investments[investmentID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: investimento %s", ErrNotFound, investmentID)
	}
	return inv, nil
}

func (s *TokenizationService) emit(n models.Notification, at time.Time) {
	n.OccurredAt = at
	if s.log != nil {
		s.log.Append(n)
	}
}

func (e *propertyEntry) snapshot() models.Property {
	p := e.property
	p.Treasury = e.treasury.Value()
	return p
}
