package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MembershipService runs the write paths that move a client's standing:
// the alta, registering a paid month and voiding one. Each runs in a
// single transaction together with the card upsert and the outbox events,
// and the card image is drawn after commit by the outbox processor.
type MembershipService struct {
	txScope    TransactionScope
	registry   *CardRegistry
	defaultFee decimal.Decimal
	clock      Clock
	logger     *zap.Logger
	metrics    *telemetry.BusinessMetrics
}

// NewMembershipService creates a new membership service
func NewMembershipService(txScope TransactionScope, registry *CardRegistry, defaultFee decimal.Decimal, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{
		txScope:    txScope,
		registry:   registry,
		defaultFee: defaultFee,
		clock:      time.Now,
		logger:     logger,
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *MembershipService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// SetClock replaces the time source
func (s *MembershipService) SetClock(clock Clock) {
	s.clock = clock
}

type paymentTerms struct {
	amount      decimal.Decimal
	method      membership.PaymentMethod
	period      membership.Period
	paymentDate time.Time
	dueDate     *time.Time
}

func (s *MembershipService) resolveTerms(amount *decimal.Decimal, method string, month, year *int, paymentDate, dueDate string, now time.Time) (*paymentTerms, error) {
	terms := &paymentTerms{amount: s.defaultFee}
	if amount != nil {
		terms.amount = *amount
	}
	if !terms.amount.IsPositive() {
		return nil, membership.ErrInvalidAmount
	}

	m, err := membership.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}
	terms.method = m

	paid, err := ParseDate(paymentDate, now)
	if err != nil {
		return nil, err
	}
	terms.paymentDate = paid

	if dueDate != "" {
		due, err := ParseDate(dueDate, now)
		if err != nil {
			return nil, err
		}
		terms.dueDate = &due
	}

	period, err := ResolvePeriod(month, year, paid)
	if err != nil {
		return nil, err
	}
	terms.period = period
	return terms, nil
}

// RegisterClient performs an alta: it creates the usuario with rol
// cliente, the client, the first paid month and the card in one
// transaction. A taken username or email fails with ALREADY_EXISTS.
func (s *MembershipService) RegisterClient(ctx context.Context, actorID uuid.UUID, req RegisterClientRequest) (*RegistrationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "register_client")
	defer span.End()

	now := s.clock()
	inscription, err := ParseDate(req.InscriptionDate, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	terms, err := s.resolveTerms(req.Amount, req.Method, req.Month, req.Year, "", "", now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		client  *membership.Client
		payment *membership.Payment
		change  *CardChange
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("register_client", nil), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			account, err := s.createAccount(c, repos.Accounts(), req)
			if err != nil {
				return err
			}

			client, err = membership.NewClient(account.ID, req.Name, req.Surname, req.Phone, inscription)
			if err != nil {
				return err
			}
			client.Address = strings.TrimSpace(req.Address)
			client.TrainerID = req.TrainerID
			client.SetCreatedBy(actorID)
			if err := repos.Clients().Create(c, client); err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			payment, change, err = s.applyPayment(c, repos, client, actorID, terms, req.Reference, req.Notes, now)
			if err != nil {
				return err
			}

			events := []shared.DomainEvent{
				membership.NewClientRegisteredEvent(client),
				membership.NewPaymentRegisteredEvent(payment),
			}
			if change.Changed {
				events = append(events, membership.NewCardRenderRequestedEvent(change.Card, terms.period))
			}
			return repos.Events().Publish(c, events...)
		})
	})
	if err != nil {
		s.recordFailure(ctx, err)
		telemetry.RecordError(span, err)
		s.logger.Warn("Client registration failed",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordClientRegistered(ctx)
		s.metrics.RecordPaymentRegistered(ctx, payment.Method, payment.Amount)
	}
	telemetry.SetOK(span)
	s.logger.Info("Client registered",
		zap.String("client_id", client.ID.String()),
		zap.String("period", payment.Period.Key()),
	)

	return &RegistrationResponse{
		Client:  ToClientResponse(client, now),
		Payment: ToPaymentResponse(payment),
		Card:    ToCardResponse(change.Card),
	}, nil
}

func (s *MembershipService) createAccount(ctx context.Context, accounts membership.AccountRepository, req RegisterClientRequest) (*membership.Account, error) {
	account, err := membership.NewAccount(req.Username, req.Email, req.Password, membership.RoleClient)
	if err != nil {
		return nil, err
	}

	taken, err := accounts.ExistsByUsername(ctx, account.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}
	taken, err = accounts.ExistsByEmail(ctx, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}

	if err := accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// RegisterPayment records a paid month for an existing client. The amount
// defaults to the configured fee, the method to efectivo and the period to
// the month of the payment date.
func (s *MembershipService) RegisterPayment(ctx context.Context, actorID uuid.UUID, req RegisterPaymentRequest) (*PaymentReceipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "register_payment", "client_id", req.ClientID)
	defer span.End()

	now := s.clock()
	terms, err := s.resolveTerms(req.Amount, req.Method, req.Month, req.Year, req.PaymentDate, req.DueDate, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "period", terms.period.Key(), "method", string(terms.method))

	var (
		client  *membership.Client
		payment *membership.Payment
		change  *CardChange
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("register_payment", map[string]string{"method": string(terms.method)}), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			client, err = repos.Clients().FindByIDForUpdate(c, req.ClientID)
			if err != nil {
				return err
			}
			if !client.Active {
				return shared.NewDomainError("INVALID_STATE", "Client is deactivated")
			}

			payment, change, err = s.applyPayment(c, repos, client, actorID, terms, req.Reference, req.Notes, now)
			if err != nil {
				return err
			}

			events := []shared.DomainEvent{membership.NewPaymentRegisteredEvent(payment)}
			if change.Changed {
				events = append(events, membership.NewCardRenderRequestedEvent(change.Card, terms.period))
			}
			return repos.Events().Publish(c, events...)
		})
	})
	if err != nil {
		s.recordFailure(ctx, err)
		telemetry.RecordError(span, err)
		s.logger.Warn("Payment registration failed",
			zap.String("client_id", req.ClientID.String()),
			zap.String("period", terms.period.Key()),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentRegistered(ctx, payment.Method, payment.Amount)
	}
	telemetry.SetOK(span)
	s.logger.Info("Payment registered",
		zap.String("client_id", client.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("period", payment.Period.Key()),
		zap.Bool("card_changed", change.Changed),
	)

	return s.receipt(payment, client, change, now), nil
}

// applyPayment runs the shared steps of both write paths: ledger insert,
// expiration recompute and card upsert.
func (s *MembershipService) applyPayment(
	ctx context.Context,
	repos TransactionalRepositories,
	client *membership.Client,
	actorID uuid.UUID,
	terms *paymentTerms,
	reference, notes string,
	now time.Time,
) (*membership.Payment, *CardChange, error) {
	payment, err := NewLedger(repos.Payments()).Register(ctx, RegisterCommand{
		ClientID:     client.ID,
		Amount:       terms.amount,
		Method:       terms.method,
		Period:       terms.period,
		PaymentDate:  terms.paymentDate,
		DueDate:      terms.dueDate,
		Reference:    reference,
		Notes:        notes,
		RegisteredBy: actorID,
	})
	if err != nil {
		return nil, nil, err
	}

	client.ApplyPaidPeriod(terms.period, now)
	if err := repos.Clients().Update(ctx, client); err != nil {
		return nil, nil, fmt.Errorf("failed to update client standing: %w", err)
	}

	change, err := s.registry.Within(repos).EnsureCardForPeriod(ctx, client.ID, actorID, terms.period, now)
	if err != nil {
		return nil, nil, err
	}
	return payment, change, nil
}

// VoidPayment anula a paid row. The client's expiration is rebuilt from
// the periods still paid and the period leaves the active card.
func (s *MembershipService) VoidPayment(ctx context.Context, actorID, paymentID uuid.UUID, req VoidPaymentRequest) (*PaymentReceipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "void_payment", "payment_id", paymentID)
	defer span.End()

	now := s.clock()
	var (
		client  *membership.Client
		payment *membership.Payment
		change  *CardChange
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		// lock the client first so the void serializes with new payments
		client, err = repos.Clients().FindByIDForUpdate(ctx, found.ClientID)
		if err != nil {
			return err
		}
		payment, err = repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := payment.Void(req.Reason, actorID, now); err != nil {
			return err
		}
		if err := repos.Payments().Update(ctx, payment); err != nil {
			return fmt.Errorf("failed to void payment: %w", err)
		}

		paid, err := repos.Payments().PaidPeriods(ctx, client.ID)
		if err != nil {
			return fmt.Errorf("failed to load paid periods: %w", err)
		}
		client.RecomputeExpiration(paid, now)
		if err := repos.Clients().Update(ctx, client); err != nil {
			return fmt.Errorf("failed to update client standing: %w", err)
		}

		change, err = s.registry.Within(repos).RemovePeriod(ctx, client.ID, payment.Period)
		if err != nil {
			return err
		}

		events := []shared.DomainEvent{membership.NewPaymentVoidedEvent(payment)}
		if change.Changed {
			events = append(events, membership.NewCardRenderRequestedEvent(change.Card, payment.Period))
		}
		return repos.Events().Publish(ctx, events...)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Payment void failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentVoided(ctx, payment.Method)
	}
	telemetry.SetOK(span)
	s.logger.Info("Payment voided",
		zap.String("payment_id", payment.ID.String()),
		zap.String("client_id", client.ID.String()),
		zap.String("period", payment.Period.Key()),
	)
	return s.receipt(payment, client, change, now), nil
}

func (s *MembershipService) receipt(payment *membership.Payment, client *membership.Client, change *CardChange, now time.Time) *PaymentReceipt {
	receipt := &PaymentReceipt{
		Payment: ToPaymentResponse(payment),
		Client:  ToClientResponse(client, now),
	}
	if change != nil && change.Card != nil {
		card := ToCardResponse(change.Card)
		receipt.Card = &card
	}
	return receipt
}

func (s *MembershipService) recordFailure(ctx context.Context, err error) {
	if s.metrics != nil && errors.Is(err, membership.ErrPeriodAlreadyPaid) {
		s.metrics.RecordDuplicatePayment(ctx)
	}
}
