package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/alert-dispatch/internal/domain"
	"github.com/kursadbilgin/alert-dispatch/internal/observability"
	"github.com/kursadbilgin/alert-dispatch/internal/provider"
	"github.com/kursadbilgin/alert-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/alert-dispatch/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDispatchConcurrency = 32
	immediateFailureReason     = "Delivery failed"
)

// RecipientSource resolves a recipient group to dispatch targets.
type RecipientSource interface {
	Resolve(ctx context.Context, group domain.RecipientGroup) ([]domain.Recipient, error)
}

// Gateways maps each alert kind to the gateway that carries it.
type Gateways map[domain.AlertKind]provider.Gateway

type DispatcherConfig struct {
	// Concurrency caps in-flight sends per alert. Zero means unbounded.
	Concurrency int
	PhoneRegion string
}

type DispatchRequest struct {
	Kind    domain.AlertKind
	GroupID string
	Content domain.AlertContent
	SentBy  *string
}

type DispatchResult struct {
	Alert      *domain.AlertRecord
	Deliveries []domain.DeliveryRecord
	Segments   int
}

// AlertDispatcher creates an alert and fans out one send per recipient. Every
// recipient ends with exactly one delivery record whatever its send did.
type AlertDispatcher struct {
	alerts      repository.AlertRepository
	deliveries  repository.DeliveryRepository
	recipients  RecipientSource
	gateways    Gateways
	reliability FailureRecorder
	limiter     ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	region      string
	now         func() time.Time
	newID       func() string
}

func NewAlertDispatcher(
	alerts repository.AlertRepository,
	deliveries repository.DeliveryRepository,
	recipients RecipientSource,
	gateways Gateways,
	reliability FailureRecorder,
	limiter ratelimit.RateLimiter,
	cfg DispatcherConfig,
	logger *zap.Logger,
) (*AlertDispatcher, error) {
	if alerts == nil || deliveries == nil {
		return nil, fmt.Errorf("alert and delivery repositories are required")
	}
	if recipients == nil {
		return nil, fmt.Errorf("recipient source is required")
	}
	if len(gateways) == 0 {
		return nil, fmt.Errorf("at least one gateway is required")
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if cfg.Concurrency < 0 {
		cfg.Concurrency = defaultDispatchConcurrency
	}
	if strings.TrimSpace(cfg.PhoneRegion) == "" {
		cfg.PhoneRegion = domain.DefaultPhoneRegion
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AlertDispatcher{
		alerts:      alerts,
		deliveries:  deliveries,
		recipients:  recipients,
		gateways:    gateways,
		reliability: reliability,
		limiter:     limiter,
		logger:      logger,
		concurrency: cfg.Concurrency,
		region:      cfg.PhoneRegion,
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

func (d *AlertDispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Dispatch validates the request, records the alert and returns once every
// recipient's send has settled. Per-recipient failures are recorded on the
// deliveries and never returned as an error.
func (d *AlertDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid alert kind %q", domain.ErrInvalidAlertContent, req.Kind)
	}
	if err := domain.ValidateAlertContent(req.Kind, req.Content); err != nil {
		return nil, err
	}
	group, err := domain.ParseRecipientGroupFromString(req.GroupID)
	if err != nil {
		return nil, err
	}

	recipients, err := d.recipients.Resolve(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	alert := d.newAlertRecord(req, group, len(recipients))
	if err := d.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	d.metrics.IncAlert(alert.Kind.String(), group.String())

	log := observability.WithContextLogger(d.logger, ctx).With(
		zap.String("alertId", alert.ID),
		zap.String("kind", alert.Kind.String()),
	)
	log.Info("dispatching alert",
		zap.String("group", group.String()),
		zap.Int("recipientCount", alert.RecipientCount),
	)

	// Sends outlive a canceled caller; each one settles on its own.
	deliveries := d.fanOut(context.WithoutCancel(ctx), alert, recipients, log)

	stats := domain.StatsFor(deliveries)
	log.Info("alert dispatched",
		zap.Int("sent", stats.Sent),
		zap.Int("delivered", stats.Delivered),
		zap.Int("bounced", stats.Bounced),
		zap.Int("failed", stats.Failed),
	)

	result := &DispatchResult{Alert: alert, Deliveries: deliveries}
	if alert.Kind == domain.AlertKindText {
		result.Segments = domain.SMSSegments(req.Content.Message)
	}
	return result, nil
}

func (d *AlertDispatcher) newAlertRecord(req DispatchRequest, group domain.RecipientGroup, recipientCount int) *domain.AlertRecord {
	alert := &domain.AlertRecord{
		ID:             d.newID(),
		Kind:           req.Kind,
		RecipientGroup: group,
		RecipientCount: recipientCount,
		CreatedAt:      d.now().UTC(),
	}
	if sentBy := trimmedOrNil(req.SentBy); sentBy != nil {
		alert.SentBy = sentBy
	}

	switch req.Kind {
	case domain.AlertKindText:
		msg := req.Content.Message
		alert.Message = &msg
	case domain.AlertKindVoice:
		audioURL := strings.TrimSpace(req.Content.AudioURL)
		alert.AudioURL = &audioURL
		alert.AudioDurationMs = req.Content.AudioDurationMs
	}
	return alert
}

// fanOut runs one delivery per recipient. Workers never return an error, so
// one recipient cannot cancel or short-circuit another.
func (d *AlertDispatcher) fanOut(ctx context.Context, alert *domain.AlertRecord, recipients []domain.Recipient, log *zap.Logger) []domain.DeliveryRecord {
	deliveries := make([]domain.DeliveryRecord, len(recipients))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i := range recipients {
		i := i
		g.Go(func() error {
			deliveries[i] = d.deliver(ctx, alert, recipients[i], log)
			return nil
		})
	}
	_ = g.Wait()

	return deliveries
}

// deliveryOutcome is the synchronous result of one send.
type deliveryOutcome struct {
	address     string
	status      domain.DeliveryStatus
	providerRef string
	reason      string
	deliveredAt *time.Time
}

func (d *AlertDispatcher) deliver(ctx context.Context, alert *domain.AlertRecord, recipient domain.Recipient, log *zap.Logger) domain.DeliveryRecord {
	outcome := d.send(ctx, alert, recipient)

	now := d.now().UTC()
	record := domain.DeliveryRecord{
		ID:             d.newID(),
		AlertID:        alert.ID,
		UnitID:         recipient.UnitID,
		UnitName:       recipient.UnitName,
		ContactPointID: trimmedOrNil(&recipient.ContactPointID),
		ContactAddress: outcome.address,
		ContactLabel:   recipient.ContactLabel,
		ProviderRef:    trimmedOrNil(&outcome.providerRef),
		Status:         outcome.status,
		ErrorReason:    trimmedOrNil(&outcome.reason),
		SentAt:         now,
		DeliveredAt:    outcome.deliveredAt,
		CreatedAt:      now,
	}

	fields := []zap.Field{
		zap.String("deliveryId", record.ID),
		zap.String("unitId", record.UnitID),
		zap.String("destination", record.ContactAddress),
	}

	if err := d.deliveries.Create(ctx, &record); err != nil {
		log.Error("failed to persist delivery",
			append(fields, zap.String("status", record.Status.String()), zap.Error(err))...,
		)
	}

	d.metrics.IncDelivery(alert.Kind.String(), record.Status.String())

	if record.Status.IsFailure() {
		log.Warn("delivery failed",
			append(fields, zap.String("status", record.Status.String()), zap.String("reason", outcome.reason))...,
		)
		recordFailureBestEffort(ctx, d.reliability, log, recipient.ContactPointID, fields...)
	}

	return record
}

// send performs one provider call and maps its result onto the delivery state
// machine. A panic in the gateway is contained to this recipient.
func (d *AlertDispatcher) send(ctx context.Context, alert *domain.AlertRecord, recipient domain.Recipient) (outcome deliveryOutcome) {
	outcome.address = recipient.ContactAddress
	defer func() {
		if p := recover(); p != nil {
			outcome.status = domain.DeliveryStatusFailed
			outcome.reason = fmt.Sprintf("send panicked: %v", p)
			outcome.providerRef = ""
			outcome.deliveredAt = nil
		}
	}()

	address, err := domain.NormalizePhone(recipient.ContactAddress, d.region)
	if err != nil {
		outcome.status = domain.DeliveryStatusBounced
		outcome.reason = invalidAddressReason(err)
		return outcome
	}
	outcome.address = address

	lane := alert.Kind.String()
	if err := d.limiter.Wait(ctx, lane); err != nil {
		observability.WithContextLogger(d.logger, ctx).Warn("send pacing unavailable, sending unpaced",
			zap.String("alertId", alert.ID),
			zap.String("lane", lane),
			zap.Error(err),
		)
	}

	gateway, ok := d.gateways[alert.Kind]
	if !ok || gateway == nil {
		gateway = provider.Unconfigured{Name: lane + " gateway"}
	}

	result, err := d.callGateway(ctx, gateway, lane, provider.Message{To: address, Body: alert.Body()})

	if err != nil {
		outcome.status = domain.DeliveryStatusFailed
		if provider.IsAddressRejected(err) {
			outcome.status = domain.DeliveryStatusBounced
		}
		outcome.reason = provider.Reason(err)
		return outcome
	}
	if result == nil {
		outcome.status = domain.DeliveryStatusFailed
		outcome.reason = "provider returned no result"
		return outcome
	}

	outcome.providerRef = result.ProviderRef
	outcome.status = domain.DeliveryStatusSent

	status, known := domain.MapProviderStatus(result.Status)
	if !known {
		return outcome
	}
	switch {
	case status == domain.DeliveryStatusDelivered:
		at := d.now().UTC()
		outcome.status = domain.DeliveryStatusDelivered
		outcome.deliveredAt = &at
	case status.IsFailure():
		outcome.status = domain.DeliveryStatusBounced
		outcome.reason = immediateFailureReason
		if msg := strings.TrimSpace(result.ErrorMessage); msg != "" {
			outcome.reason = msg
		}
	}
	return outcome
}

func (d *AlertDispatcher) callGateway(ctx context.Context, gateway provider.Gateway, lane string, msg provider.Message) (*provider.SendResult, error) {
	d.metrics.IncSendsInFlight(lane)
	defer d.metrics.DecSendsInFlight(lane)

	start := d.now()
	defer func() { d.metrics.ObserveSendDuration(lane, d.now().Sub(start)) }()

	return gateway.Send(ctx, msg)
}

func invalidAddressReason(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	if msg == "" {
		return "Invalid phone number format"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
