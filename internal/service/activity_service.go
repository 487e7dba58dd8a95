package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/observability"
	"github.com/noah-isme/enrollment-api/internal/policy"
	"github.com/noah-isme/enrollment-api/internal/repository"
)

const (
	actionLogBufferSize   = 16
	defaultActionLogLimit = 50
	maxActionLogLimit     = 200
)

// ActionEntry captures the details required to persist an action log entry.
type ActionEntry struct {
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]interface{}
}

// ActivityRecorder appends action log entries to the caller's store.
type ActivityRecorder interface {
	Record(ctx context.Context, caller policy.Caller, entry ActionEntry) (dto.ActionLogResponse, error)
}

// ActivityService records, lists and streams action log entries.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, caller policy.Caller, req dto.ActionLogListRequest) ([]dto.ActionLogResponse, error)
	Subscribe(caller policy.Caller) (<-chan dto.ActionLogResponse, func(), error)
	Start(ctx context.Context)
}

type activityService struct {
	stores      *StoreSelector
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *actionLogBroker
	nodeID      string
}

type actionLogEvent struct {
	Source string                `json:"source"`
	Entry  dto.ActionLogResponse `json:"entry"`
	SentAt time.Time             `json:"sent_at"`
}

// actionLogBroker fans entries out to local subscribers, keyed by store scope
// so demo sessions never see durable entries or each other's.
type actionLogBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.ActionLogResponse]struct{}
}

// NewActivityService constructs the action log service. redisClient and
// natsConn are optional and only used for cross-node fan-out of durable entries.
func NewActivityService(stores *StoreSelector, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ActivityService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":action_logs"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".action_logs"
	}

	return &activityService{
		stores:      stores,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "activity_service").Logger(),
		broker: &actionLogBroker{
			subscribers: make(map[string]map[chan dto.ActionLogResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *activityService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *activityService) Record(ctx context.Context, caller policy.Caller, entry ActionEntry) (dto.ActionLogResponse, error) {
	action := strings.ToLower(strings.TrimSpace(entry.Action))
	if action == "" {
		return dto.ActionLogResponse{}, validationError("action is required")
	}

	model := models.ActionLog{
		Action:      action,
		PerformedBy: caller.ID,
		ActorRole:   actorRole(caller),
		EntityType:  strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:    strings.TrimSpace(entry.EntityID),
		Details:     sanitizeDetails(entry.Details),
	}

	store := s.stores.For(caller)
	if err := store.ActionLogs().Append(ctx, &model); err != nil {
		s.logger.Error().Err(err).
			Str("action", action).
			Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
			Msg("failed to persist action log")
		return dto.ActionLogResponse{}, storeError(err, ErrStore)
	}

	response := dto.NewActionLogResponse(model)
	scope := s.stores.Scope(caller)
	s.broker.broadcast(scope, response)
	if store.Kind() == repository.StoreKindDurable {
		if err := s.publish(ctx, response); err != nil {
			s.logger.Warn().Err(err).
				Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
				Msg("failed to publish action log to broker")
		}
	}

	return response, nil
}

func (s *activityService) List(ctx context.Context, caller policy.Caller, req dto.ActionLogListRequest) ([]dto.ActionLogResponse, error) {
	if err := authorize(policy.ReadActionLog(caller)); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultActionLogLimit
	}
	if limit > maxActionLogLimit {
		limit = maxActionLogLimit
	}

	entries, err := s.stores.For(caller).ActionLogs().List(ctx, repository.ActionLogFilter{
		Action:      strings.ToLower(strings.TrimSpace(req.Action)),
		PerformedBy: strings.TrimSpace(req.PerformedBy),
		Limit:       limit,
	})
	if err != nil {
		return nil, storeError(err, ErrStore)
	}

	items := make([]dto.ActionLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewActionLogResponse(entry))
	}
	return items, nil
}

func (s *activityService) Subscribe(caller policy.Caller) (<-chan dto.ActionLogResponse, func(), error) {
	if err := authorize(policy.ReadActionLog(caller)); err != nil {
		return nil, nil, err
	}

	scope := s.stores.Scope(caller)
	channel := make(chan dto.ActionLogResponse, actionLogBufferSize)
	s.broker.subscribe(scope, channel)
	observability.LogStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(scope, channel)
			observability.LogStreamClients().Dec()
		})
	}

	return channel, cleanup, nil
}

func (s *activityService) publish(ctx context.Context, entry dto.ActionLogResponse) error {
	event := actionLogEvent{
		Source: s.nodeID,
		Entry:  entry,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return fmt.Errorf("redis publish: %w", err)
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
	}

	return nil
}

func (s *activityService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("action log redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *activityService) consumeNATS(ctx context.Context) {
	// Every node needs every entry, so this is a plain subscription rather
	// than a queue group.
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats action log subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain action log nats subscription")
		}
	}()
}

func (s *activityService) handleEvent(payload []byte) {
	var event actionLogEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid action log event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(repository.StoreKindDurable, event.Entry)
}

func (b *actionLogBroker) subscribe(scope string, ch chan dto.ActionLogResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[scope]; !exists {
		b.subscribers[scope] = make(map[chan dto.ActionLogResponse]struct{})
	}
	b.subscribers[scope][ch] = struct{}{}
}

func (b *actionLogBroker) unsubscribe(scope string, ch chan dto.ActionLogResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[scope]; ok {
		if _, present := subscribers[ch]; !present {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, scope)
		}
	}
}

func (b *actionLogBroker) broadcast(scope string, entry dto.ActionLogResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[scope] {
		select {
		case ch <- entry:
		default:
		}
	}
}

func sanitizeDetails(details map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range details {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func actorRole(caller policy.Caller) string {
	if !caller.Authenticated || caller.Role == "" {
		return "system"
	}
	return string(caller.Role)
}
