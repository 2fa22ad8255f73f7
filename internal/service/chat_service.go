package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/BrianBNeal/DistributedDemo/internal/domain"
	"github.com/BrianBNeal/DistributedDemo/internal/history"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
	"github.com/BrianBNeal/DistributedDemo/internal/presence"
)

// Config holds chat service configuration.
type Config struct {
	MaxUsernameLength int
	MaxMessageLength  int
	// OpTimeout bounds every store round-trip; past it the operation is
	// treated as failed.
	OpTimeout time.Duration
}

type chatService struct {
	router   Router
	registry presence.Registry
	history  history.Log
	cfg      Config
	sf       singleflight.Group
}

// NewChatService creates the session protocol core.
func NewChatService(router Router, registry presence.Registry, hist history.Log, cfg Config) ChatService {
	if cfg.MaxUsernameLength <= 0 {
		cfg.MaxUsernameLength = domain.MaxUsernameLength
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = domain.MaxMessageLength
	}
	return &chatService{
		router:   router,
		registry: registry,
		history:  hist,
		cfg:      cfg,
	}
}

func (s *chatService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OpTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.OpTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *chatService) HandleJoin(ctx context.Context, connectionID, userName string) error {
	l := log.L()

	if !domain.ValidUserName(userName, s.cfg.MaxUsernameLength) {
		s.router.To(connectionID, domain.NewConnectionError(domain.InvalidUsernameError))
		return domain.ErrInvalidUsername
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	user, err := s.registry.TryRegister(sctx, userName, connectionID)
	if errors.Is(err, domain.ErrDuplicateName) {
		s.router.To(connectionID, domain.NewConnectionError(domain.DuplicateUsernameError))
		return err
	}
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserName, userName).Msg("join failed")
		s.router.To(connectionID, domain.NewConnectionError(domain.JoinFailedError))
		return err
	}

	joinMsg := domain.NewSystemMessage(fmt.Sprintf(domain.UserJoinedTemplate, userName))
	if err := s.history.Append(sctx, joinMsg); err != nil {
		// Roll the registration back so the failed join leaves no state
		// behind. The rollback gets its own context: sctx may be expired,
		// and expiry is the likeliest reason the append failed.
		rctx, rcancel := s.storeCtx(context.Background())
		_, uerr := s.registry.Unregister(rctx, connectionID)
		rcancel()
		if uerr != nil {
			l.Error().Err(uerr).Str(log.FieldConnID, connectionID).Msg("failed to roll back registration")
		}
		l.Error().Err(err).Str(log.FieldUserName, userName).Msg("join failed")
		s.router.To(connectionID, domain.NewConnectionError(domain.JoinFailedError))
		return err
	}

	// The join notification is informational to everyone, joiner included.
	s.router.All(domain.NewUserJoined(*user))
	s.router.All(domain.NewReceiveMessage(joinMsg))

	l.Info().Str(log.FieldUserName, userName).Str(log.FieldConnID, connectionID).Msg("user joined chat")

	// The joiner always receives the post-join history, not a pre-join
	// snapshot: a collapsed read already in flight started before this
	// registration, so it must not be the one handed to the joiner.
	s.sf.Forget(historyKey)
	return s.HandleHistory(ctx, connectionID)
}

func (s *chatService) HandleSend(ctx context.Context, connectionID, content string) error {
	l := log.L()

	if !domain.ValidMessage(content, s.cfg.MaxMessageLength) {
		s.router.To(connectionID, domain.NewConnectionError(domain.InvalidMessageError))
		return domain.ErrInvalidMessage
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	user, err := s.registry.LookupByConnection(sctx, connectionID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldConnID, connectionID).Msg("send failed")
		s.router.To(connectionID, domain.NewConnectionError(domain.SendFailedError))
		return err
	}
	if user == nil {
		s.router.To(connectionID, domain.NewConnectionError(domain.UserNotFoundError))
		return domain.ErrUserNotFound
	}

	msg := domain.NewUserMessage(user.Name, content)
	if err := s.history.Append(sctx, msg); err != nil {
		l.Error().Err(err).Str(log.FieldUserName, user.Name).Msg("send failed")
		s.router.To(connectionID, domain.NewConnectionError(domain.SendFailedError))
		return err
	}

	s.router.All(domain.NewReceiveMessage(msg))

	l.Debug().Str(log.FieldUserName, user.Name).Msg("message sent")
	return nil
}

func (s *chatService) HandleLeave(ctx context.Context, connectionID string) error {
	return s.handleDeparture(ctx, connectionID)
}

func (s *chatService) HandleDisconnect(ctx context.Context, connectionID string) error {
	return s.handleDeparture(ctx, connectionID)
}

// handleDeparture is the shared path for explicit leaves and
// transport-detected disconnects. Failures are logged only; there is no
// caller to report to.
func (s *chatService) handleDeparture(ctx context.Context, connectionID string) error {
	l := log.L()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	user, err := s.registry.Unregister(sctx, connectionID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldConnID, connectionID).Msg("disconnect handling failed")
		return err
	}
	if user == nil {
		// Already removed, or never joined.
		return nil
	}

	leaveMsg := domain.NewSystemMessage(fmt.Sprintf(domain.UserLeftTemplate, user.Name))
	if err := s.history.Append(sctx, leaveMsg); err != nil {
		l.Error().Err(err).Str(log.FieldUserName, user.Name).Msg("failed to record leave message")
		return err
	}

	// The departed connection cannot receive, so leave goes to others only.
	s.router.Others(connectionID, domain.NewUserLeft(user.Name))
	s.router.Others(connectionID, domain.NewReceiveMessage(leaveMsg))

	l.Info().Str(log.FieldUserName, user.Name).Str(log.FieldConnID, connectionID).Msg("user left chat")
	return nil
}

func (s *chatService) HandleHistory(ctx context.Context, connectionID string) error {
	l := log.L()

	response, err := s.historySnapshot(ctx)
	if err != nil {
		l.Error().Err(err).Str(log.FieldConnID, connectionID).Msg("history failed")
		s.router.To(connectionID, domain.NewConnectionError(domain.HistoryFailedError))
		return err
	}

	s.router.To(connectionID, domain.NewChatHistoryLoaded(*response))

	l.Debug().Str(log.FieldConnID, connectionID).Msg("chat history sent")
	return nil
}

// historyKey is the singleflight key collapsing concurrent history reads.
const historyKey = "history"

// historySnapshot collapses concurrent identical reads into one store trip.
// Callers that mutated state first must Forget the key before reading.
func (s *chatService) historySnapshot(ctx context.Context) (*domain.ChatHistoryResponse, error) {
	v, err, _ := s.sf.Do(historyKey, func() (interface{}, error) {
		sctx, cancel := s.storeCtx(ctx)
		defer cancel()

		messages, err := s.history.Recent(sctx)
		if err != nil {
			return nil, err
		}
		users, err := s.registry.ListOnline(sctx)
		if err != nil {
			return nil, err
		}
		return &domain.ChatHistoryResponse{Messages: messages, OnlineUsers: users}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ChatHistoryResponse), nil
}
