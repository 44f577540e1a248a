// Package service holds the friendship state machine, its read-side queries
// and the identity operations built on top of the repositories.
package service

import (
	"context"
	"time"

	"amity/internal/cache"
	"amity/internal/middleware"
	"amity/internal/models"
	"amity/internal/observability"
	"amity/internal/repository"
)

// Request actions accepted by RespondToRequest.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// DefaultCooldown applies when no cooldown is configured.
const DefaultCooldown = 24 * time.Hour

const (
	opSendRequest = "send_request"
	opRespond     = "respond"
	opBlock       = "block"
	opUnblock     = "unblock"
)

// Failures returned by FriendService. Compare with errors.Is.
var (
	ErrSelfRequest       = models.NewValidationError("You cannot send a friend request to yourself.").WithCode(models.CodeSelfRequest)
	ErrReceiverNotFound  = models.NewNotFoundMessage(models.CodeReceiverNotFound, "Receiver not found.")
	ErrBlocked           = models.NewForbiddenError("You cannot send a friend request to this user.")
	ErrBlockingReceiver  = models.NewForbiddenError("Unblock this user before sending a friend request.")
	ErrCooldown          = models.NewRateLimitError("You cannot send a friend request to this user yet. Please try again later.").WithCode(models.CodeCooldown)
	ErrDuplicateRequest  = models.NewValidationError("A friend request to this user already exists.").WithCode(models.CodeDuplicateRequest)
	ErrAlreadyFriends    = models.NewValidationError("You are already friends with this user.").WithCode(models.CodeAlreadyFriends)
	ErrRequestNotPending = models.NewValidationError("This friend request has already been answered.").WithCode(models.CodeRequestNotPending)
	ErrInvalidAction     = models.NewValidationError("Invalid action.").WithCode(models.CodeInvalidAction)
	ErrSelfBlock         = models.NewValidationError("You cannot block yourself.").WithCode(models.CodeSelfBlock)
	ErrUserNotFound      = models.NewNotFoundMessage(models.CodeUserNotFound, "User not found.")
)

// Details reported by successful RespondToRequest calls.
const (
	DetailAccepted       = "Friend request accepted."
	DetailRejected       = "Friend request rejected."
	DetailAlreadyFriends = "You are already friends with this user. Friend request deleted."
)

// FriendService is the only writer of friend requests, friendships, blocks
// and cooldowns.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	cooldowns  cache.CooldownStore
	cooldown   time.Duration
}

// NewFriendService returns a new FriendService. A non-positive cooldown
// falls back to DefaultCooldown.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, cooldowns cache.CooldownStore, cooldown time.Duration) *FriendService {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if cooldowns == nil {
		cooldowns = cache.NewMemoryCooldownStore()
	}
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		cooldowns:  cooldowns,
		cooldown:   cooldown,
	}
}

// SendRequest creates a pending request from sender to receiver.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID uint) (req *models.FriendRequest, err error) {
	span, ctx := observability.StartOperation(ctx, opSendRequest, senderID, receiverID)
	defer func() { finish(span, opSendRequest, err) }()

	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	exists, err := s.userRepo.Exists(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrReceiverNotFound
	}

	blocked, err := s.friendRepo.IsBlocked(ctx, receiverID, senderID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}
	blocking, err := s.friendRepo.IsBlocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocking {
		return nil, ErrBlockingReceiver
	}

	if s.coolingDown(ctx, senderID, receiverID) {
		return nil, ErrCooldown
	}

	pending, err := s.friendRepo.GetPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrDuplicateRequest
	}

	friends, err := s.friendRepo.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	return s.friendRepo.CreateRequest(ctx, senderID, receiverID)
}

// RespondToRequest accepts or rejects a pending request addressed to receiverID.
// A pending request between users who are already friends is deleted and
// reported as a successful cleanup, whatever the action.
func (s *FriendService) RespondToRequest(ctx context.Context, receiverID, requestID uint, action string) (res *models.RespondResult, err error) {
	span, ctx := observability.StartOperation(ctx, opRespond, receiverID, 0)
	defer func() { finish(span, opRespond, err) }()

	req, err := s.friendRepo.GetRequestForReceiver(ctx, requestID, receiverID)
	if err != nil {
		return nil, err
	}
	span.AddAttributes(observability.TargetAttr(req.SenderID), observability.ActionAttr(action))

	if !req.IsPending() {
		return nil, ErrRequestNotPending
	}

	friends, err := s.friendRepo.AreFriends(ctx, receiverID, req.SenderID)
	if err != nil {
		return nil, err
	}
	if friends {
		if err := s.friendRepo.DeleteRequest(ctx, req.ID); err != nil {
			return nil, err
		}
		return &models.RespondResult{Outcome: models.OutcomeAlreadyFriends, Detail: DetailAlreadyFriends}, nil
	}

	if action != ActionAccept && action != ActionReject {
		return nil, ErrInvalidAction
	}

	if action == ActionAccept {
		if err := s.friendRepo.AcceptRequest(ctx, req); err != nil {
			return nil, err
		}
		return &models.RespondResult{Outcome: models.OutcomeAccepted, Detail: DetailAccepted, Request: req}, nil
	}

	if err := s.friendRepo.RejectRequest(ctx, req); err != nil {
		return nil, err
	}
	s.startCooldown(ctx, req.SenderID, req.ReceiverID)
	return &models.RespondResult{Outcome: models.OutcomeRejected, Detail: DetailRejected, Request: req}, nil
}

// Block removes any friendship and pending requests between the two users and
// records the block. Blocking an already blocked user succeeds.
func (s *FriendService) Block(ctx context.Context, blockerID, blockedID uint) (block *models.BlockedUser, err error) {
	span, ctx := observability.StartOperation(ctx, opBlock, blockerID, blockedID)
	defer func() { finish(span, opBlock, err) }()

	if blockerID == blockedID {
		return nil, ErrSelfBlock
	}
	exists, err := s.userRepo.Exists(ctx, blockedID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return s.friendRepo.Block(ctx, blockerID, blockedID)
}

// Unblock deletes the block if present. Removed friendships and requests stay removed.
func (s *FriendService) Unblock(ctx context.Context, blockerID, blockedID uint) (err error) {
	span, ctx := observability.StartOperation(ctx, opUnblock, blockerID, blockedID)
	defer func() { finish(span, opUnblock, err) }()

	return s.friendRepo.Unblock(ctx, blockerID, blockedID)
}

// coolingDown reads the cooldown cache. A cache failure is treated as no cooldown.
func (s *FriendService) coolingDown(ctx context.Context, senderID, receiverID uint) bool {
	active, err := s.cooldowns.Active(ctx, senderID, receiverID)
	if err != nil {
		observability.CooldownCacheErrors.WithLabelValues("check").Inc()
		middleware.Logger.WarnContext(ctx, "cooldown check failed, continuing without it",
			"sender_id", senderID, "receiver_id", receiverID, "error", err)
		return false
	}
	return active
}

func (s *FriendService) startCooldown(ctx context.Context, senderID, receiverID uint) {
	if err := s.cooldowns.Start(ctx, senderID, receiverID, s.cooldown); err != nil {
		observability.CooldownCacheErrors.WithLabelValues("start").Inc()
		middleware.Logger.WarnContext(ctx, "failed to start friend request cooldown",
			"sender_id", senderID, "receiver_id", receiverID, "error", err)
	}
}

func finish(span *observability.Span, operation string, err error) {
	if err != nil {
		span.SetError(err)
	}
	span.End()
	observability.RecordTransition(operation, outcomeOf(err))
}

func outcomeOf(err error) string {
	if err == nil {
		return observability.OutcomeOK
	}
	switch models.KindOf(err) {
	case models.KindServerError:
		return observability.OutcomeError
	case models.KindConflict:
		return observability.OutcomeConflict
	default:
		return observability.OutcomeRejected
	}
}
