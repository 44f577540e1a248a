package service

import (
	"context"

	"amity/internal/models"
	"amity/internal/repository"
)

// FriendQueryService serves read-only relationship projections.
type FriendQueryService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// NewFriendQueryService returns a new FriendQueryService.
func NewFriendQueryService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendQueryService {
	return &FriendQueryService{friendRepo: friendRepo, userRepo: userRepo}
}

// ListFriends returns a page of the user's friends sorted by first then last name.
func (s *FriendQueryService) ListFriends(ctx context.Context, userID uint, q models.ListQuery) (*models.Page[models.FriendEntry], error) {
	rows, total, err := s.friendRepo.ListFriends(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	entries := make([]models.FriendEntry, 0, len(rows))
	for _, f := range rows {
		entries = append(entries, models.NewFriendEntry(f))
	}
	return models.NewPage(entries, total, q.Page)
}

// ListPendingRequests returns incoming pending requests, newest first.
func (s *FriendQueryService) ListPendingRequests(ctx context.Context, userID uint, q models.ListQuery) (*models.Page[models.RequestEntry], error) {
	rows, total, err := s.friendRepo.ListPendingRequests(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	entries := make([]models.RequestEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.RequestEntry{FriendRequest: r, Counterpart: r.Sender.Profile()})
	}
	return models.NewPage(entries, total, q.Page)
}

// ListSentRequests returns outgoing pending requests, newest first.
func (s *FriendQueryService) ListSentRequests(ctx context.Context, userID uint, q models.ListQuery) (*models.Page[models.RequestEntry], error) {
	rows, total, err := s.friendRepo.ListSentRequests(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	entries := make([]models.RequestEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.RequestEntry{FriendRequest: r, Counterpart: r.Receiver.Profile()})
	}
	return models.NewPage(entries, total, q.Page)
}

// ListBlocked returns the users blocked by userID.
func (s *FriendQueryService) ListBlocked(ctx context.Context, userID uint, page models.PageParams) (*models.Page[models.BlockedEntry], error) {
	rows, total, err := s.friendRepo.ListBlocked(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	entries := make([]models.BlockedEntry, 0, len(rows))
	for _, b := range rows {
		entries = append(entries, models.NewBlockedEntry(b))
	}
	return models.NewPage(entries, total, page)
}

// BlockedByMe reports whether me has blocked other.
func (s *FriendQueryService) BlockedByMe(ctx context.Context, me, other uint) (bool, error) {
	return s.friendRepo.IsBlocked(ctx, me, other)
}

// BlocksMe reports whether other has blocked me.
func (s *FriendQueryService) BlocksMe(ctx context.Context, me, other uint) (bool, error) {
	return s.friendRepo.IsBlocked(ctx, other, me)
}

// HiddenUserIDs lists every user separated from userID by a block in either direction.
func (s *FriendQueryService) HiddenUserIDs(ctx context.Context, userID uint) ([]uint, error) {
	blocked, err := s.friendRepo.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	blockers, err := s.friendRepo.BlockerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(blocked)+len(blockers))
	ids := make([]uint, 0, len(blocked)+len(blockers))
	for _, id := range append(blocked, blockers...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Status describes how me relates to other. Blocks take precedence over
// friendship, and friendship over pending requests.
func (s *FriendQueryService) Status(ctx context.Context, me, other uint) (*models.RelationshipStatus, error) {
	status := &models.RelationshipStatus{UserID: other, Status: models.RelationshipNone}
	if me == other {
		return status, nil
	}

	exists, err := s.userRepo.Exists(ctx, other)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if blocked, err := s.BlockedByMe(ctx, me, other); err != nil {
		return nil, err
	} else if blocked {
		status.Status = models.RelationshipBlocked
		return status, nil
	}
	if blocked, err := s.BlocksMe(ctx, me, other); err != nil {
		return nil, err
	} else if blocked {
		status.Status = models.RelationshipBlockedBy
		return status, nil
	}

	if friends, err := s.friendRepo.AreFriends(ctx, me, other); err != nil {
		return nil, err
	} else if friends {
		status.Status = models.RelationshipFriends
		return status, nil
	}

	sent, err := s.friendRepo.GetPendingRequest(ctx, me, other)
	if err != nil {
		return nil, err
	}
	if sent != nil {
		status.Status = models.RelationshipPendingSent
		status.RequestID = &sent.ID
		return status, nil
	}
	received, err := s.friendRepo.GetPendingRequest(ctx, other, me)
	if err != nil {
		return nil, err
	}
	if received != nil {
		status.Status = models.RelationshipPendingReceived
		status.RequestID = &received.ID
	}
	return status, nil
}
