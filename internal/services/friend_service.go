package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"postnest/internal/apperrors"
	"postnest/internal/models"
	"postnest/internal/repositories"
)

var errSelfRequest = apperrors.Validation("You cannot send a friend request to yourself.")

type FriendService struct {
	friends repositories.FriendRepository
	users   repositories.UserRepository
}

func NewFriendService(friends repositories.FriendRepository, users repositories.UserRepository) *FriendService {
	return &FriendService{friends: friends, users: users}
}

// RequestLists groups a user's edges by direction.
type RequestLists struct {
	Outgoing []models.FriendRequestView `json:"outgoing"`
	Incoming []models.FriendRequestView `json:"incoming"`
}

// SendRequest creates a pending edge fromUserID -> toUserID on behalf of the
// caller. When the edge already exists it returns created=false and no error.
func (s *FriendService) SendRequest(ctx context.Context, callerID, fromUserID, toUserID int64) (*models.FriendRequest, bool, error) {
	if callerID != fromUserID {
		return nil, false, apperrors.Forbidden("You can only send friend requests as yourself.")
	}
	if fromUserID == toUserID {
		return nil, false, errSelfRequest
	}

	from, err := s.loadUser(ctx, fromUserID)
	if err != nil {
		return nil, false, err
	}
	to, err := s.loadUser(ctx, toUserID)
	if err != nil {
		return nil, false, err
	}
	if strings.EqualFold(from.Name, to.Name) {
		return nil, false, errSelfRequest
	}

	req, err := s.friends.CreateRequest(ctx, fromUserID, toUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestExists) {
			return nil, false, nil
		}
		return nil, false, apperrors.Internal(err, "Could not send friend request.")
	}
	return req, true, nil
}

// CancelRequest removes the edge between the two users in either direction.
func (s *FriendService) CancelRequest(ctx context.Context, callerID, fromUserID, toUserID int64) error {
	if callerID != fromUserID && callerID != toUserID {
		return apperrors.Forbidden("You can only cancel your own friend requests.")
	}
	if _, err := s.friends.CancelRequest(ctx, fromUserID, toUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("No friend request found to cancel.")
		}
		return apperrors.Internal(err, "Could not cancel friend request.")
	}
	return nil
}

func (s *FriendService) ListRequests(ctx context.Context, userID int64) (*RequestLists, error) {
	outgoing, err := s.friends.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not load friend requests.")
	}
	incoming, err := s.friends.ListIncoming(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not load friend requests.")
	}
	return &RequestLists{Outgoing: outgoing, Incoming: incoming}, nil
}

func (s *FriendService) ListOthers(ctx context.Context, callerID int64) ([]models.User, error) {
	users, err := s.users.ListExcept(ctx, callerID)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not load users.")
	}
	return users, nil
}

// SearchUsers finds other users whose name contains term, ignoring case.
// Searching for one's own name is rejected.
func (s *FriendService) SearchUsers(ctx context.Context, callerID int64, term string) ([]models.User, error) {
	caller, err := s.loadUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if strings.EqualFold(term, caller.Name) {
		return nil, errSelfRequest
	}
	users, err := s.users.SearchByName(ctx, term, callerID)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not search users.")
	}
	return users, nil
}

func (s *FriendService) loadUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err, "Could not load user.")
	}
	return user, nil
}
