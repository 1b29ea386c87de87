package policy

import (
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
)

// Reputation rules. These are fixed and not configurable.
const (
	GatedReputationThreshold = 50
	UpvoteReputationGain     = 5
	DownvoteReputationLoss   = 10
)

// Vote directions
const (
	Upvote   = 1
	Downvote = -1
)

// CanPerformGatedAction reports whether user may create tags, comment, or vote
func CanPerformGatedAction(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin || user.Reputation >= GatedReputationThreshold
}

// VoteEffect is what a single vote does to its target and the target's owner
type VoteEffect struct {
	VoteDelta       int
	ReputationDelta int
}

// EffectOf returns the effect of a vote with the given delta, which must be +1 or -1
func EffectOf(delta int) (VoteEffect, error) {
	switch delta {
	case Upvote:
		return VoteEffect{VoteDelta: 1, ReputationDelta: UpvoteReputationGain}, nil
	case Downvote:
		return VoteEffect{VoteDelta: -1, ReputationDelta: -DownvoteReputationLoss}, nil
	default:
		return VoteEffect{}, apperrors.Validation("delta", "vote delta must be +1 or -1")
	}
}

// Policy holds the configurable switches around the fixed rules
type Policy struct {
	AllowSelfVote bool
}

// New creates a Policy
func New(allowSelfVote bool) Policy {
	return Policy{AllowSelfVote: allowSelfVote}
}

// RequireGated returns Forbidden when user may not perform a gated action
func (p Policy) RequireGated(user *models.User, action string) error {
	if CanPerformGatedAction(user) {
		return nil
	}
	return apperrors.Forbidden("reputation of at least 50 is required to " + action)
}

// CheckVote validates a vote by voter on content owned by ownerID and returns its effect
func (p Policy) CheckVote(voter *models.User, ownerID string, delta int) (VoteEffect, error) {
	effect, err := EffectOf(delta)
	if err != nil {
		return VoteEffect{}, err
	}
	if err := p.RequireGated(voter, "vote"); err != nil {
		return VoteEffect{}, err
	}
	if !p.AllowSelfVote && voter.ID == ownerID {
		return VoteEffect{}, apperrors.Forbidden("you cannot vote on your own content")
	}
	return effect, nil
}
