package models

// VoteDirection selects which counter a vote increments. There is no per-user
// ledger, so the same user may vote on a post any number of times.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Column returns the posts column the direction increments.
func (d VoteDirection) Column() string {
	if d == VoteDown {
		return "downvotes"
	}
	return "upvotes"
}
