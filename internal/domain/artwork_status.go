package domain

import "fmt"

type ArtworkStatus string

const (
	ArtworkAwaiting          ArtworkStatus = "awaiting_artwork"
	ArtworkUploaded          ArtworkStatus = "artwork_uploaded"
	ArtworkPendingApproval   ArtworkStatus = "pending_approval"
	ArtworkApproved          ArtworkStatus = "approved"
	ArtworkRevisionRequested ArtworkStatus = "revision_requested"
	ArtworkFlagged           ArtworkStatus = "flagged"

	// artworkNeedsRevision is accepted on input and stored as flagged.
	artworkNeedsRevision = "needs_revision"
)

var customerArtworkTransitions = map[ArtworkStatus][]ArtworkStatus{
	ArtworkAwaiting:          {ArtworkUploaded},
	ArtworkUploaded:          {ArtworkUploaded},
	ArtworkPendingApproval:   {ArtworkApproved, ArtworkRevisionRequested},
	ArtworkRevisionRequested: {ArtworkUploaded},
	ArtworkFlagged:           {ArtworkUploaded},
}

var adminArtworkTransitions = map[ArtworkStatus][]ArtworkStatus{
	ArtworkAwaiting:          {ArtworkPendingApproval, ArtworkFlagged},
	ArtworkUploaded:          {ArtworkPendingApproval, ArtworkFlagged},
	ArtworkPendingApproval:   {ArtworkApproved, ArtworkFlagged, ArtworkPendingApproval},
	ArtworkRevisionRequested: {ArtworkPendingApproval, ArtworkFlagged},
	ArtworkFlagged:           {ArtworkPendingApproval, ArtworkUploaded},
}

func ParseArtworkStatus(s string) (ArtworkStatus, error) {
	switch st := ArtworkStatus(s); st {
	case ArtworkAwaiting, ArtworkUploaded, ArtworkPendingApproval,
		ArtworkApproved, ArtworkRevisionRequested, ArtworkFlagged:
		return st, nil
	case artworkNeedsRevision:
		return ArtworkFlagged, nil
	}
	return "", fmt.Errorf("%w: invalid artwork status %q", ErrValidation, s)
}

// IsTerminal reports whether the artwork track is finished. Approved artwork
// is never reopened.
func (s ArtworkStatus) IsTerminal() bool {
	return s == ArtworkApproved
}

func (s ArtworkStatus) CanTransitionTo(next ArtworkStatus, role Role) bool {
	table := customerArtworkTransitions
	if role == RoleAdmin {
		table = adminArtworkTransitions
	}
	for _, allowed := range table[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ArtworkStatus) String() string {
	return string(s)
}
