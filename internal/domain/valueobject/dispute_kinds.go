package valueobject

import "github.com/ignatzorin/dispute-backend/internal/pkg/apperror"

type DisputeType string

const (
	DisputeTypeServiceNotProvided DisputeType = "service_not_provided"
	DisputeTypeServiceQuality     DisputeType = "service_quality"
	DisputeTypeUnauthorizedCharge DisputeType = "unauthorized_charge"
	DisputeTypeCancellationRefund DisputeType = "cancellation_refund"
	DisputeTypeHostNoShow         DisputeType = "host_no_show"
	DisputeTypeTravelerNoShow     DisputeType = "traveler_no_show"
	DisputeTypeOther              DisputeType = "other"
)

var validDisputeTypes = map[DisputeType]struct{}{
	DisputeTypeServiceNotProvided: {},
	DisputeTypeServiceQuality:     {},
	DisputeTypeUnauthorizedCharge: {},
	DisputeTypeCancellationRefund: {},
	DisputeTypeHostNoShow:         {},
	DisputeTypeTravelerNoShow:     {},
	DisputeTypeOther:              {},
}

func (t DisputeType) IsValid() bool {
	_, ok := validDisputeTypes[t]
	return ok
}

func NewDisputeType(value string) (DisputeType, error) {
	t := DisputeType(value)
	if !t.IsValid() {
		return "", apperror.Newf(apperror.ErrCodeValidation, "unknown dispute type %q", value)
	}
	return t, nil
}

type ResolutionType string

const (
	ResolutionFullRefund    ResolutionType = "full_refund"
	ResolutionPartialRefund ResolutionType = "partial_refund"
	ResolutionNoRefund      ResolutionType = "no_refund"
)

func (r ResolutionType) IsValid() bool {
	switch r {
	case ResolutionFullRefund, ResolutionPartialRefund, ResolutionNoRefund:
		return true
	}
	return false
}

// MovesFunds сообщает, что решение возвращает деньги из escrow.
func (r ResolutionType) MovesFunds() bool {
	return r == ResolutionFullRefund || r == ResolutionPartialRefund
}

func NewResolutionType(value string) (ResolutionType, error) {
	r := ResolutionType(value)
	if !r.IsValid() {
		return "", apperror.Newf(apperror.ErrCodeValidation, "unknown resolution type %q", value)
	}
	return r, nil
}

type ActivityType string

const (
	ActivityCreated           ActivityType = "created"
	ActivityStatusChanged     ActivityType = "status_changed"
	ActivityAssigned          ActivityType = "assigned"
	ActivityEvidenceSubmitted ActivityType = "evidence_submitted"
	ActivityResolved          ActivityType = "resolved"
	ActivityEscalated         ActivityType = "escalated"
	ActivityWithdrawn         ActivityType = "withdrawn"
	ActivityCommentAdded      ActivityType = "comment_added"
	ActivitySLABreached       ActivityType = "sla_breached"
)

type EvidenceType string

const (
	EvidenceText     EvidenceType = "text"
	EvidenceImage    EvidenceType = "image"
	EvidenceVideo    EvidenceType = "video"
	EvidenceAudio    EvidenceType = "audio"
	EvidenceDocument EvidenceType = "document"
	EvidenceLink     EvidenceType = "link"
)

func (e EvidenceType) IsValid() bool {
	switch e {
	case EvidenceText, EvidenceImage, EvidenceVideo, EvidenceAudio, EvidenceDocument, EvidenceLink:
		return true
	}
	return false
}

// EvidenceTypeForMIME подбирает тип доказательства по верхнему уровню MIME.
func EvidenceTypeForMIME(mimeType string) EvidenceType {
	switch mimeType {
	case "image":
		return EvidenceImage
	case "video":
		return EvidenceVideo
	case "audio":
		return EvidenceAudio
	default:
		return EvidenceDocument
	}
}

type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "pending"
	EscrowStatusFunded   EscrowStatus = "funded"
	EscrowStatusDisputed EscrowStatus = "disputed"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)
