package entity

import "fmt"

// RfqStatus describes the lifecycle of an RFQ.
type RfqStatus int

const (
	RfqStatusUnspecified RfqStatus = iota
	RfqStatusDraft
	RfqStatusDispatched
	RfqStatusBiddingOpen
	RfqStatusSelected
	RfqStatusCancelled
)

var rfqStatusLabels = map[RfqStatus]string{
	RfqStatusDraft:       "DRAFT",
	RfqStatusDispatched:  "DISPATCHED",
	RfqStatusBiddingOpen: "BIDDING_OPEN",
	RfqStatusSelected:    "SELECTED",
	RfqStatusCancelled:   "CANCELLED",
}

func (s RfqStatus) String() string {
	if l, ok := rfqStatusLabels[s]; ok {
		return l
	}

	return "UNSPECIFIED"
}

func ParseRfqStatus(label string) (RfqStatus, error) {
	for s, l := range rfqStatusLabels {
		if l == label {
			return s, nil
		}
	}

	return RfqStatusUnspecified, fmt.Errorf("unknown rfq status %q", label)
}

// RfqOperation is a state-changing operation on an RFQ.
type RfqOperation string

const (
	RfqOpEditLineItems     RfqOperation = "editLineItems"
	RfqOpDispatch          RfqOperation = "dispatch"
	RfqOpOpenBidding       RfqOperation = "openBidding"
	RfqOpCancel            RfqOperation = "cancel"
	RfqOpFinalizeSelection RfqOperation = "finalizeSelection"
	RfqOpReopenSelection   RfqOperation = "reopenSelection"
)

type rfqTransition struct {
	from []RfqStatus
	to   RfqStatus
}

// rfqTransitions is the only place RFQ status rules live.
var rfqTransitions = map[RfqOperation]rfqTransition{
	RfqOpEditLineItems:     {from: []RfqStatus{RfqStatusDraft}, to: RfqStatusDraft},
	RfqOpDispatch:          {from: []RfqStatus{RfqStatusDraft}, to: RfqStatusDispatched},
	RfqOpOpenBidding:       {from: []RfqStatus{RfqStatusDispatched}, to: RfqStatusBiddingOpen},
	RfqOpCancel:            {from: []RfqStatus{RfqStatusDraft, RfqStatusDispatched}, to: RfqStatusCancelled},
	RfqOpFinalizeSelection: {from: []RfqStatus{RfqStatusBiddingOpen}, to: RfqStatusSelected},
	RfqOpReopenSelection:   {from: []RfqStatus{RfqStatusSelected}, to: RfqStatusBiddingOpen},
}

// NextRfqStatus returns the status reached by applying op from the given status.
func NextRfqStatus(from RfqStatus, op RfqOperation) (RfqStatus, bool) {
	t, ok := rfqTransitions[op]
	if !ok {
		return from, false
	}
	for _, s := range t.from {
		if s == from {
			return t.to, true
		}
	}

	return from, false
}

// InvitationStatus describes a vendor's participation in one RFQ.
type InvitationStatus int

const (
	InvitationStatusUnspecified InvitationStatus = iota
	InvitationStatusRequested
	InvitationStatusAccepted
	InvitationStatusDraftSaved
	InvitationStatusSubmitted
	InvitationStatusDeclined
	InvitationStatusVoid
)

var invitationStatusLabels = map[InvitationStatus]string{
	InvitationStatusRequested:  "REQUESTED",
	InvitationStatusAccepted:   "ACCEPTED",
	InvitationStatusDraftSaved: "DRAFT_SAVED",
	InvitationStatusSubmitted:  "SUBMITTED",
	InvitationStatusDeclined:   "DECLINED",
	InvitationStatusVoid:       "VOID",
}

func (s InvitationStatus) String() string {
	if l, ok := invitationStatusLabels[s]; ok {
		return l
	}

	return "UNSPECIFIED"
}

func ParseInvitationStatus(label string) (InvitationStatus, error) {
	for s, l := range invitationStatusLabels {
		if l == label {
			return s, nil
		}
	}

	return InvitationStatusUnspecified, fmt.Errorf("unknown invitation status %q", label)
}

type InvitationOperation string

const (
	InvitationOpAccept    InvitationOperation = "accept"
	InvitationOpSaveDraft InvitationOperation = "saveDraft"
	InvitationOpSubmit    InvitationOperation = "submit"
	InvitationOpDecline   InvitationOperation = "decline"
	InvitationOpVoid      InvitationOperation = "void"
)

type invitationTransition struct {
	from []InvitationStatus
	to   InvitationStatus
}

var invitationTransitions = map[InvitationOperation]invitationTransition{
	InvitationOpAccept: {
		from: []InvitationStatus{InvitationStatusRequested},
		to:   InvitationStatusAccepted,
	},
	InvitationOpSaveDraft: {
		from: []InvitationStatus{InvitationStatusAccepted, InvitationStatusDraftSaved},
		to:   InvitationStatusDraftSaved,
	},
	InvitationOpSubmit: {
		from: []InvitationStatus{InvitationStatusAccepted, InvitationStatusDraftSaved},
		to:   InvitationStatusSubmitted,
	},
	InvitationOpDecline: {
		from: []InvitationStatus{InvitationStatusRequested, InvitationStatusAccepted, InvitationStatusDraftSaved},
		to:   InvitationStatusDeclined,
	},
	InvitationOpVoid: {
		from: []InvitationStatus{InvitationStatusRequested, InvitationStatusAccepted, InvitationStatusDraftSaved, InvitationStatusSubmitted},
		to:   InvitationStatusVoid,
	},
}

func NextInvitationStatus(from InvitationStatus, op InvitationOperation) (InvitationStatus, bool) {
	t, ok := invitationTransitions[op]
	if !ok {
		return from, false
	}
	for _, s := range t.from {
		if s == from {
			return t.to, true
		}
	}

	return from, false
}

// RfqType distinguishes how vendors are solicited.
type RfqType int

const (
	RfqTypeUnspecified RfqType = iota
	RfqTypeNegotiated
	RfqTypeCompetitive
)

func (t RfqType) String() string {
	switch t {
	case RfqTypeNegotiated:
		return "NEGOTIATED"
	case RfqTypeCompetitive:
		return "COMPETITIVE"
	default:
		return "UNSPECIFIED"
	}
}

func ParseRfqType(label string) (RfqType, error) {
	switch label {
	case "NEGOTIATED":
		return RfqTypeNegotiated, nil
	case "COMPETITIVE":
		return RfqTypeCompetitive, nil
	default:
		return RfqTypeUnspecified, fmt.Errorf("unknown rfq type %q", label)
	}
}
