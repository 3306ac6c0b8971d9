package booking

// Actor is who requests a transition. Admin callers act as ActorSystem.
type Actor string

const (
	ActorClient  Actor = "client"
	ActorStylist Actor = "stylist"
	ActorSystem  Actor = "system"
)

// Action is a lifecycle request. Each action targets exactly one status, so a
// repeated request can be recognized as already applied.
type Action string

const (
	ActionCapture       Action = "capture"
	ActionPaymentFailed Action = "payment_failed"
	ActionExpirePayment Action = "expire_payment"
	ActionAccept        Action = "accept"
	ActionDecline       Action = "decline"
	ActionExpireRespond Action = "response_timeout"
	ActionConfirm       Action = "confirm"
	ActionExpireConfirm Action = "confirm_timeout"
	ActionStart         Action = "start"
	ActionComplete      Action = "complete"
	ActionClientNoShow  Action = "client_no_show"
	ActionStylistNoShow Action = "stylist_no_show"
	ActionCancel        Action = "cancel"
)

// HoldEffect is what a transition does to the booking's slot hold, inside the
// same transaction as the status change.
type HoldEffect int

const (
	HoldKeep HoldEffect = iota
	HoldConfirm
	HoldRelease
)

// DeadlineKind identifies a timeout job owned by a booking state.
type DeadlineKind string

const (
	DeadlinePayment DeadlineKind = "payment_window"
	DeadlineRespond DeadlineKind = "stylist_response"
	DeadlineConfirm DeadlineKind = "client_confirm"
	DeadlineStart   DeadlineKind = "appointment_start"
)

// allDeadlines is cancelled wholesale on entering a terminal state.
var allDeadlines = []DeadlineKind{DeadlinePayment, DeadlineRespond, DeadlineConfirm, DeadlineStart}

// rule describes one legal transition.
type rule struct {
	to     Status
	actors []Actor
	effect HoldEffect
	// schedule is the deadline the target state owns; cancel lists the
	// deadlines left behind. A terminal target cancels everything.
	schedule DeadlineKind
	cancel   []DeadlineKind
}

func (r rule) allows(a Actor) bool {
	if a == ActorSystem {
		return true
	}
	for _, actor := range r.actors {
		if actor == a {
			return true
		}
	}
	return false
}

// transitions is the full state machine: action -> allowed source states.
var transitions = map[Action]map[Status]rule{
	ActionCapture: {
		StatusPendingPayment: {to: StatusPendingApproval, actors: []Actor{ActorClient}, effect: HoldKeep,
			schedule: DeadlineRespond, cancel: []DeadlineKind{DeadlinePayment}},
	},
	ActionPaymentFailed: {
		StatusPendingPayment: {to: StatusExpired, actors: []Actor{ActorClient}, effect: HoldRelease,
			cancel: allDeadlines},
	},
	ActionExpirePayment: {
		StatusPendingPayment: {to: StatusExpired, effect: HoldRelease, cancel: allDeadlines},
	},
	ActionAccept: {
		StatusPendingApproval: {to: StatusAccepted, actors: []Actor{ActorStylist}, effect: HoldKeep,
			schedule: DeadlineConfirm, cancel: []DeadlineKind{DeadlineRespond}},
	},
	ActionDecline: {
		StatusPendingApproval: {to: StatusDeclined, actors: []Actor{ActorStylist}, effect: HoldRelease,
			cancel: allDeadlines},
	},
	ActionExpireRespond: {
		StatusPendingApproval: {to: StatusNoResponse, effect: HoldRelease, cancel: allDeadlines},
	},
	ActionConfirm: {
		StatusAccepted: {to: StatusConfirmed, actors: []Actor{ActorClient}, effect: HoldConfirm,
			schedule: DeadlineStart, cancel: []DeadlineKind{DeadlineConfirm}},
	},
	ActionExpireConfirm: {
		StatusAccepted: {to: StatusNoConfirm, effect: HoldRelease, cancel: allDeadlines},
	},
	ActionStart: {
		StatusConfirmed: {to: StatusInProgress, effect: HoldKeep,
			cancel: []DeadlineKind{DeadlineStart}},
	},
	ActionComplete: {
		StatusInProgress: {to: StatusCompleted, actors: []Actor{ActorStylist}, effect: HoldRelease,
			cancel: allDeadlines},
	},
	ActionClientNoShow: {
		StatusInProgress: {to: StatusClientNoShow, actors: []Actor{ActorStylist}, effect: HoldRelease,
			cancel: allDeadlines},
	},
	ActionStylistNoShow: {
		StatusInProgress: {to: StatusStylistNoShow, actors: []Actor{ActorClient}, effect: HoldRelease,
			cancel: allDeadlines},
	},
	ActionCancel: {
		StatusPendingPayment:  {to: StatusCancelled, actors: []Actor{ActorClient, ActorStylist}, effect: HoldRelease, cancel: allDeadlines},
		StatusPendingApproval: {to: StatusCancelled, actors: []Actor{ActorClient, ActorStylist}, effect: HoldRelease, cancel: allDeadlines},
		StatusAccepted:        {to: StatusCancelled, actors: []Actor{ActorClient, ActorStylist}, effect: HoldRelease, cancel: allDeadlines},
		StatusConfirmed:       {to: StatusCancelled, actors: []Actor{ActorClient, ActorStylist}, effect: HoldRelease, cancel: allDeadlines},
	},
}

// ruleFor returns the rule for applying action from the given status.
func ruleFor(action Action, from Status) (rule, bool) {
	r, ok := transitions[action][from]
	return r, ok
}

// actionRule returns the action's canonical rule, independent of source state.
// Every source state of an action shares the same actor set, so the rule is
// usable for authorization even when the action does not apply right now.
func actionRule(action Action) (rule, bool) {
	for _, r := range transitions[action] {
		return r, true
	}
	return rule{}, false
}

// Target returns the status the action leads to, regardless of source state.
func Target(action Action) Status {
	for _, r := range transitions[action] {
		return r.to
	}
	return ""
}
