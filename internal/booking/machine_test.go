package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTargets(t *testing.T) {
	cases := map[Action]Status{
		ActionCapture:       StatusPendingApproval,
		ActionPaymentFailed: StatusExpired,
		ActionExpirePayment: StatusExpired,
		ActionAccept:        StatusAccepted,
		ActionDecline:       StatusDeclined,
		ActionExpireRespond: StatusNoResponse,
		ActionConfirm:       StatusConfirmed,
		ActionExpireConfirm: StatusNoConfirm,
		ActionStart:         StatusInProgress,
		ActionComplete:      StatusCompleted,
		ActionClientNoShow:  StatusClientNoShow,
		ActionStylistNoShow: StatusStylistNoShow,
		ActionCancel:        StatusCancelled,
	}

	for action, want := range cases {
		assert.Equal(t, want, Target(action), "target of %s", action)
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	terminals := []Status{
		StatusCompleted, StatusDeclined, StatusNoResponse, StatusNoConfirm,
		StatusClientNoShow, StatusStylistNoShow, StatusCancelled, StatusExpired,
	}

	for _, status := range terminals {
		require.True(t, status.Terminal(), "%s must be terminal", status)
		for action := range transitions {
			_, ok := ruleFor(action, status)
			assert.False(t, ok, "%s must not leave terminal state %s", action, status)
		}
	}
}

func TestEveryTerminalTransitionReleasesTheHold(t *testing.T) {
	for action, rules := range transitions {
		for from, r := range rules {
			if !r.to.Terminal() {
				continue
			}
			assert.Equal(t, HoldRelease, r.effect,
				"%s from %s enters terminal %s and must release the hold", action, from, r.to)
			assert.NotEmpty(t, r.cancel,
				"%s from %s enters terminal %s and must cancel pending deadlines", action, from, r.to)
		}
	}
}

func TestEachActionHasOneTarget(t *testing.T) {
	// Idempotence detection relies on an action mapping to exactly one status.
	for action, rules := range transitions {
		targets := map[Status]bool{}
		for _, r := range rules {
			targets[r.to] = true
		}
		assert.Len(t, targets, 1, "action %s", action)
	}
}

func TestActorGating(t *testing.T) {
	t.Run("accept is stylist-only", func(t *testing.T) {
		r, ok := ruleFor(ActionAccept, StatusPendingApproval)
		require.True(t, ok)
		assert.True(t, r.allows(ActorStylist))
		assert.False(t, r.allows(ActorClient))
	})

	t.Run("confirm is client-only", func(t *testing.T) {
		r, ok := ruleFor(ActionConfirm, StatusAccepted)
		require.True(t, ok)
		assert.True(t, r.allows(ActorClient))
		assert.False(t, r.allows(ActorStylist))
	})

	t.Run("cancel is open to both sides", func(t *testing.T) {
		r, ok := ruleFor(ActionCancel, StatusAccepted)
		require.True(t, ok)
		assert.True(t, r.allows(ActorClient))
		assert.True(t, r.allows(ActorStylist))
	})

	t.Run("no-show is reported by the other party", func(t *testing.T) {
		r, ok := ruleFor(ActionClientNoShow, StatusInProgress)
		require.True(t, ok)
		assert.True(t, r.allows(ActorStylist))
		assert.False(t, r.allows(ActorClient))

		r, ok = ruleFor(ActionStylistNoShow, StatusInProgress)
		require.True(t, ok)
		assert.True(t, r.allows(ActorClient))
		assert.False(t, r.allows(ActorStylist))
	})

	t.Run("system passes every gate", func(t *testing.T) {
		for action, rules := range transitions {
			for from := range rules {
				r, _ := ruleFor(action, from)
				assert.True(t, r.allows(ActorSystem), "%s from %s", action, from)
			}
		}
	})
}

func TestConfirmUpgradesHoldAndSchedulesStart(t *testing.T) {
	r, ok := ruleFor(ActionConfirm, StatusAccepted)
	require.True(t, ok)
	assert.Equal(t, HoldConfirm, r.effect)
	assert.Equal(t, DeadlineStart, r.schedule)
	assert.Contains(t, r.cancel, DeadlineConfirm)
}

func TestCaptureSwapsPaymentDeadlineForResponse(t *testing.T) {
	r, ok := ruleFor(ActionCapture, StatusPendingPayment)
	require.True(t, ok)
	assert.Equal(t, DeadlineRespond, r.schedule)
	assert.Contains(t, r.cancel, DeadlinePayment)
	assert.Equal(t, HoldKeep, r.effect)
}

func TestCancelSourcesStopAtInProgress(t *testing.T) {
	_, ok := ruleFor(ActionCancel, StatusInProgress)
	assert.False(t, ok, "an appointment in progress resolves via complete or no-show")
}
