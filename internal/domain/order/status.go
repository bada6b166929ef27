package order

import (
	"strings"

	"github.com/go-faster/errors"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// filterInProgress is the storefront listing's name for every status between
// pending and delivered.
const filterInProgress = "in-progress"

// progression orders the non-cancelled statuses; an order only moves forward.
var progression = map[Status]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

// Statuses lists every status in fulfilment order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusDelivered,
	StatusCancelled,
}

// ErrUnknownStatus is returned when parsing a value outside Statuses.
var ErrUnknownStatus = errors.New("unknown order status")

// ParseStatus converts s into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if st == StatusCancelled {
		return st, nil
	}
	if _, ok := progression[st]; ok {
		return st, nil
	}
	return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an administrator may move an order from
// status from to status to. Orders move forward along
// pending → confirmed → preparing → ready → delivered, may skip steps, and
// may be cancelled from any non-terminal status.
func CanTransition(from, to Status) bool {
	if from == to || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fi, ok := progression[from]
	if !ok {
		return false
	}
	ti, ok := progression[to]
	if !ok {
		return false
	}
	return ti > fi
}

// ExpandFilter turns a listing filter value into concrete statuses. Besides
// the canonical statuses it accepts "in-progress", and "" or "all" for no
// filtering.
func ExpandFilter(v string) ([]Status, error) {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case "", "all":
		return nil, nil
	case filterInProgress:
		return []Status{StatusConfirmed, StatusPreparing, StatusReady}, nil
	}
	st, err := ParseStatus(v)
	if err != nil {
		return nil, err
	}
	return []Status{st}, nil
}
