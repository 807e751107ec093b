package taps

import "fmt"

// Preference expresses how strongly an application cares about a given
// SelectionProperty when the system picks a concrete transport.
type Preference int

const (
	// Require selects only protocols/paths providing the property, and
	// fails transport selection otherwise.
	Require Preference = iota
	// Prefer favours protocols/paths providing the property, but proceeds
	// without it if none are available.
	Prefer
	// Ignore expresses no preference either way.
	Ignore
	// Avoid favours protocols/paths not providing the property, but
	// proceeds with it if nothing else is available.
	Avoid
	// Prohibit selects only protocols/paths not providing the property,
	// and fails transport selection otherwise.
	Prohibit
)

func (p Preference) String() string {
	switch p {
	case Require:
		return "Require"
	case Prefer:
		return "Prefer"
	case Ignore:
		return "Ignore"
	case Avoid:
		return "Avoid"
	case Prohibit:
		return "Prohibit"
	default:
		return fmt.Sprintf("Preference(%d)", int(p))
	}
}

// SelectionProperty names one of the closed set of transport preferences
// an application can express.
type SelectionProperty int

const (
	Reliability SelectionProperty = iota
	PreserveMsgBoundaries
	PerMsgReliability
	PreserveOrder
	ZeroRttMsg
	Multistreaming
	PerMsgChecksumLenSend
	PerMsgChecksumLenRecv
	CongestionControl
	Interface
	Pvd
	Multipath
	RetransmitNotify
	SoftErrorNotify

	numSelectionProperties
)

// Direction states which way(s) a Connection must be able to move data.
type Direction int

const (
	// Bidirectional connections can both send and receive.
	Bidirectional Direction = iota
	// Sender-only connections only need to send.
	Sender
	// Receiver-only connections only need to receive.
	Receiver
)

func (d Direction) String() string {
	switch d {
	case Bidirectional:
		return "Bidirectional"
	case Sender:
		return "Sender"
	case Receiver:
		return "Receiver"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// defaultPreferences mirrors the conventional defaults
// exactly (original_source/src/properties/mod.rs): reliable, ordered,
// congestion-controlled transport by default, with message boundaries and
// multistreaming preferred rather than required.
var defaultPreferences = [numSelectionProperties]Preference{
	Reliability:           Require,
	PreserveMsgBoundaries:  Prefer,
	PerMsgReliability:      Ignore,
	PreserveOrder:          Require,
	ZeroRttMsg:             Ignore,
	Multistreaming:         Prefer,
	PerMsgChecksumLenSend:  Require,
	PerMsgChecksumLenRecv:  Require,
	CongestionControl:      Require,
	Interface:              Ignore,
	Pvd:                    Ignore,
	Multipath:              Prefer,
	RetransmitNotify:       Ignore,
	SoftErrorNotify:        Ignore,
}

// TransportProperties is an immutable-once-finalized bag of transport
// preferences plus a direction, consulted by the race engine's selection
// ladder. All operations are infallible and O(1); there are no
// observable side effects beyond the receiver itself.
type TransportProperties struct {
	prefs     [numSelectionProperties]Preference
	direction Direction
}

// NewTransportProperties returns a TransportProperties initialized to the
// documented defaults.
func NewTransportProperties() *TransportProperties {
	return &TransportProperties{
		prefs:     defaultPreferences,
		direction: Bidirectional,
	}
}

// Set assigns an explicit preference to a property.
func (p *TransportProperties) Set(key SelectionProperty, pref Preference) *TransportProperties {
	p.prefs[key] = pref
	return p
}

// Require is shorthand for Set(key, Require).
func (p *TransportProperties) Require(key SelectionProperty) *TransportProperties {
	return p.Set(key, Require)
}

// Prefer is shorthand for Set(key, Prefer).
func (p *TransportProperties) Prefer(key SelectionProperty) *TransportProperties {
	return p.Set(key, Prefer)
}

// IgnoreProperty is shorthand for Set(key, Ignore). Named to avoid
// colliding with the Ignore preference constant.
func (p *TransportProperties) IgnoreProperty(key SelectionProperty) *TransportProperties {
	return p.Set(key, Ignore)
}

// Avoid is shorthand for Set(key, Avoid).
func (p *TransportProperties) Avoid(key SelectionProperty) *TransportProperties {
	return p.Set(key, Avoid)
}

// Prohibit is shorthand for Set(key, Prohibit).
func (p *TransportProperties) Prohibit(key SelectionProperty) *TransportProperties {
	return p.Set(key, Prohibit)
}

// Reset restores a single property to its documented default, without
// rebuilding the whole bag (original_source/src/properties/mod.rs:
// default_prop).
func (p *TransportProperties) Reset(key SelectionProperty) *TransportProperties {
	p.prefs[key] = defaultPreferences[key]
	return p
}

// Get returns the current preference for a property.
func (p *TransportProperties) Get(key SelectionProperty) Preference {
	return p.prefs[key]
}

// SetDirection sets which way(s) the eventual Connection must support.
func (p *TransportProperties) SetDirection(d Direction) *TransportProperties {
	p.direction = d
	return p
}

// GetDirection returns the configured direction.
func (p *TransportProperties) GetDirection() Direction {
	return p.direction
}

// Clone returns an independent copy. TransportProperties has value
// semantics once copied this way — the race engine clones the bag into
// every per-address goroutine rather than sharing a pointer
// "Shared-resource policy").
func (p *TransportProperties) Clone() *TransportProperties {
	cp := *p
	return &cp
}
