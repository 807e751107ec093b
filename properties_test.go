package taps

import "testing"

// TestNewTransportPropertiesDefaults asserts every SelectionProperty's
// documented default bytewise, so a regression to defaultPreferences is
// caught directly rather than through an incidental caller.
func TestNewTransportPropertiesDefaults(t *testing.T) {
	cases := []struct {
		name string
		key  SelectionProperty
		want Preference
	}{
		{"Reliability", Reliability, Require},
		{"PreserveMsgBoundaries", PreserveMsgBoundaries, Prefer},
		{"PerMsgReliability", PerMsgReliability, Ignore},
		{"PreserveOrder", PreserveOrder, Require},
		{"ZeroRttMsg", ZeroRttMsg, Ignore},
		{"Multistreaming", Multistreaming, Prefer},
		{"PerMsgChecksumLenSend", PerMsgChecksumLenSend, Require},
		{"PerMsgChecksumLenRecv", PerMsgChecksumLenRecv, Require},
		{"CongestionControl", CongestionControl, Require},
		{"Interface", Interface, Ignore},
		{"Pvd", Pvd, Ignore},
		{"Multipath", Multipath, Prefer},
		{"RetransmitNotify", RetransmitNotify, Ignore},
		{"SoftErrorNotify", SoftErrorNotify, Ignore},
	}

	if len(cases) != int(numSelectionProperties) {
		t.Fatalf("test covers %d properties, but numSelectionProperties = %d", len(cases), numSelectionProperties)
	}

	props := NewTransportProperties()
	for _, c := range cases {
		if got := props.Get(c.key); got != c.want {
			t.Errorf("default %s = %v, want %v", c.name, got, c.want)
		}
	}

	if got := props.GetDirection(); got != Bidirectional {
		t.Errorf("default direction = %v, want %v", got, Bidirectional)
	}
}

func TestTransportPropertiesResetRestoresDefault(t *testing.T) {
	props := NewTransportProperties()
	props.Prohibit(Reliability)
	if got := props.Get(Reliability); got != Prohibit {
		t.Fatalf("Prohibit(Reliability) = %v, want Prohibit", got)
	}

	props.Reset(Reliability)
	if got := props.Get(Reliability); got != Require {
		t.Fatalf("Reset(Reliability) = %v, want Require (the default)", got)
	}
}

func TestTransportPropertiesCloneIsIndependent(t *testing.T) {
	props := NewTransportProperties()
	clone := props.Clone()

	clone.Prohibit(Reliability)
	if got := props.Get(Reliability); got != Require {
		t.Fatalf("mutating the clone changed the original: Get(Reliability) = %v, want Require", got)
	}
	if got := clone.Get(Reliability); got != Prohibit {
		t.Fatalf("Clone().Prohibit(Reliability) = %v, want Prohibit", got)
	}
}
