package types

// ------------------------
// Capability addressing & kinds
// ------------------------

type Kind string

const (
	KindBattery Kind = "battery"
)
