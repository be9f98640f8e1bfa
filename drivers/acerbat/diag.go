package acerbat

// Diagnostics receives the driver's failure reports. Implementations must
// not block; they run inline on the query path.
type Diagnostics interface {
	TransferFailed(r Reading)
	UnsupportedProperty(p Property)
}

// PrintDiagnostics writes one line per event with the builtin println.
type PrintDiagnostics struct{}

func (PrintDiagnostics) TransferFailed(r Reading) {
	msg := "no error"
	if r.Err != nil {
		msg = r.Err.Error()
	}
	println("[acerbat]", r.Phase.String(), "of register", r.Reg.String(), "failed after",
		int(r.Attempts), "/", MaxAttempts, "tries:", msg)
}

func (PrintDiagnostics) UnsupportedProperty(p Property) {
	println("[acerbat] unknown report requested:", p.String())
}

// Discard drops all diagnostics.
type Discard struct{}

func (Discard) TransferFailed(Reading)       {}
func (Discard) UnsupportedProperty(Property) {}
