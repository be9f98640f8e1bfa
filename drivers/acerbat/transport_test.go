package acerbat

import "testing"

func TestReadByte_SelectThenRead(t *testing.T) {
	bus := newFakeBus()
	bus.regs[RegStatus] = 0x5A
	h, rec := newHandle(t, bus)

	if got := ReadByte(h, RegStatus); got != 0x5A {
		t.Fatalf("ReadByte = %#x, want 0x5A", got)
	}
	want := []byte{0x02, 0x80, byte(RegStatus)}
	if string(bus.lastCmd) != string(want) {
		t.Fatalf("command = % x, want % x", bus.lastCmd, want)
	}
	if len(bus.readLens) != 1 || bus.readLens[0] != 1 {
		t.Fatalf("read phase lengths = %v, want [1]", bus.readLens)
	}
	if len(rec.failed) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", rec.failed)
	}
}

func TestReadByteResult_RetriesTransientFailures(t *testing.T) {
	cases := []struct {
		name      string
		failW     int
		failR     int
		wantOK    bool
		wantPhase Phase
		wantTries uint8
		wantValue uint8
	}{
		{name: "clean", wantOK: true, wantTries: 1, wantValue: 0x42},
		{name: "write recovers", failW: 4, wantOK: true, wantTries: 1, wantValue: 0x42},
		{name: "read recovers", failR: 4, wantOK: true, wantTries: 5, wantValue: 0x42},
		{name: "write exhausted", failW: 5, wantPhase: PhaseWrite, wantTries: MaxAttempts},
		{name: "read exhausted", failR: 5, wantPhase: PhaseRead, wantTries: MaxAttempts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := newFakeBus()
			bus.regs[RegStatus] = 0x42
			bus.failWrites[RegStatus] = tc.failW
			bus.failReads[RegStatus] = tc.failR
			h, _ := newHandle(t, bus)

			r := ReadByteResult(h, RegStatus)
			if r.OK != tc.wantOK || r.Phase != tc.wantPhase || r.Attempts != tc.wantTries || r.Value != tc.wantValue {
				t.Fatalf("got %+v", r)
			}
			if !r.OK && r.Err == nil {
				t.Fatal("failed reading carries no error")
			}
		})
	}
}

func TestReadByteResult_WriteExhaustionSkipsReadPhase(t *testing.T) {
	bus := newFakeBus()
	bus.failAll = true
	h, _ := newHandle(t, bus)

	ReadByteResult(h, RegVoltage)
	if bus.writes != MaxAttempts {
		t.Fatalf("writes = %d, want %d", bus.writes, MaxAttempts)
	}
	if bus.reads != 0 {
		t.Fatalf("reads = %d, want 0 after write exhaustion", bus.reads)
	}
}

func TestReadByte_ExhaustionYieldsZeroAndOneDiagnostic(t *testing.T) {
	bus := newFakeBus()
	bus.regs[RegEnergy] = 0xFF
	bus.failReads[RegEnergy] = MaxAttempts
	h, rec := newHandle(t, bus)

	if got := ReadByte(h, RegEnergy); got != 0 {
		t.Fatalf("ReadByte = %#x, want sentinel 0", got)
	}
	if len(rec.failed) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(rec.failed))
	}
	if f := rec.failed[0]; f.Reg != RegEnergy || f.Phase != PhaseRead || f.Attempts != MaxAttempts {
		t.Fatalf("diagnostic = %+v", f)
	}
}

func TestReadWord_LittleEndianFromTwoByteReads(t *testing.T) {
	for _, reg := range []Register{RegEnergy, RegVoltage, RegRate, 0x00, 0x7F, 0xFE} {
		bus := newFakeBus()
		bus.regs[reg] = 0x34
		bus.regs[reg+1] = 0x12
		h, _ := newHandle(t, bus)

		lo := ReadByte(h, reg)
		hi := ReadByte(h, reg+1)
		want := uint16(lo) | uint16(hi)<<8
		if got := ReadWord(h, reg); got != want || got != 0x1234 {
			t.Fatalf("reg %s: ReadWord = %#04x, want %#04x", reg, got, want)
		}
	}
}

func TestReadWord_HalfFailureKeepsOtherByte(t *testing.T) {
	bus := newFakeBus()
	bus.setWord(RegVoltage, 0x1CE8)
	bus.failWrites[RegVoltage+1] = MaxAttempts
	h, rec := newHandle(t, bus)

	if got := ReadWord(h, RegVoltage); got != 0x00E8 {
		t.Fatalf("ReadWord = %#04x, want 0x00E8", got)
	}
	if len(rec.failed) != 1 || rec.failed[0].Reg != RegVoltage+1 {
		t.Fatalf("diagnostics = %+v", rec.failed)
	}
}

func TestHandle_DefaultsAddress(t *testing.T) {
	bus := newFakeBus()
	bus.regs[RegStatus] = 1
	h := Handle{Bus: bus, Diag: Discard{}}
	if got := ReadByte(h, RegStatus); got != 1 {
		t.Fatalf("ReadByte with zero Addr = %d, want 1", got)
	}
	if NewHandle(bus).Addr != AddressDefault {
		t.Fatal("NewHandle does not use AddressDefault")
	}
}

func TestRegister_String(t *testing.T) {
	if s := RegRate.String(); s != "0xD0" {
		t.Fatalf("RegRate.String() = %q", s)
	}
}
