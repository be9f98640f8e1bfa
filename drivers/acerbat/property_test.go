package acerbat

import (
	"errors"
	"testing"
)

func TestGetProperty_LiveValues(t *testing.T) {
	bus := newFakeBus()
	bus.regs[RegStatus] = 0x02
	bus.setWord(RegEnergy, 0x0064)
	bus.setWord(RegVoltage, 7400)
	bus.setWord(RegRate, 0xFF9C)
	h, rec := newHandle(t, bus)

	cases := []struct {
		p    Property
		want Value
	}{
		{PropStatus, IntValue(int32(StatusCharging))},
		{PropCapacity, IntValue(2)},
		{PropCapacityLevel, IntValue(int32(LevelCritical))},
		{PropVoltageNow, IntValue(7400)},
		{PropCurrentNow, IntValue(100)},
		{PropEnergyNow, IntValue(1_000_000)},
		{PropEnergyFull, IntValue(37_500_000)},
		{PropTimeToEmptyNow, IntValue(4864)},
		{PropTimeToFullNow, IntValue(36500 * 3_600_000 / 740000)},
		{PropPresent, IntValue(1)},
		{PropTechnology, IntValue(int32(TechLiIon))},
		{PropManufacturer, StringValue("Acer")},
		{PropModelName, StringValue("Switch 11 Battery")},
	}
	for _, tc := range cases {
		got, err := GetProperty(h, tc.p)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.p, err)
		}
		if got != tc.want {
			t.Errorf("%s = %+v, want %+v", tc.p, got, tc.want)
		}
	}
	if len(rec.failed) != 0 || len(rec.unsupported) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", rec)
	}
}

func TestGetProperty_Unsupported(t *testing.T) {
	bus := newFakeBus()
	h, rec := newHandle(t, bus)

	for _, p := range []Property{PropHealth, PropTemp, PropCycleCount, PropChargeNow, Property(200)} {
		v, err := GetProperty(h, p)
		if !errors.Is(err, ErrUnsupportedProperty) {
			t.Fatalf("%s: err = %v, want ErrUnsupportedProperty", p, err)
		}
		if v != (Value{}) {
			t.Fatalf("%s: value = %+v, want zero", p, v)
		}
	}
	if len(rec.unsupported) != 5 {
		t.Fatalf("unsupported diagnostics = %d, want 5", len(rec.unsupported))
	}
	if bus.writes != 0 {
		t.Fatalf("unsupported properties touched the bus (%d writes)", bus.writes)
	}
}

func TestGetProperty_SilentBusIsTotal(t *testing.T) {
	bus := newFakeBus()
	bus.failAll = true
	h, rec := newHandle(t, bus)

	for _, p := range SupportedProperties {
		v, err := GetProperty(h, p)
		if err != nil {
			t.Fatalf("%s: err = %v", p, err)
		}
		switch p {
		case PropStatus:
			if Status(v.Int) != StatusUnknown {
				t.Errorf("status = %v, want Unknown", Status(v.Int))
			}
		case PropCapacityLevel:
			if CapacityLevel(v.Int) != LevelCritical {
				t.Errorf("capacity_level = %v, want Critical", CapacityLevel(v.Int))
			}
		case PropEnergyFull, PropPresent, PropTechnology, PropManufacturer, PropModelName:
			// static
		default:
			if v.Int != 0 {
				t.Errorf("%s = %d, want 0", p, v.Int)
			}
		}
	}
	if len(rec.failed) == 0 {
		t.Fatal("expected transfer diagnostics on a silent bus")
	}
}

func TestProperties_AdvertisedListIsStable(t *testing.T) {
	a := Properties()
	a[0] = PropTemp
	b := Properties()
	if b[0] != PropStatus {
		t.Fatal("Properties() exposes the backing array")
	}
	if len(b) != 13 {
		t.Fatalf("advertised %d properties, want 13", len(b))
	}
	for _, p := range b {
		if !Supported(p) {
			t.Fatalf("%s advertised but not supported", p)
		}
	}
	if Supported(PropHealth) {
		t.Fatal("health should not be supported")
	}
}

func TestParseProperty_RoundTrip(t *testing.T) {
	for p := Property(0); p < numProperties; p++ {
		got, ok := ParseProperty(p.String())
		if !ok || got != p {
			t.Fatalf("ParseProperty(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParseProperty("voltage_max"); ok {
		t.Fatal("ParseProperty accepted an unknown name")
	}
}

func TestProperty_Format(t *testing.T) {
	cases := []struct {
		p    Property
		v    Value
		want string
	}{
		{PropStatus, IntValue(int32(StatusDischarging)), "Discharging"},
		{PropCapacityLevel, IntValue(int32(LevelFull)), "Full"},
		{PropTechnology, IntValue(int32(TechLiIon)), "Li-ion"},
		{PropVoltageNow, IntValue(7400), "7400"},
		{PropCurrentNow, IntValue(-5), "-5"},
		{PropManufacturer, StringValue("Acer"), "Acer"},
	}
	for _, tc := range cases {
		if got := tc.p.Format(tc.v); got != tc.want {
			t.Errorf("%s.Format = %q, want %q", tc.p, got, tc.want)
		}
	}
}
