package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"batterycode-go/bus"
	"batterycode-go/types"
)

// exporter mirrors retained battery values and link status into gauges.
type exporter struct {
	reg *prometheus.Registry
	log *zap.Logger

	capacity    *prometheus.GaugeVec
	voltage     *prometheus.GaugeVec
	current     *prometheus.GaugeVec
	rate        *prometheus.GaugeVec
	energyNow   *prometheus.GaugeVec
	energyFull  *prometheus.GaugeVec
	timeToEmpty *prometheus.GaugeVec
	timeToFull  *prometheus.GaugeVec
	status      *prometheus.GaugeVec
	up          *prometheus.GaugeVec
	samples     *prometheus.CounterVec
}

var batteryStatuses = []string{"Unknown", "Charging", "Discharging", "Not charging", "Full"}

func newExporter(log *zap.Logger) *exporter {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "battery",
			Name:      name,
			Help:      help,
		}, append([]string{"battery"}, labels...))
	}
	x := &exporter{
		reg:         prometheus.NewRegistry(),
		log:         log,
		capacity:    gauge("capacity_percent", "Remaining capacity in percent of design energy."),
		voltage:     gauge("voltage_millivolts", "Pack voltage."),
		current:     gauge("current_milliamps", "Current magnitude."),
		rate:        gauge("rate_milliwatts", "Charge or discharge power magnitude."),
		energyNow:   gauge("energy_now_milliwatt_hours", "Remaining energy."),
		energyFull:  gauge("energy_full_milliwatt_hours", "Design full energy."),
		timeToEmpty: gauge("time_to_empty", "Time to empty as reported to the host."),
		timeToFull:  gauge("time_to_full", "Time to full as reported to the host."),
		status:      gauge("status", "1 for the current charge status.", "status"),
		up:          gauge("up", "1 when the last sample reached the controller."),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "battery",
			Name:      "samples_total",
			Help:      "Values received from the HAL.",
		}, []string{"battery"}),
	}
	x.reg.MustRegister(x.capacity, x.voltage, x.current, x.rate, x.energyNow, x.energyFull,
		x.timeToEmpty, x.timeToFull, x.status, x.up, x.samples)
	return x
}

func (x *exporter) observe(name string, v types.BatteryValue) {
	x.capacity.WithLabelValues(name).Set(float64(v.Capacity))
	x.voltage.WithLabelValues(name).Set(float64(v.Voltage_mV))
	x.current.WithLabelValues(name).Set(float64(v.Current_mA))
	x.rate.WithLabelValues(name).Set(float64(v.Rate_mW))
	x.energyNow.WithLabelValues(name).Set(float64(v.EnergyNow_mWh))
	x.energyFull.WithLabelValues(name).Set(float64(v.EnergyFull_mWh))
	x.timeToEmpty.WithLabelValues(name).Set(float64(v.TimeToEmpty))
	x.timeToFull.WithLabelValues(name).Set(float64(v.TimeToFull))
	for _, s := range batteryStatuses {
		val := 0.0
		if s == v.Status {
			val = 1
		}
		x.status.WithLabelValues(name, s).Set(val)
	}
	x.samples.WithLabelValues(name).Inc()
}

func (x *exporter) link(name string, st types.CapabilityStatus) {
	val := 0.0
	if st.Link == types.LinkUp {
		val = 1
	}
	x.up.WithLabelValues(name).Set(val)
	if st.Link == types.LinkDegraded {
		x.log.Warn("battery degraded", zap.String("battery", name), zap.String("error", st.Error))
	}
}

// run follows every battery capability until ctx ends.
func (x *exporter) run(ctx context.Context, conn *bus.Connection) {
	vals := conn.Subscribe(bus.T("hal", "cap", "+", string(types.KindBattery), "+", "value"))
	defer conn.Unsubscribe(vals)
	stats := conn.Subscribe(bus.T("hal", "cap", "+", string(types.KindBattery), "+", "status"))
	defer conn.Unsubscribe(stats)

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-vals.Channel():
			if v, ok := m.Payload.(types.BatteryValue); ok {
				x.observe(capName(m.Topic), v)
			}
		case m := <-stats.Channel():
			if st, ok := m.Payload.(types.CapabilityStatus); ok {
				x.link(capName(m.Topic), st)
			}
		}
	}
}

// capName extracts <name> from hal/cap/<domain>/<kind>/<name>/...
func capName(t bus.Topic) string {
	if t.Len() < 5 {
		return ""
	}
	s, _ := t.At(4).(string)
	return s
}
