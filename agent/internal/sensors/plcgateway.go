package sensors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aquamind/aquamind/agent/internal/config"
	"github.com/aquamind/aquamind/pkg/types"
)

// Gauge families exported by the PLC gateway.
const (
	// Turntable drive frequency currently applied, in Hz.
	gwTurntableFrequency = "aquamind_turntable_frequency_hz"

	// 1 when the third (standby) adsorption line is running.
	gwTurntableStandby = "aquamind_turntable_standby_active"

	// Measured toxicity removal rate across the turntable, in percent.
	gwTurntableRemoval = "aquamind_turntable_removal_rate_percent"

	// Transmembrane pressure, in kPa.
	gwMBRTMP = "aquamind_mbr_tmp_kilopascals"

	// Permeate flux, in LMH.
	gwMBRFlux = "aquamind_mbr_flux_lmh"

	// Membrane-scour aeration rate, in m³/h.
	gwMBRAeration = "aquamind_mbr_aeration_m3_per_hour"

	// Activated-carbon adsorption efficiency, in percent.
	gwCarbonEfficiency = "aquamind_carbon_adsorption_efficiency_percent"

	// Cumulative carbon runtime since the last regeneration, in hours.
	gwCarbonHours = "aquamind_carbon_operating_hours_total"

	// Carbon-stage toxicity removal rate, in percent. Optional.
	gwCarbonRemoval = "aquamind_carbon_removal_rate_percent"
)

type gatewayScraper struct {
	src    config.Source
	client *http.Client
}

// Scrape fetches the gateway's /metrics endpoint and maps the aquamind_*
// gauge families to snapshot sections. A family absent from the exposition
// leaves its section nil; the server treats nil sections as "not reported",
// not as zero readings.
func (s *gatewayScraper) Scrape(ctx context.Context) (*types.PlantReadings, error) {
	mfs, err := fetchMetrics(ctx, s.client, s.src.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("plcgateway scrape %q: %w", s.src.ID, err)
	}

	snap := &types.PlantReadings{
		SourceID:  s.src.ID,
		Timestamp: time.Now().UTC(),
	}

	if freq, ok := gaugeValue(mfs[gwTurntableFrequency]); ok {
		tt := &types.TurntableReading{Frequency: freq}
		if removal, ok := gaugeValue(mfs[gwTurntableRemoval]); ok {
			tt.RemovalRate = removal
		}
		if standby, ok := gaugeValue(mfs[gwTurntableStandby]); ok {
			tt.StandbyActive = standby > 0.5
		}
		snap.Turntable = tt
	}

	if tmp, ok := gaugeValue(mfs[gwMBRTMP]); ok {
		mbr := &types.MBRReading{TMP: tmp}
		if flux, ok := gaugeValue(mfs[gwMBRFlux]); ok {
			mbr.Flux = flux
		}
		if aeration, ok := gaugeValue(mfs[gwMBRAeration]); ok {
			mbr.Aeration = aeration
		}
		snap.MBR = mbr
	}

	if eff, ok := gaugeValue(mfs[gwCarbonEfficiency]); ok {
		carbon := &types.CarbonReading{AdsorptionEfficiency: eff}
		if hours, ok := gaugeValue(mfs[gwCarbonHours]); ok {
			carbon.OperatingHours = hours
		}
		if removal, ok := gaugeValue(mfs[gwCarbonRemoval]); ok {
			carbon.RemovalRate = removal
		}
		snap.Carbon = carbon
	}

	if snap.Empty() {
		return nil, fmt.Errorf("plcgateway scrape %q: no aquamind_* families in exposition", s.src.ID)
	}
	return snap, nil
}
