package knowledge

// Defaults returns the compiled-in pilot-plant knowledge: expert-rule tables,
// equipment parameter sheets, and the PLC variable sheet.
func Defaults() *Store {
	return &Store{
		rules: map[string]RuleTable{
			"turntable_control": {
				"low_toxicity":    {"target_frequency": 10.0, "active_reactors": 2},
				"medium_toxicity": {"target_frequency": 25.0, "active_reactors": 2},
				"high_toxicity":   {"target_frequency": 45.0, "active_reactors": 3},
			},
			"mbr_control": {
				"thresholds": {
					"tmp_warning": 30.0,
					"tmp_alarm":   40.0,
				},
			},
			"regeneration_control": {
				"thresholds": {
					"efficiency_critical": 60.0,
					"efficiency_degraded": 80.0,
					"removal_critical":    40.0,
					"removal_degraded":    60.0,
				},
				"normal_regeneration":    {"temperature": 800.0, "feed_rate": 30.0, "duration": 8.0},
				"intensive_regeneration": {"temperature": 850.0, "feed_rate": 40.0, "duration": 6.0},
				"energy_saving":          {"temperature": 750.0, "feed_rate": 25.0, "duration": 10.0},
			},
		},
		equipment: map[string]Equipment{
			"turntable_system": {
				Name:        "activated-carbon turntable adsorption system",
				Type:        "adsorption",
				Description: "3 turntable lines (2 duty + 1 standby), coconut-shell carbon",
				Parameters: Params{
					"rpm_per_hz":     30.0, // 4-pole motor convention
					"max_frequency":  50.0,
					"min_frequency":  5.0,
					"carbon_loading": 15.0,
				},
			},
			"mbr_system": {
				Name:        "membrane bioreactor",
				Type:        "membrane",
				Description: "PVDF hollow-fibre membrane, 100 m², 0.1 µm pore",
				Parameters: Params{
					"membrane_area": 100.0,
					"design_flux":   20.0,
					"tmp_warning":   30.0,
					"tmp_alarm":     40.0,
				},
			},
			"regeneration_system": {
				Name:        "carbon regeneration furnace",
				Type:        "regeneration",
				Description: "rotary kiln, 50 kg/h rated",
				Parameters: Params{
					"design_capacity":  50.0,
					"regen_temperature": 800.0,
					"residence_time":   30.0,
					"recovery_rate":    0.95,
					"cycle_hours":      720.0,
				},
			},
		},
		plcVars: defaultPLCVariables(),
	}
}

func defaultPLCVariables() []PLCVariable {
	return []PLCVariable{
		{
			Key: "turntable_frequency_1", Name: "turntable 1 drive frequency",
			Address: "DB100.DBD0", DataType: "REAL", Unit: "Hz",
			Description: "line 1 turntable drive frequency setpoint",
			Min:         0, Max: 50, Default: 25,
		},
		{
			Key: "turntable_frequency_2", Name: "turntable 2 drive frequency",
			Address: "DB100.DBD4", DataType: "REAL", Unit: "Hz",
			Description: "line 2 turntable drive frequency setpoint",
			Min:         0, Max: 50, Default: 25,
		},
		{
			Key: "turntable_frequency_3", Name: "turntable 3 drive frequency (standby)",
			Address: "DB100.DBD8", DataType: "REAL", Unit: "Hz",
			Description: "standby line turntable drive frequency setpoint",
			Min:         0, Max: 50, Default: 0,
		},
		{
			Key: "mbr_aeration_rate", Name: "MBR aeration rate",
			Address: "DB101.DBD0", DataType: "REAL", Unit: "m3/h",
			Description: "membrane scour aeration rate setpoint",
			Min:         0, Max: 120, Default: 50,
		},
		{
			Key: "mbr_flux_setpoint", Name: "MBR flux setpoint",
			Address: "DB101.DBD4", DataType: "REAL", Unit: "LMH",
			Description: "permeate flux setpoint",
			Min:         0, Max: 25, Default: 20,
		},
		{
			Key: "mbr_backwash_trigger", Name: "MBR backwash trigger",
			Address: "DB101.DBX8.0", DataType: "BOOL",
			Description: "one-shot backwash trigger",
		},
		{
			Key: "furnace_temp_setpoint", Name: "regeneration furnace temperature",
			Address: "DB102.DBD0", DataType: "REAL", Unit: "degC",
			Description: "furnace temperature setpoint",
			Min:         0, Max: 900, Default: 0,
		},
		{
			Key: "furnace_feed_rate", Name: "regeneration furnace feed rate",
			Address: "DB102.DBD4", DataType: "REAL", Unit: "kg/h",
			Description: "carbon feed rate setpoint",
			Min:         0, Max: 50, Default: 0,
		},
		{
			Key: "toxicity_value", Name: "inlet toxicity",
			Address: "DB110.DBD0", DataType: "REAL",
			Description: "online analyzer toxicity measurement",
			Min:         0, Max: 10, ReadOnly: true,
		},
		{
			Key: "mbr_tmp", Name: "transmembrane pressure",
			Address: "DB110.DBD4", DataType: "REAL", Unit: "kPa",
			Description: "measured transmembrane pressure",
			Min:         0, Max: 100, ReadOnly: true,
		},
	}
}
