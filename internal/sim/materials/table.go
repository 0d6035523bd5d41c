package materials

// The table is hard-coded. Values are design defaults tuned for the
// simulated temperature ranges, not a chemistry reference: transition
// temperatures and enthalpies are mutually consistent (see Validate)
// but e.g. liquid CO2 exists at "1 atm" here.
var table = [Count]Props{
	None: {Name: "none", Formula: "", Phase: PhaseNone},

	Water: {
		Name: "water", Formula: "H2O", Phase: PhaseLiquid,
		MolarMass: 0.018015, MolarVolume: 1.8e-5, MolarHeatJK: 75.3,
		Conductivity: 0.6, Viscosity: 1.0e-3,
		SolidForm: Ice, LiquidForm: Water, GasForm: Steam,
		TransitionUpK: 373.15, TransitionDownK: 273.15,
		EnthalpyUpJ: 40650, EnthalpyDownJ: 6010,
	},
	Ice: {
		Name: "ice", Formula: "H2O", Phase: PhaseSolid,
		MolarMass: 0.018015, MolarVolume: 1.96e-5, MolarHeatJK: 38.1,
		Conductivity: 2.2, Viscosity: 0,
		SolidForm: Ice, LiquidForm: Water, GasForm: Steam,
		TransitionUpK: 273.15,
		EnthalpyUpJ:   6010,
	},
	Steam: {
		Name: "steam", Formula: "H2O", Phase: PhaseGas,
		MolarMass: 0.018015, MolarVolume: 2.24e-2, MolarHeatJK: 33.6,
		Conductivity: 0.025, Viscosity: 1.3e-5,
		SolidForm: Ice, LiquidForm: Water, GasForm: Steam,
		TransitionDownK: 373.15,
		EnthalpyDownJ:   40650,
	},

	Rock: {
		Name: "rock", Formula: "SiO2", Phase: PhaseSolid,
		MolarMass: 0.06008, MolarVolume: 2.27e-5, MolarHeatJK: 44.4,
		Conductivity: 2.0, Viscosity: 0,
		SolidForm: Rock, LiquidForm: Magma, GasForm: RockVapor,
		TransitionUpK: 1473.0,
		EnthalpyUpJ:   30000,
	},
	Magma: {
		Name: "magma", Formula: "SiO2", Phase: PhaseLiquid,
		MolarMass: 0.06008, MolarVolume: 2.5e-5, MolarHeatJK: 80.0,
		Conductivity: 1.2, Viscosity: 100,
		SolidForm: Rock, LiquidForm: Magma, GasForm: RockVapor,
		TransitionUpK: 3200.0, TransitionDownK: 1473.0,
		EnthalpyUpJ: 410000, EnthalpyDownJ: 30000,
	},
	RockVapor: {
		Name: "rock-vapor", Formula: "SiO2", Phase: PhaseGas,
		MolarMass: 0.06008, MolarVolume: 2.24e-2, MolarHeatJK: 45.0,
		Conductivity: 0.05, Viscosity: 2.0e-5,
		SolidForm: Rock, LiquidForm: Magma, GasForm: RockVapor,
		TransitionDownK: 3200.0,
		EnthalpyDownJ:   410000,
	},

	Dirt: {
		Name: "dirt", Formula: "SiO2*", Phase: PhaseSolid,
		MolarMass: 0.065, MolarVolume: 2.5e-5, MolarHeatJK: 50.0,
		Conductivity: 0.8, Viscosity: 0,
		SolidForm: Dirt, LiquidForm: Mud, GasForm: DirtVapor,
		TransitionUpK: 1100.0,
		EnthalpyUpJ:   25000,
	},
	Mud: {
		Name: "mud", Formula: "SiO2*", Phase: PhaseLiquid,
		MolarMass: 0.065, MolarVolume: 2.7e-5, MolarHeatJK: 90.0,
		Conductivity: 1.0, Viscosity: 10,
		SolidForm: Dirt, LiquidForm: Mud, GasForm: DirtVapor,
		TransitionUpK: 2900.0, TransitionDownK: 1100.0,
		EnthalpyUpJ: 350000, EnthalpyDownJ: 25000,
	},
	DirtVapor: {
		Name: "dirt-vapor", Formula: "SiO2*", Phase: PhaseGas,
		MolarMass: 0.065, MolarVolume: 2.24e-2, MolarHeatJK: 48.0,
		Conductivity: 0.05, Viscosity: 2.0e-5,
		SolidForm: Dirt, LiquidForm: Mud, GasForm: DirtVapor,
		TransitionDownK: 2900.0,
		EnthalpyDownJ:   350000,
	},

	Nitrogen: {
		Name: "nitrogen", Formula: "N2", Phase: PhaseGas,
		MolarMass: 0.028014, MolarVolume: 2.24e-2, MolarHeatJK: 29.1,
		Conductivity: 0.026, Viscosity: 1.8e-5,
		SolidForm: SolidNitrogen, LiquidForm: LiquidNitrogen, GasForm: Nitrogen,
		TransitionDownK: 77.36,
		EnthalpyDownJ:   5570,
	},
	LiquidNitrogen: {
		Name: "liquid-nitrogen", Formula: "N2", Phase: PhaseLiquid,
		MolarMass: 0.028014, MolarVolume: 3.47e-5, MolarHeatJK: 57.0,
		Conductivity: 0.14, Viscosity: 1.6e-4,
		SolidForm: SolidNitrogen, LiquidForm: LiquidNitrogen, GasForm: Nitrogen,
		TransitionUpK: 77.36, TransitionDownK: 63.15,
		EnthalpyUpJ: 5570, EnthalpyDownJ: 720,
	},
	SolidNitrogen: {
		Name: "solid-nitrogen", Formula: "N2", Phase: PhaseSolid,
		MolarMass: 0.028014, MolarVolume: 2.7e-5, MolarHeatJK: 46.0,
		Conductivity: 0.2, Viscosity: 0,
		SolidForm: SolidNitrogen, LiquidForm: LiquidNitrogen, GasForm: Nitrogen,
		TransitionUpK: 63.15,
		EnthalpyUpJ:   720,
	},

	Oxygen: {
		Name: "oxygen", Formula: "O2", Phase: PhaseGas,
		MolarMass: 0.031998, MolarVolume: 2.24e-2, MolarHeatJK: 29.4,
		Conductivity: 0.027, Viscosity: 2.0e-5,
		Oxidizer:  true,
		SolidForm: SolidOxygen, LiquidForm: LiquidOxygen, GasForm: Oxygen,
		TransitionDownK: 90.19,
		EnthalpyDownJ:   6820,
	},
	LiquidOxygen: {
		Name: "liquid-oxygen", Formula: "O2", Phase: PhaseLiquid,
		MolarMass: 0.031998, MolarVolume: 2.8e-5, MolarHeatJK: 54.3,
		Conductivity: 0.15, Viscosity: 1.9e-4,
		SolidForm: SolidOxygen, LiquidForm: LiquidOxygen, GasForm: Oxygen,
		TransitionUpK: 90.19, TransitionDownK: 54.36,
		EnthalpyUpJ: 6820, EnthalpyDownJ: 444,
	},
	SolidOxygen: {
		Name: "solid-oxygen", Formula: "O2", Phase: PhaseSolid,
		MolarMass: 0.031998, MolarVolume: 2.5e-5, MolarHeatJK: 46.0,
		Conductivity: 0.2, Viscosity: 0,
		SolidForm: SolidOxygen, LiquidForm: LiquidOxygen, GasForm: Oxygen,
		TransitionUpK: 54.36,
		EnthalpyUpJ:   444,
	},

	CarbonDioxide: {
		Name: "carbon-dioxide", Formula: "CO2", Phase: PhaseGas,
		MolarMass: 0.044009, MolarVolume: 2.24e-2, MolarHeatJK: 37.1,
		Conductivity: 0.017, Viscosity: 1.5e-5,
		SolidForm: DryIce, LiquidForm: LiquidCO2, GasForm: CarbonDioxide,
		TransitionDownK: 230.0,
		EnthalpyDownJ:   15300,
	},
	LiquidCO2: {
		Name: "liquid-co2", Formula: "CO2", Phase: PhaseLiquid,
		MolarMass: 0.044009, MolarVolume: 5.5e-5, MolarHeatJK: 85.0,
		Conductivity: 0.087, Viscosity: 7.0e-5,
		SolidForm: DryIce, LiquidForm: LiquidCO2, GasForm: CarbonDioxide,
		TransitionUpK: 230.0, TransitionDownK: 216.6,
		EnthalpyUpJ: 15300, EnthalpyDownJ: 9020,
	},
	DryIce: {
		Name: "dry-ice", Formula: "CO2", Phase: PhaseSolid,
		MolarMass: 0.044009, MolarVolume: 2.8e-5, MolarHeatJK: 55.0,
		Conductivity: 0.2, Viscosity: 0,
		SolidForm: DryIce, LiquidForm: LiquidCO2, GasForm: CarbonDioxide,
		TransitionUpK: 216.6,
		EnthalpyUpJ:   9020,
	},

	Methane: {
		Name: "methane", Formula: "CH4", Phase: PhaseGas,
		MolarMass: 0.016043, MolarVolume: 2.24e-2, MolarHeatJK: 35.7,
		Conductivity: 0.034, Viscosity: 1.1e-5,
		Fuel: true, IgnitionK: 810.0, CombustionJ: 890000,
		BurnProduct: CarbonDioxide, OxidizerRatio: 2.0,
		SolidForm: SolidMethane, LiquidForm: LiquidMethane, GasForm: Methane,
		TransitionDownK: 111.66,
		EnthalpyDownJ:   8190,
	},
	LiquidMethane: {
		Name: "liquid-methane", Formula: "CH4", Phase: PhaseLiquid,
		MolarMass: 0.016043, MolarVolume: 3.8e-5, MolarHeatJK: 54.0,
		Conductivity: 0.19, Viscosity: 1.2e-4,
		SolidForm: SolidMethane, LiquidForm: LiquidMethane, GasForm: Methane,
		TransitionUpK: 111.66, TransitionDownK: 90.69,
		EnthalpyUpJ: 8190, EnthalpyDownJ: 940,
	},
	SolidMethane: {
		Name: "solid-methane", Formula: "CH4", Phase: PhaseSolid,
		MolarMass: 0.016043, MolarVolume: 3.3e-5, MolarHeatJK: 41.0,
		Conductivity: 0.25, Viscosity: 0,
		SolidForm: SolidMethane, LiquidForm: LiquidMethane, GasForm: Methane,
		TransitionUpK: 90.69,
		EnthalpyUpJ:   940,
	},
}
