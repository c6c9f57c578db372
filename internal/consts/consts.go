package consts

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	REFTEMP   = 300.15        // Reference temperature, 27degC (K)

	// Thermal voltage kT/q at the reference temperature (V)
	THERMALVOLTAGE = BOLTZMANN * REFTEMP / CHARGE
)
