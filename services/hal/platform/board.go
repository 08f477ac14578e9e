// Package platform wires the compiled board profile to the hal contracts.
// Exactly one profile is selected by build tags; each provides Open.
package platform

// Board describes what the selected profile has fitted. It carries no
// operating parameters; those come from the embedded config named by Device.
type Board struct {
	Name   string
	Device string // embedded config key

	Battery bool // power latch and battery-sense ADC
	RTC     bool // battery-backed clock with alarm output
	BLE     bool
	Console string
}
