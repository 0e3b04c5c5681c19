// Package qei provides constants for the timer and reset-and-clock-control
// registers used to run a general-purpose timer as a quadrature encoder
// interface (STM32F0 TIMx layout, RM0091).
package qei

// Timer register offsets from the peripheral base.
const (
	OffCR1   uintptr = 0x00 // control 1 (CEN, DIR)
	OffSMCR  uintptr = 0x08 // slave mode control (SMS)
	OffCCMR1 uintptr = 0x18 // capture/compare mode 1, input view (CC1S, CC2S)
	OffCCER  uintptr = 0x20 // capture/compare enable (CC1P, CC2P)
	OffCNT   uintptr = 0x24 // counter
	OffARR   uintptr = 0x2C // auto-reload
)

// CR1 bits.
const (
	CR1CEN uint32 = 1 << 0
	CR1DIR uint32 = 1 << 4 // read-only in encoder mode; 1 = downcounting
)

// SMCR slave mode selection.
const (
	SMSMask     uint32 = 0x7
	SMSEncoder1 uint32 = 0x1 // count on TI1 edges, direction from TI2 level
	SMSEncoder2 uint32 = 0x2 // count on TI2 edges, direction from TI1 level
	SMSEncoder3 uint32 = 0x3 // count on both, direction from phase
)

// CCMR1 input capture source selection.
const (
	CC1SMask uint32 = 0x3 << 0
	CC1STI1  uint32 = 0x1 << 0
	CC2SMask uint32 = 0x3 << 8
	CC2STI2  uint32 = 0x1 << 8
)

// CCER polarity bits (set = inverted/active-low input).
const (
	CCERCC1P uint32 = 1 << 1
	CCERCC2P uint32 = 1 << 5
)

// Reset and clock control block.
const (
	RCCBase uintptr = 0x40021000

	OffAPB2RSTR uintptr = 0x0C
	OffAPB1RSTR uintptr = 0x10
	OffAPB2ENR  uintptr = 0x18
	OffAPB1ENR  uintptr = 0x1C
)

// Peripheral base addresses.
const (
	TIM2Base uintptr = 0x40000000
	TIM3Base uintptr = 0x40000400
)
