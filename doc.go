// Package motorbus drives daisy-chained serial servo actuators (Feetech STS
// and Dynamixel X series) over a shared half-duplex line.
//
// A Bus owns one serial session and exposes named-motor addressing on top of
// the raw register protocol: symbolic register names resolve through
// per-model control tables, single and group (sync) transactions retry on
// the lossy transports these chains run over, and a calibration layer
// converts between raw encoder ticks and normalized units (degrees or
// percentages of a recorded range of motion).
//
// The wire dialects live in the protocol subpackage; serial and mock
// transports live in transports.
package motorbus
