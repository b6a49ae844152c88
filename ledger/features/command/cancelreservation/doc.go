// Package cancelreservation implements giving up a RESERVED reservation. CANCELLED is terminal.
package cancelreservation
