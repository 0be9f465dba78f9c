// Package replay reads the call log written by package instrument and prints it in call order.
//
//	Cache.store was called 3 times:
//	Cache.store(*["1"]) -> 5c1d6a3e-...
//	Cache.store(*["2"]) -> 0b9e31d2-...
//	Cache.store(*["3"]) -> 9f4c7e10-...
//
// Input and output log are zipped in order. Inputs listed in <name>:failed have no
// output entry and are skipped when pairing, so a failure in the middle does not shift
// later outputs. A call that failed is rendered with "!error: <msg>" if its error was
// recorded (instrument.FailureRecordError) and with "!failed" if it has no output entry
// (instrument.FailureKeepPartial). Operations without a counter (CallHistory only)
// report the number of logged inputs as their call count.
package replay
