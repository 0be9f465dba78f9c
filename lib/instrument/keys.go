package instrument

// FormatVersion is the version of the call log entry encoding written by this package
const FormatVersion = "1"

// CounterKey returns the key of the call counter of an operation
func CounterKey(name string) string { return name }

// InputsKey returns the key of the input log of an operation
func InputsKey(name string) string { return name + ":inputs" }

// OutputsKey returns the key of the output log of an operation
func OutputsKey(name string) string { return name + ":outputs" }

// FailedKey returns the key of the list of input positions whose call failed without an output
func FailedKey(name string) string { return name + ":failed" }

// FormatKey returns the key holding the entry encoding version of an operation's call log
func FormatKey(name string) string { return name + ":format" }

// LockKey returns the key of the store-backed lock of an operation.
// Wrappers that only handle one concern use a suffixed key so they can be stacked.
func LockKey(name string, c Concern) string {
	if c == ConcernAll {
		return name + ":lock"
	}
	return name + ":lock:" + string(c)
}

// Concern names what a wrapper records
type Concern string

const (
	ConcernAll     Concern = ""        // counter and history (Instrument)
	ConcernCount   Concern = "count"   // counter only (CountCalls)
	ConcernHistory Concern = "history" // history only (CallHistory)
)

func (c Concern) String() string {
	if c == ConcernAll {
		return "instrument"
	}
	return string(c)
}
