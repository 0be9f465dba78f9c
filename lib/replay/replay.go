package replay

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/instrument"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"strconv"
	"strings"
)

var (
	log = logger.GetLogger("replay")

	// ErrNotFound is returned by Load if the operation was never called (no counter and no logged input)
	ErrNotFound = errors.New("operation was never called")

	// ErrFormat is returned by Load if the call log was written in an unknown encoding
	ErrFormat = errors.New("unsupported call log format")
)

// failedOutput is rendered for failed calls that have no output entry
const failedOutput = "!failed"

// Call is one recorded invocation
type Call struct {
	Input  string // encoded argument list, e.g. ["foo"]
	Output string // stringified result, or the error message if Failed
	Failed bool   // the call returned an error
}

// Trace is the call history of one operation in call order
type Trace struct {
	Name  string
	Count int64 // value of the call counter
	Calls []Call
}

// Load reads the call history of the operation behind h
func Load(h instrument.Handle) (*Trace, error) {
	return LoadName(h.Store(), h.Name())
}

// LoadName reads the call history of the operation name from s.
// Operations recorded without a counter (CallHistory only) report the length of their input log as Count.
func LoadName(s store.IStore, name string) (*Trace, error) {
	trace := &Trace{Name: name}

	raw, counted, err := s.Get(instrument.CounterKey(name))
	if err != nil {
		return trace, err
	}
	if counted {
		trace.Count, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return trace, fmt.Errorf("%w: counter %q: %v", ErrFormat, raw, err)
		}
	}

	format, ok, err := s.Get(instrument.FormatKey(name))
	if err != nil {
		return trace, err
	}
	if ok && string(format) != instrument.FormatVersion {
		return trace, fmt.Errorf("%w: version %q", ErrFormat, format)
	}

	inputs, err := s.LRange(instrument.InputsKey(name), 0, -1)
	if err != nil {
		return trace, err
	}
	if !counted {
		if len(inputs) == 0 {
			return trace, ErrNotFound
		}
		trace.Count = int64(len(inputs))
	}
	outputs, err := s.LRange(instrument.OutputsKey(name), 0, -1)
	if err != nil {
		return trace, err
	}
	failed, err := loadFailed(s, name, len(inputs))
	if err != nil {
		return trace, err
	}

	trace.Calls = make([]Call, len(inputs))
	next := 0
	for i, input := range inputs {
		if _, err := instrument.DecodeArgs(input); err != nil {
			return trace, fmt.Errorf("%w: entry %d: %v", ErrFormat, i, err)
		}
		call := Call{Input: string(input)}

		switch {
		case failed[i] || next >= len(outputs):
			// no output was appended for a failed call
			call.Failed = true
		case bytes.HasPrefix(outputs[next], []byte(instrument.ErrorPrefix)):
			call.Failed = true
			call.Output = strings.TrimPrefix(string(outputs[next]), instrument.ErrorPrefix)
			next++
		default:
			call.Output = string(outputs[next])
			next++
		}
		trace.Calls[i] = call
	}
	if next < len(outputs) {
		return trace, fmt.Errorf("%w: %d outputs for %d inputs", ErrFormat, len(outputs), len(inputs))
	}

	if int64(len(trace.Calls)) != trace.Count {
		log.Debugf("%s: counter is %d but %d calls are logged", name, trace.Count, len(trace.Calls))
	}
	return trace, nil
}

// loadFailed reads the positions of the inputs whose call failed without an output
func loadFailed(s store.IStore, name string, inputs int) (map[int]bool, error) {
	entries, err := s.LRange(instrument.FailedKey(name), 0, -1)
	if err != nil {
		return nil, err
	}
	failed := make(map[int]bool, len(entries))
	for _, entry := range entries {
		i, err := strconv.Atoi(string(entry))
		if err != nil || i < 0 || i >= inputs {
			return nil, fmt.Errorf("%w: failed call %q", ErrFormat, entry)
		}
		failed[i] = true
	}
	return failed, nil
}

// Render writes the trace in the form
//
//	<name> was called <n> times:
//	<name>(*<input>) -> <output>
func (t *Trace) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s was called %d times:\n", t.Name, t.Count); err != nil {
		return err
	}
	for _, call := range t.Calls {
		output := call.Output
		if call.Failed {
			if output == "" {
				output = failedOutput
			} else {
				output = instrument.ErrorPrefix + output
			}
		}
		if _, err := fmt.Fprintf(w, "%s(*%s) -> %s\n", t.Name, call.Input, output); err != nil {
			return err
		}
	}
	return nil
}

// Replay prints the call history of the operation behind h to w.
// An operation that was never called is printed as called 0 times.
// Replay only reads, so calling it repeatedly gives the same output until new calls happen.
func Replay(h instrument.Handle, w io.Writer) error {
	return ReplayName(h.Store(), h.Name(), w)
}

// ReplayName is Replay for callers that only know the operation name
func ReplayName(s store.IStore, name string, w io.Writer) error {
	trace, err := LoadName(s, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return trace.Render(w)
}
