package instrument

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ErrorPrefix marks output entries of failed calls (FailureRecordError)
const ErrorPrefix = "!error: "

// Arguments is implemented by call inputs that carry more than one argument.
// Inputs that do not implement it are logged as a single argument.
type Arguments interface {
	CallArgs() []any
}

// Args is a positional argument list, see FuncN
type Args []any

func (a Args) CallArgs() []any { return a }

// Stringify renders a single value the way it appears in the call log.
//
//   - strings and byte slices: their text
//   - integers: base 10
//   - floats: shortest representation that round-trips
//   - bool: true / false
//   - nil: None
//   - error: its message
//   - fmt.Stringer: String()
//   - everything else: fmt.Sprint
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// EncodeArgs encodes an argument list as an input log entry:
// a JSON array holding the stringified arguments.
func EncodeArgs(args ...any) ([]byte, error) {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = Stringify(a)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(strs); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeArgs decodes an input log entry back into the stringified arguments
func DecodeArgs(entry []byte) ([]string, error) {
	var strs []string
	if err := json.Unmarshal(entry, &strs); err != nil {
		return nil, fmt.Errorf("malformed input entry %q: %w", entry, err)
	}
	return strs, nil
}

// EncodeResult encodes a result as an output log entry
func EncodeResult(v any) []byte {
	return []byte(Stringify(v))
}

// EncodeFailure encodes the error of a failed call as an output log entry
func EncodeFailure(err error) []byte {
	return []byte(ErrorPrefix + err.Error())
}

// encodeInput turns the input of a Func into an input log entry
func encodeInput(in any) ([]byte, error) {
	if a, ok := in.(Arguments); ok {
		return EncodeArgs(a.CallArgs()...)
	}
	return EncodeArgs(in)
}
