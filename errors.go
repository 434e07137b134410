package midisynth

import "fmt"

// Kind classifies an error returned by the core so that callers can branch
// on it without string matching, per the error kinds distinguished in the
// design.
type Kind int

const (
	// KindParseError means the input was malformed or truncated. The
	// affected source fails to load; the running transport is unaffected.
	KindParseError Kind = iota
	// KindUnsupportedFeature means the input uses a feature this core
	// deliberately does not implement (SMPTE division, SF2 compressed
	// samples, non-PCM WAV, format-2 SMF).
	KindUnsupportedFeature
	// KindResourceExhausted means an allocation failed: a sample load or a
	// mixer block.
	KindResourceExhausted
	// KindDeviceError means the audio sink refused or dropped.
	KindDeviceError
	// KindIllegalState means a transport command was invalid for the
	// transport's current state.
	KindIllegalState
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindUnsupportedFeature:
		return "UnsupportedFeature"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindDeviceError:
		return "DeviceError"
	case KindIllegalState:
		return "IllegalState"
	default:
		return "Unknown"
	}
}

// Error is the error type returned at every core boundary operation. It
// carries a Kind so callers can distinguish recoverable conditions (e.g.
// IllegalState) from terminal ones (e.g. ParseError) without parsing the
// message.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "LoadMIDI", "Seek"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &midisynth.Error{Kind: midisynth.KindParseError}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel errors for conditions that don't need per-call context.
var (
	errTruncated         = fmt.Errorf("truncated input")
	errBadMThd           = fmt.Errorf("missing or malformed MThd chunk")
	errBadRIFF           = fmt.Errorf("missing or malformed RIFF header")
	errBadSfbk           = fmt.Errorf("missing sfbk form type")
	errSMPTEUnsupported  = fmt.Errorf("SMPTE division is not supported")
	errFormat2Unsup      = fmt.Errorf("SMF format 2 is not supported")
	errNonPCMWav         = fmt.Errorf("only 16-bit PCM WAV is supported")
	errCompressedSamples = fmt.Errorf("compressed SF2 samples are not supported")
)
