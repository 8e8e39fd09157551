package job

import "fmt"

// State represents the current lifecycle state of a Job.
//
// The state machine is:
//
//	Pending    -> Processing
//	Processing -> Completed
//	Processing -> Failed      (attempt failed, retry scheduled)
//	Processing -> Dead        (attempt failed, retry budget exhausted)
//	Processing -> Processing  (stale lease reclaimed by another worker)
//	Failed     -> Processing  (lease re-acquired once next_retry_at elapses)
//	Dead       -> Pending     (explicit reset via Store.DLQRetry)
//
// Unknown is reserved as the zero value and is used by List to mean
// "no status filter".
type State uint8

const (
	// Unknown is the zero value of State and is never a job's actual
	// state; it is used as a filter wildcard by Store.List.
	Unknown State = iota

	// Pending indicates the job is eligible for leasing.
	Pending

	// Processing indicates the job is leased by a worker. LockedBy and
	// LockedAt are set while in this state.
	Processing

	// Completed indicates successful execution. Terminal.
	Completed

	// Failed indicates the most recent attempt did not succeed and a
	// retry is scheduled at NextRetryAt. Transient: always resolves to
	// Processing once the lease is re-acquired; the outcome of that
	// attempt decides between Completed, Failed again, or Dead.
	Failed

	// Dead indicates the retry budget has been exhausted. Terminal
	// unless explicitly reset via Store.DLQRetry.
	Dead
)

func stateToString(s State) string {
	switch s {
	case Pending:
		return "pending"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

func stateFromString(s string) (State, error) {
	switch s {
	case "pending":
		return Pending, nil
	case "processing":
		return Processing, nil
	case "completed":
		return Completed, nil
	case "failed":
		return Failed, nil
	case "dead":
		return Dead, nil
	case "unknown", "":
		return Unknown, nil
	default:
		return 0, fmt.Errorf("job: unknown state %q", s)
	}
}

// ParseState converts a string representation of a state into a State
// value. An error is returned for unrecognized strings.
func ParseState(s string) (State, error) {
	return stateFromString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(stateToString(s)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, err := stateFromString(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// String returns the canonical lower-case name of the state.
func (s State) String() string {
	return stateToString(s)
}
