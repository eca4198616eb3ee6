package clock

// =============================================================================
// PUNCH SEQUENCER - EMPTY -> ENTERED -> LUNCH_OUT -> LUNCH_RETURNED -> EXITED
// =============================================================================

// State is the position of a day record in the punch sequence.
type State int

const (
	StateEmpty State = iota
	StateEntered
	StateLunchOut
	StateLunchReturned
	StateExited
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEntered:
		return "entered"
	case StateLunchOut:
		return "lunch_out"
	case StateLunchReturned:
		return "lunch_returned"
	case StateExited:
		return "exited"
	}
	return "unknown"
}

// StateOf derives the sequence state from the latest punch present.
// An exit always closes the day, with or without lunch.
func StateOf(r DayRecord) State {
	switch {
	case r.Exit.Valid:
		return StateExited
	case r.LunchReturn.Valid:
		return StateLunchReturned
	case r.LunchOut.Valid:
		return StateLunchOut
	case r.Entry.Valid:
		return StateEntered
	}
	return StateEmpty
}

// Register records a punch on a day and returns the updated copy. On error
// the input record is not modified.
//
// A punch type already present is overwritten in place (edit semantics) and
// the sequence state is unchanged. Otherwise the punch must be legal from
// the current state; exit is legal straight after entry for a no-lunch day.
// In both cases the new time must keep entry <= lunchOut <= lunchReturn <=
// exit against the punches already present. Derived totals are cleared and
// must be recomputed with Resolve.
func Register(r DayRecord, p PunchType, at TimeOfDay) (DayRecord, error) {
	if !p.Valid() {
		return r, ErrInvalidPunchType
	}
	if !at.Valid() {
		return r, &MalformedTimeError{Input: at.String(), Reason: "outside the day"}
	}

	if !r.Punch(p).Valid {
		if err := checkSequence(r, p); err != nil {
			return r, err
		}
	}

	next := r.WithPunch(p, Punched(at))
	if err := CheckOrder(next); err != nil {
		return r, err
	}
	return next, nil
}

// checkSequence validates a first-time punch against the punches present.
// An absent entry can always be added; CheckOrder keeps it first.
func checkSequence(r DayRecord, p PunchType) error {
	if p == PunchEntry {
		return nil
	}
	if r.Exit.Valid {
		return &OutOfSequenceError{Punch: p, State: StateExited}
	}
	if req := missingPredecessor(r, p); req != "" {
		return &OutOfSequenceError{Punch: p, Required: req, State: StateOf(r)}
	}
	return nil
}

// missingPredecessor names the earliest absent punch that p depends on, or
// "" when none is missing. It never names p itself.
func missingPredecessor(r DayRecord, p PunchType) PunchType {
	if p == PunchEntry {
		return ""
	}
	if !r.Entry.Valid {
		return PunchEntry
	}
	switch p {
	case PunchLunchReturn:
		if !r.LunchOut.Valid {
			return PunchLunchOut
		}
	case PunchExit:
		// Lunch was started but not finished.
		if r.LunchOut.Valid && !r.LunchReturn.Valid {
			return PunchLunchReturn
		}
	}
	return ""
}

// CheckPredecessors rejects a day where a punch is present without the
// punch it depends on: anything without entry, or lunchReturn without
// lunchOut. A lunchOut with no lunchReturn is allowed and leaves the day
// unresolved.
func CheckPredecessors(r DayRecord) error {
	for _, p := range PunchTypes {
		if !r.Punch(p).Valid {
			continue
		}
		if p == PunchExit {
			if !r.Entry.Valid {
				return &OutOfSequenceError{Punch: p, Required: PunchEntry, State: StateOf(r)}
			}
			continue
		}
		if req := missingPredecessor(r, p); req != "" {
			return &OutOfSequenceError{Punch: p, Required: req, State: StateOf(r)}
		}
	}
	return nil
}

// CheckOrder verifies entry <= lunchOut <= lunchReturn <= exit over the
// punches that are present.
func CheckOrder(r DayRecord) error {
	var (
		prev     PunchTime
		prevType PunchType
	)
	for _, p := range PunchTypes {
		cur := r.Punch(p)
		if !cur.Valid {
			continue
		}
		if prev.Valid && cur.At < prev.At {
			return &InvalidIntervalError{From: prevType, To: p, Start: prev.At, End: cur.At}
		}
		prev, prevType = cur, p
	}
	return nil
}

// NextPunch returns the punch a register screen should offer next, or false
// when the day is closed.
func NextPunch(r DayRecord) (PunchType, bool) {
	switch StateOf(r) {
	case StateEmpty:
		return PunchEntry, true
	case StateEntered:
		return PunchLunchOut, true
	case StateLunchOut:
		return PunchLunchReturn, true
	case StateLunchReturned:
		return PunchExit, true
	}
	return "", false
}
