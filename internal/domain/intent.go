package domain

// IntentKind is the top-level category of a feedback message.
type IntentKind string

const (
	IntentProgress      IntentKind = "progress"
	IntentRoutineChange IntentKind = "routine_change"
	IntentQuestion      IntentKind = "question"
	IntentOther         IntentKind = "other"
)

// ChangeKind is the structured sub-intent of a routine change.
type ChangeKind string

const (
	ChangeRemoveDay       ChangeKind = "remove_day"
	ChangeReduceDays      ChangeKind = "reduce_days"
	ChangeRemoveExercise  ChangeKind = "remove_exercise"
	ChangeReplaceExercise ChangeKind = "replace_exercise"
	ChangeAddRestriction  ChangeKind = "add_restriction"
	ChangeGeneric         ChangeKind = "generic"
)

// RoutineChange carries the parameters of a change request. Only the fields
// relevant to Kind are set.
type RoutineChange struct {
	Kind        ChangeKind `json:"kind"`
	Day         int        `json:"day,omitempty"`
	Days        int        `json:"days,omitempty"`
	Exercise    string     `json:"exercise,omitempty"`
	Replacement string     `json:"replacement,omitempty"`
	Restriction string     `json:"restriction,omitempty"`
	// Request is the raw feedback, kept for regeneration prompts.
	Request string `json:"-"`
}

// Intent is the classified meaning of a feedback message.
type Intent struct {
	Kind   IntentKind     `json:"kind"`
	Change *RoutineChange `json:"change,omitempty"`
}
