package logging

// Standard keys shared by every component.
const (
	// FieldComponent names the subsystem; the console handler renders it as
	// the line prefix instead of a key=value pair.
	FieldComponent = "component"
	// FieldRunID tags every line emitted by one scan run.
	FieldRunID = "run_id"
	// FieldChunk is the chunk index a line refers to.
	FieldChunk = "chunk"
	// FieldEventType classifies notable events for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
