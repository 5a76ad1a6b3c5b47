package logging

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldOperation is the key for the pipeline operation name (concatenate, convert, ...).
	FieldOperation = "operation"
	// FieldOperationID is the key for the identifier of a single operation run.
	FieldOperationID = "operation_id"
	// FieldCorrelationID is the key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldErrorKind carries services.Kind for failed operations.
	FieldErrorKind = "error_kind"
	// FieldDecisionType names the choice recorded by a decision log.
	FieldDecisionType = "decision_type"
	// FieldAlert flags anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
