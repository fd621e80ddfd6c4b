package domain

type Role string

const (
	RoleRoot      Role = "ROOT"
	RoleMountable Role = "MOUNTABLE"
	RoleUnknown   Role = "UNKNOWN"
)

type IssueKind string

const (
	IssueMissingEndpoint     IssueKind = "missing_endpoint"
	IssueOrphanedEndpoint    IssueKind = "orphaned_endpoint"
	IssueMethodMismatch      IssueKind = "method_mismatch"
	IssueRequestBodyMismatch IssueKind = "request_body_mismatch"
	IssueEnvVarAdvisory      IssueKind = "env_var_advisory"
	IssueContractVersion     IssueKind = "contract_version_conflict"
)

type Severity string

const (
	SeverityError    Severity = "ERROR"
	SeverityWarning  Severity = "WARNING"
	SeverityAdvisory Severity = "ADVISORY"
)

type ShapeKind string

const (
	ShapeObject    ShapeKind = "object"
	ShapeArray     ShapeKind = "array"
	ShapePrimitive ShapeKind = "primitive"
	ShapeUnknown   ShapeKind = "unknown"
)

type MismatchKind string

const (
	MismatchMissingField MismatchKind = "missing_field"
	MismatchExtraField   MismatchKind = "extra_field"
	MismatchTypeMismatch MismatchKind = "type_mismatch"
)
