package constant

// Certificate pipeline error codes
const (
	// Input errors (1xx)
	ErrCodeInvalidRequest = "CRT101"
	ErrCodeNameCollision  = "CRT102"
	ErrCodeTemplateDecode = "CRT103"
	ErrCodeAttendeeSource = "CRT104"
	ErrCodeNoAttendees    = "CRT105"
	ErrCodeUnknownFormat  = "CRT106"

	// Rendering errors (2xx)
	ErrCodeQREncode       = "CRT201"
	ErrCodeRenderCanceled = "CRT202"
	ErrCodeBatchItem      = "CRT203"

	// Output errors (3xx)
	ErrCodeWriteFailure   = "CRT301"
	ErrCodeMarkerFailure  = "CRT302"
	ErrCodeRegistryRecord = "CRT303"
)

// Font resource error codes
const (
	ErrCodeFontLoad     = "FNT001"
	ErrCodeFontFetch    = "FNT002"
	ErrCodeFontCache    = "FNT003"
	ErrCodeFontFallback = "FNT004"
)

// Verification service error codes
const (
	ErrCodeEmptyHash           = "VRF001"
	ErrCodeCertificateNotFound = "VRF002"
	ErrCodeInvalidPayload      = "VRF003"
	ErrCodeRevokeFailure       = "VRF004"
)

// Database error codes
const (
	// General DB errors (5xx)
	ErrCodeDBGeneral = "DB500"

	// Connection errors (0xx)
	ErrCodeDBOpen    = "DB001"
	ErrCodeDBMigrate = "DB002"

	// Store operation errors (1xx)
	ErrCodeDBInsert = "DB102"

	// Lookup operation errors (2xx)
	ErrCodeDBLookup = "DB201"

	// Revoke operation errors (3xx)
	ErrCodeDBRevoke = "DB301"

	// Close operation errors (4xx)
	ErrCodeDBClose = "DB401"
)

// Error types for categorization
const (
	// Domain error types
	ErrTypeInput        = "input"
	ErrTypeEncoding     = "encoding"
	ErrTypeIO           = "io"
	ErrTypeResource     = "resource"
	ErrTypeVerification = "verification"

	// Infrastructure error types
	ErrTypeDB = "db"
)
