package constant

// Request context keys
const (
	RequestIDKey = "request_id"
	BatchIDKey   = "batch_id"
)

// HTTP header names
const (
	HeaderRequestID = "X-Request-ID"
)

// Function/Context names
const (
	// Domain context names
	CtxDomain        = "domain"
	CtxMintHash      = "MintHash"
	CtxBuildPayload  = "BuildPayload"
	CtxRender        = "Render"
	CtxRunBatch      = "RunBatch"
	CtxPlanPaths     = "PlanPaths"
	CtxVerifyHash    = "VerifyHash"
	CtxVerifyPayload = "VerifyPayload"
	CtxRevoke        = "Revoke"

	// Infrastructure context names
	CtxDB           = "db"
	CtxStore        = "Store"
	CtxFindByHash   = "FindByHash"
	CtxListByBatch  = "ListByBatch"
	CtxRevokeDB     = "RevokeCertificate"
	CtxClose        = "Close"
	CtxQREncode     = "EncodeQR"
	CtxWriteOutput  = "WriteOutput"
	CtxFontResolve  = "ResolveFont"
	CtxFontFace     = "LoadFontFace"
	CtxLoadTemplate = "LoadTemplate"
	CtxLoadNames    = "LoadAttendees"
	CtxAPI          = "api"

	// General context names
	CtxRouter            = "Router"
	CtxMain              = "Main"
	CtxGetCertificate    = "GetCertificate"
	CtxVerifyCertificate = "VerifyCertificate"
	CtxRevokeCertificate = "RevokeCertificateHandler"
	CtxGenerateCommand   = "Generate"
)

// Data field keys
const (
	// Certificate data fields
	DataService    = "service"
	DataAttendee   = "attendee"
	DataEvent      = "event"
	DataHash       = "hash"
	DataIndex      = "index"
	DataFormat     = "format"
	DataOutputPath = "output_path"
	DataOutputDir  = "output_dir"
	DataCount      = "count"
	DataWorkers    = "workers"
	DataPolicy     = "policy"
	DataWidth      = "width"
	DataHeight     = "height"
	DataFontPath   = "font_path"
	DataFontFamily = "font_family"
	DataFontURL    = "font_url"
	DataPayloadLen = "payload_len"
	DataModules    = "modules"
	DataFailed     = "failed"
	DataElapsed    = "elapsed"
	DataReason     = "reason"
	DataValid      = "valid"

	// Database data fields
	DataPath         = "path"
	DataRowsAffected = "rows_affected"
	DataBatchID      = "batch_id"
	DataData         = "data"
	DataRows         = "rows"
	DataSQL          = "sql"

	// API data fields
	DataMethod      = "method"
	DataStatus      = "status"
	DataLatency     = "latency"
	DataSize        = "size"
	DataRemoteAddr  = "remote_addr"
	DataUserAgent   = "user_agent"
	DataRoute       = "route"
	DataOutcome     = "outcome"
	DataPort        = "port"
	DataDBPath      = "db_path"
	DataEnvironment = "environment"
)

// Error message constants
const (
	ErrInvalidRequest      = "invalid render request"
	ErrNameCollision       = "attendee names collide after sanitization"
	ErrUnknownFormat       = "unknown output format"
	ErrNoAttendees         = "attendee list is empty"
	ErrAttendeeSource      = "attendee list cannot be read"
	ErrTemplateDecode      = "template cannot be decoded"
	ErrPayloadTooLarge     = "verification payload exceeds QR capacity"
	ErrWriteFailure        = "certificate could not be written"
	ErrFontUnavailable     = "font resource unavailable"
	ErrEmptyHash           = "certificate hash cannot be empty"
	ErrCertificateNotFound = "certificate not found"
	ErrInvalidPayload      = "verification payload is malformed"
	ErrCertificateExists   = "certificate hash already recorded"
)

// Error codes
const (
	ErrCodeAPIDecodeRequest  = "API001"
	ErrCodeAPIServiceError   = "API002"
	ErrCodeAppDBInit         = "APP001"
	ErrCodeAppServerStart    = "APP002"
	ErrCodeAppServerShutdown = "APP003"
	ErrCodeAppGenerate       = "APP004"
)

// Error types
const (
	ErrTypeDomain = "domain"
	ErrTypeAPI    = "api"
	ErrTypeApp    = "application"
)

// API routes
const (
	RouteCertificate = "/api/certificates/{hash}"
	RouteVerify      = "/api/verify"
	RouteHealthcheck = "/health"
	RouteMetrics     = "/metrics"
)

// Log keys
const (
	LogTimeKey         = "time"
	LogLevelKey        = "level"
	LogNameKey         = "logger"
	LogCallerKey       = "caller"
	LogMessageKey      = "msg"
	LogStacktraceKey   = "stacktrace"
	LogRequestIDKey    = "request_id"
	LogBatchIDKey      = "batch_id"
	LogFunctionKey     = "function"
	LogErrorCodeKey    = "error_code"
	LogErrorTypeKey    = "error_type"
	LogErrorMessageKey = "error_message"
	LogEncodingJSON    = "json"
	LogEncodingConsole = "console"
	LogOutputStdout    = "stdout"
	LogOutputStderr    = "stderr"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Message constants for application
const (
	MsgApplicationStarting = "Application starting"
	MsgFailedToInitDB      = "Failed to initialize database"
	MsgServerStarting      = "Server starting"
	MsgServerFailedToStart = "Server failed to start"
	MsgServerShuttingDown  = "Server shutting down"
	MsgServerShutdownError = "Error during server shutdown"
	MsgServerStopped       = "Server stopped"
	MsgRequestReceived     = "Request received"
	MsgRequestCompleted    = "Request completed"
	MsgRevocationRequest   = "Revocation request completed"
	MsgSettingUpRoutes     = "Setting up API routes"
	MsgHealthcheckRequest  = "Handling healthcheck request"
	MsgHealthy             = "Healthy"
	MsgBatchStarting       = "Batch generation starting"
	MsgBatchCompleted      = "Batch generation completed"
	MsgBatchAborted        = "Batch generation aborted"
	MsgBatchMetrics        = "Batch metrics"
	MsgFontFallback        = "Falling back to default font"
)

// Cache namespaces
const (
	FontPathNamespace = "FONT_PATH"
	FontFileNamespace = "FONT_FILE"
)

// Output artifacts
const (
	IncompleteMarker = ".incomplete"
)
