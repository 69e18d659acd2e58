package cnst

const (
	// AppName is the service name used in logs and metrics
	AppName = "ragtrack"

	// ApiServerYaml is the default configuration file name
	ApiServerYaml = "apiserver.yaml"
)

// Language constants
const (
	// XLang is the context/header key carrying the caller's language
	XLang = "X-Lang"

	LangEN = "en"
	LangNL = "nl"
)

// Digest kinds dispatched by the notification pipeline
const (
	DigestKindDashboard = "dashboard"
	DigestKindReminder  = "reminder"
)
