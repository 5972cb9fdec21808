package constant

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// Prizes under this are treated as noise when the strict-filter option is on
	SmallPrizeThreshold = 500.0
	// Flat withholding rate applied when tax adjustment is on, in percent
	DefaultTaxRate = 24.0

	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultSubjectPrefix = "scratch.analysis"
	DefaultServerPort    = 8080
)
