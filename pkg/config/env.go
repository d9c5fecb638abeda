package config

// EnvPrefix is empty because every variable carries the BOOKINGS_ prefix in its tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
