package domain

type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// ServerConfig is one upstream provider's connection profile.
// The URL fields are templates with {service_code}, {country_code},
// {operator}, {activation_id} style placeholders.
type ServerConfig struct {
	ID                string
	Name              string
	GetNumberURL      string
	GetMessageURL     string
	NextMessageURL    string
	CancelURL         string
	ResponseFormat    ResponseFormat
	HeaderName        string
	HeaderValue       string
	OtpJSONPath       string
	AutoCancelMinutes int
	RetryCount        int
}

// ServiceConfig is a sellable logical service (whatsapp, telegram, ...)
// bound to one server.
type ServiceConfig struct {
	ID                   string
	ServerID             string
	Name                 string
	ServiceCode          string
	CountryCode          string
	Operator             string
	FinalPrice           float64
	CancelDisableSeconds int
}
