package email

// Template names as constants for type safety.
const (
	TemplateWelcome = "welcome"
)

// WelcomeData contains data for welcome emails.
type WelcomeData struct {
	Email  string
	AppURL string
}
