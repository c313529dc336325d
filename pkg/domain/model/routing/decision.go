package routing

// Decision is the post-login destination computed by the decision
// chain. It is derived once per invocation and not persisted.
type Decision string

const (
	Onboarding     Decision = "onboarding"
	Dashboard      Decision = "dashboard"
	ExternalGoogle Decision = "external-google"
)

const (
	OnboardingPath = "/onboarding"
	DashboardPath  = "/dashboard"

	// ExternalURL is where users with a force-external entitlement are
	// sent instead of the dashboard.
	ExternalURL = "https://www.google.com"
)

// Destination returns the redirect target for the decision. Paths are
// origin-relative; the external destination is absolute.
func (x Decision) Destination() string {
	switch x {
	case Onboarding:
		return OnboardingPath
	case ExternalGoogle:
		return ExternalURL
	default:
		return DashboardPath
	}
}
