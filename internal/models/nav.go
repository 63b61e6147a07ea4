package models

// Routes of the publish flow. They mirror the web client's paths so logs and
// redirects read the same on both sides.
const (
	RoutePhoneEntry = "/publicar"
	RouteVerify     = "/publicar/verificar"
	RoutePublish    = "/publicar/nueva"
)

// NavState is the state carried along a navigation, the analogue of
// router-location state in the web client.
type NavState struct {
	PhoneE164       string
	PhoneLocal      string
	OTPSessionID    string
	CooldownSeconds int
}
