package models

// RemoteSession is the server-owned verification session as returned by
// GET /api/publish-session. The client only ever reads it; it is created
// server-side when an OTP is verified and expires at ExpiresAt.
//
// Verified is a pointer so that an absent field is distinguishable from an
// explicit false: the guard only rejects an explicit false.
// ExpiresAt stays a string on this side of the wire — the guard owns parsing
// it, and an unparseable value must count as expired, not as "no expiry".
type RemoteSession struct {
	PhoneE164    string `json:"phoneE164"`
	PhoneLocal   string `json:"phoneLocal"`
	ExpiresAt    string `json:"expiresAt"`
	Verified     *bool  `json:"verified,omitempty"`
	OTPSessionID string `json:"otpSessionId,omitempty"`
}
