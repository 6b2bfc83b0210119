package transfer

// UserInfoResponse is LinkedIn's OpenID Connect userinfo payload.
type UserInfoResponse struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type ConnectionStatus struct {
	Connected bool         `json:"connected"`
	PersonURN string       `json:"person_urn,omitempty"`
	Profile   *ProfileInfo `json:"profile,omitempty"`
	ExpiresAt string       `json:"expires_at,omitempty"`
}

type ProfileInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// PublishResult is the canonical outcome of a successful platform call.
type PublishResult struct {
	PostID string `json:"post_id"`
}

// InitUploadResponse is the LinkedIn images initializeUpload reply.
type InitUploadResponse struct {
	Value struct {
		UploadURL string `json:"uploadUrl"`
		Image     string `json:"image"`
	} `json:"value"`
}
