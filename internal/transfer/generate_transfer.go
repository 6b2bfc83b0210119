package transfer

type GenerateRequest struct {
	Topic             string `json:"topic"`
	Tone              string `json:"tone"`
	PostType          string `json:"post_type"`
	AdditionalContext string `json:"additional_context"`
}

type ImproveRequest struct {
	Content      string `json:"content"`
	Instructions string `json:"instructions"`
}
