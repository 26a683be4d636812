package predictdto

// Request is the body posted to the prediction endpoint.
type Request struct {
	Username string `json:"username"`
}
