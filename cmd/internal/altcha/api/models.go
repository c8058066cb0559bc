package api

type verifyRequest struct {
	Altcha string `json:"altcha"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type validateResponse struct {
	Status string `json:"status"`
}
