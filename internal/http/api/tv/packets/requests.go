package packets

type ExchangeTokenRequest struct {
	Token string `json:"token"`
}
