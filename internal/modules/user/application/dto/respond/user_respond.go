package respond

type LoginRespond struct {
	Uuid     string `json:"uuid"`
	Username string `json:"username"`
	Token    string `json:"token"`
}
