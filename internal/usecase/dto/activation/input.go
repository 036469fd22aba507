package activationdto

type GetNumberInput struct {
	UserID    string
	ServerID  string
	ServiceID string
}
